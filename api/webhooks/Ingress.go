package webhooks

import (
	"io"
	"log"
	"net/http"
	"time"

	"backend/database"
	"backend/server/util"
)

// Receive a provider webhook
//
//	@Summary      Webhook ingress
//	@Description  Receive a provider delivery, verify its signature and store an event for every subscribed receiver
//	@Tags         webhooks
//	@Param        service path string true "Service id"
//	@Success      200  {string}  string "accepted"
//	@Failure      401  {string}  string "invalid signature"
//	@Failure      404  {string}  string "service not found"
//	@Router       /webhooks/{service} [post]
func (h *WebhooksHandler) Ingress(w http.ResponseWriter, r *http.Request) {
	DB, err := util.GetDB(r)
	if err != nil {
		http.Error(w, "Unable to get database", http.StatusBadRequest)
		return
	}

	svc := h.Registry.Get(r.PathValue("service"))
	if svc == nil {
		http.Error(w, "service not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	event := deliveryEvent(r)
	if event == "" {
		log.Printf("Warning: %s delivery without event header, ignoring", svc.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Deliveries target the shared ingress URL, so every active hook of the
	// service that listens for this event is a candidate receiver.
	var hooks []database.ExternalWebhook
	if err := DB.Where("service = ? AND is_active = ?", svc.ID, true).Find(&hooks).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	actionType := ""
	for i := range svc.Actions {
		if svc.Actions[i].Metadata.WebhookPattern == event {
			actionType = svc.ActionType(svc.Actions[i].ID)
			break
		}
	}
	if actionType == "" {
		// Providers deliver event kinds nothing subscribed to; acknowledge
		// so they do not retry.
		w.WriteHeader(http.StatusOK)
		return
	}

	verified := false
	candidates := 0
	stored := 0
	now := time.Now()

	for i := range hooks {
		hook := &hooks[i]
		if !containsEvent(hook.EventList(), event) {
			continue
		}
		candidates++
		if !verifySignature(r, body, hook.Secret) {
			continue
		}
		verified = true

		subscribed, err := h.Manager.IsSubscribed(DB, hook.UserId, svc.ID)
		if err != nil || !subscribed {
			continue
		}

		record := database.WebhookEvent{
			ActionType: actionType,
			UserId:     hook.UserId,
			Source:     svc.ID,
			ExternalId: deliveryID(r),
			Payload:    body,
			Status:     database.EventStatusReceived,
			UserAgent:  r.UserAgent(),
		}
		if err := DB.Create(&record).Error; err != nil {
			log.Printf("Warning: failed to store %s event for user %d: %v", actionType, hook.UserId, err)
			continue
		}
		stored++

		hook.LastTriggeredAt = &now
		DB.Model(hook).Update("last_triggered_at", now)
	}

	// Only hooks listening for this event get a say; a delivery nothing
	// listens to is acknowledged, not rejected.
	if !verified && candidates > 0 {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	log.Printf("Stored %d %s events", stored, actionType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("accepted"))
}

func containsEvent(events []string, event string) bool {
	for _, e := range events {
		if e == event {
			return true
		}
	}
	return false
}
