package integrations

import (
	"encoding/json"
	"net/http"
	"time"

	"backend/server/util"
)

type SubscribeStatusResponse struct {
	Service           string     `json:"service"`
	Subscribed        bool       `json:"subscribed"`
	OAuthConnected    bool       `json:"oauth_connected"`
	CanCreateWebhooks bool       `json:"can_create_webhooks"`
	SubscribedAt      *time.Time `json:"subscribed_at"`
	UnsubscribedAt    *time.Time `json:"unsubscribed_at"`
}

// Subscription status for a service
//
//	@Summary      Subscription status
//	@Description  Report the subscription and credential state for one service
//	@Tags         integrations
//	@Produce      json
//	@Param        service path string true "Service id"
//	@Success      200  {object}  SubscribeStatusResponse
//	@Failure      404  {string}  string "service not found"
//	@Router       /api/v1/integrations/{service}/subscribe/status [get]
func (h *IntegrationsHandler) SubscribeStatus(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	svc := h.service(r)
	if svc == nil {
		http.Error(w, "service not found", http.StatusNotFound)
		return
	}

	subscribed, err := h.Manager.IsSubscribed(DB, user.ID, svc.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	connected := svc.OAuthConnected(DB, user.ID)

	resp := SubscribeStatusResponse{
		Service:           svc.ID,
		Subscribed:        subscribed,
		OAuthConnected:    connected,
		CanCreateWebhooks: subscribed && connected,
	}

	if sub, err := h.Manager.GetSubscription(DB, user.ID, svc.ID); err == nil && sub != nil {
		resp.SubscribedAt = sub.SubscribedAt
		resp.UnsubscribedAt = sub.UnsubscribedAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
