package integrations

import (
	"encoding/json"
	"net/http"

	"backend/server/util"
)

// Unsubscribe from a service
//
//	@Summary      Unsubscribe from a service
//	@Description  Flip the subscription off and tear down the user's provider webhooks best-effort
//	@Tags         integrations
//	@Produce      json
//	@Param        service path string true "Service id"
//	@Success      200  {object}  map[string]interface{}
//	@Failure      404  {string}  string "service not found"
//	@Failure      404  {string}  string "no subscription to remove"
//	@Router       /api/v1/integrations/{service}/unsubscribe [post]
func (h *IntegrationsHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
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

	sub, err := h.Manager.Unsubscribe(DB, user.ID, svc.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.Error(w, "no subscription to remove", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service":         sub.Service,
		"subscribed":      sub.Subscribed,
		"unsubscribed_at": sub.UnsubscribedAt,
	})
}
