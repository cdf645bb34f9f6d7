package webhooks

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

// List received events
//
//	@Summary      List received events
//	@Description  List the most recent events stored for the authenticated user
//	@Tags         webhooks
//	@Produce      json
//	@Success      200  {array}  database.WebhookEvent
//	@Failure      400  {string}  string "Unable to get database or user"
//	@Router       /api/v1/webhooks/events [get]
func (h *WebhooksHandler) Events(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var events []database.WebhookEvent
	if err := DB.Where("user_id = ?", user.ID).Order("id DESC").Limit(100).Find(&events).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
