package integrations

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backend/database"
	"backend/server/util"

	"gorm.io/gorm"
)

type LoginStatusResponse struct {
	Service        string     `json:"service"`
	Connected      bool       `json:"connected"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	Scopes         []string   `json:"scopes,omitempty"`
}

// Login status for a service
//
//	@Summary      Login status
//	@Description  Report whether the user holds a usable login credential for the service
//	@Tags         integrations
//	@Produce      json
//	@Param        service path string true "Service id"
//	@Success      200  {object}  LoginStatusResponse
//	@Failure      404  {string}  string "service not found"
//	@Router       /api/v1/integrations/{service}/login/status [get]
func (h *IntegrationsHandler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	svc := h.service(r)
	if svc == nil || !svc.NeedsOAuth() || !svc.OAuth.SupportsLogin {
		http.Error(w, "service not found", http.StatusNotFound)
		return
	}

	resp := LoginStatusResponse{Service: svc.ID}

	var record database.UserToken
	q := DB.Where("user_id = ? AND provider = ?", user.ID, svc.ID).First(&record)
	if q.Error != nil && !errors.Is(q.Error, gorm.ErrRecordNotFound) {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if q.Error == nil && !record.IsRevoked && !record.Expired() {
		resp.Connected = true
		resp.TokenExpiresAt = record.ExpiresAt
		resp.Scopes = record.ScopeList()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
