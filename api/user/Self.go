package user

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

type SelfResponse struct {
	UUID          string                       `json:"uuid"`
	Name          string                       `json:"name"`
	Email         string                       `json:"email"`
	IsAdmin       bool                         `json:"is_admin"`
	EmailVerified bool                         `json:"email_verified"`
	Connections   []database.UserOAuthProvider `json:"connections"`
}

// Get the current user
//
//	@Summary      Current user
//	@Description  Return the authenticated user and their provider connections
//	@Tags         user
//	@Produce      json
//	@Success      200  {object}  SelfResponse
//	@Failure      400  {string}  string "Unable to get database or user"
//	@Router       /api/v1/user/self [get]
func (h *UserHandler) Self(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var connections []database.UserOAuthProvider
	DB.Where("user_id = ?", user.ID).Find(&connections)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SelfResponse{
		UUID:          user.UUID,
		Name:          user.Name,
		Email:         user.Email,
		IsAdmin:       user.IsAdmin,
		EmailVerified: user.EmailVerified,
		Connections:   connections,
	})
}
