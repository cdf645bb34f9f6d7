package user

import (
	"net/http"
	"time"

	"backend/api"
	"backend/database"
	"backend/server/util"
)

// Logout the current session
//
//	@Summary      Logout
//	@Description  Delete the current session and clear the cookie
//	@Tags         user
//	@Success      200  {string}  string "Logged out"
//	@Failure      400  {string}  string "Unable to get database or user"
//	@Router       /api/v1/user/logout [post]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	DB, _, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	if cookie, err := r.Cookie("session_id"); err == nil {
		DB.Where("token = ?", cookie.Value).Delete(&database.Session{})
	}

	expired := api.CreateSessionToken(w, r, h.CookieDomain, "", time.Time{})
	http.SetCookie(w, expired)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Logged out"))
}
