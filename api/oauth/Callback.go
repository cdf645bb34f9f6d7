package oauth

import (
	"log"
	"net/http"
	"time"

	"backend/api"
	"backend/server/util"
)

// Finish an OAuth flow
//
//	@Summary      OAuth callback
//	@Description  Exchange the provider code and finish the login or subscribe flow the state was created for
//	@Tags         oauth
//	@Param        service path string true "Service id"
//	@Param        code query string true "Authorization code"
//	@Param        state query string true "Flow state"
//	@Success      302  {string}  string "Redirect to frontend or mobile deep link"
//	@Failure      400  {string}  string "invalid or expired state"
//	@Failure      401  {string}  string "authentication failed"
//	@Router       /oauth/{service}/callback [get]
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	DB, err := util.GetDB(r)
	if err != nil {
		http.Error(w, "Unable to get database", http.StatusBadRequest)
		return
	}

	svc := h.Registry.Get(r.PathValue("service"))
	if svc == nil || !svc.NeedsOAuth() {
		http.Error(w, "service not found", http.StatusNotFound)
		return
	}
	connector := svc.OAuth.Connector

	state, ok := h.States.Consume(r.URL.Query().Get("state"))
	if !ok || state.Service != svc.ID {
		http.Error(w, "invalid or expired state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	token, err := connector.Exchange(r.Context(), code, state.Subscribe)
	if err != nil {
		log.Printf("Warning: %s code exchange failed: %v", svc.ID, err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	profile, err := connector.FetchProfile(r.Context(), token)
	if err != nil {
		log.Printf("Warning: %s profile fetch failed: %v", svc.ID, err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	if state.Subscribe {
		if state.UserID == 0 {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		if err := h.connectProvider(DB, svc, state.UserID, profile, token); err != nil {
			log.Printf("Warning: connecting %s for user %d failed: %v", svc.ID, state.UserID, err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		// Modules with their own authorization surface get the user now
		// that a token is stored, like the GitHub App installation page.
		if svc.SubscribeURL != nil {
			if url, ok := svc.SubscribeURL(DB, state.UserID); ok {
				http.Redirect(w, r, url, http.StatusFound)
				return
			}
		}
		http.Redirect(w, r, h.subscribeSuccessURL(svc.ID, state.Mobile), http.StatusFound)
		return
	}

	user, err := h.oauthLogin(DB, svc, profile, token)
	if err != nil {
		log.Printf("Warning: %s login failed: %v", svc.ID, err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	expiry := time.Now().Add(24 * time.Hour)
	sessionToken, err := api.IssueSession(DB, w, r, user, h.CookieDomain, expiry)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.loginSuccessURL(sessionToken, state.Mobile), http.StatusFound)
}
