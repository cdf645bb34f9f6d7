package oauth

import (
	"log"
	"net/http"

	"backend/services"
)

// Start an OAuth login
//
//	@Summary      Start an OAuth login
//	@Description  Redirect to the provider's consent page to log in or create an account
//	@Tags         oauth
//	@Param        service path string true "Service id"
//	@Param        is_mobile query boolean false "Finish on the mobile deep link"
//	@Success      302  {string}  string "Redirect to provider consent"
//	@Failure      404  {string}  string "service not found"
//	@Failure      503  {string}  string "service not configured"
//	@Router       /oauth/{service}/login [get]
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	svc := h.Registry.Get(r.PathValue("service"))
	if svc == nil || !svc.NeedsOAuth() || !svc.OAuth.SupportsLogin {
		http.Error(w, "service not found", http.StatusNotFound)
		return
	}

	connector := svc.OAuth.Connector
	if !connector.Configured() {
		http.Error(w, "service not configured", http.StatusServiceUnavailable)
		return
	}

	mobile := r.URL.Query().Get("is_mobile") == "true"

	state := h.States.Put(services.FlowState{
		Service: svc.ID,
		Mobile:  mobile,
	})

	log.Printf("Starting %s login flow (mobile=%t)", svc.ID, mobile)
	http.Redirect(w, r, connector.AuthCodeURL(state, false), http.StatusFound)
}
