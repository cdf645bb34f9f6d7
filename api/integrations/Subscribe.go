package integrations

import (
	"log"
	"net/http"

	"backend/server/util"
	"backend/services"
)

// Subscribe to a service
//
//	@Summary      Subscribe to a service
//	@Description  Subscribe the authenticated user, going through the provider's OAuth consent when no usable credential exists yet
//	@Tags         integrations
//	@Param        service path string true "Service id"
//	@Param        is_mobile query boolean false "Finish on the mobile deep link"
//	@Success      302  {string}  string "Redirect to success URL or provider consent"
//	@Failure      404  {string}  string "service not found"
//	@Failure      503  {string}  string "service not configured"
//	@Router       /api/v1/integrations/{service}/subscribe [get]
func (h *IntegrationsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
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

	mobile := r.URL.Query().Get("is_mobile") == "true"

	subscribed, err := h.Manager.IsSubscribed(DB, user.ID, svc.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if subscribed {
		http.Redirect(w, r, h.subscribeSuccessURL(svc.ID, mobile), http.StatusFound)
		return
	}

	// Modules without OAuth subscribe directly.
	if !svc.NeedsOAuth() {
		if _, err := h.Manager.Subscribe(DB, user.ID, svc.ID); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, h.subscribeSuccessURL(svc.ID, mobile), http.StatusFound)
		return
	}

	connector := svc.OAuth.Connector
	if !connector.Configured() {
		http.Error(w, "service not configured", http.StatusServiceUnavailable)
		return
	}

	// A usable stored token means no new consent is needed.
	token, err := connector.Token(DB, user.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if token != nil {
		// Modules that manage their own authorization surface, like a
		// GitHub App installation page, take over once a token exists.
		if svc.SubscribeURL != nil {
			if url, ok := svc.SubscribeURL(DB, user.ID); ok {
				http.Redirect(w, r, url, http.StatusFound)
				return
			}
		}

		if _, err := h.Manager.Subscribe(DB, user.ID, svc.ID); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, h.subscribeSuccessURL(svc.ID, mobile), http.StatusFound)
		return
	}

	state := h.States.Put(services.FlowState{
		Service:   svc.ID,
		UserID:    user.ID,
		Mobile:    mobile,
		Subscribe: true,
	})

	log.Printf("Redirecting user %d to %s consent for subscribe", user.ID, svc.ID)
	http.Redirect(w, r, connector.AuthCodeURL(state, true), http.StatusFound)
}
