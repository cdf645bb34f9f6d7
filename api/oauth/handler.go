package oauth

import (
	"fmt"

	"backend/services"
)

// OAuthHandler serves the public login and callback routes shared by every
// OAuth-capable integration module.
type OAuthHandler struct {
	Registry          *services.Registry
	Manager           *services.SubscriptionManager
	States            *services.StateStore
	FrontendURL       string
	MobileCallbackURL string
	CookieDomain      string
}

func (h *OAuthHandler) loginSuccessURL(token string, mobile bool) string {
	if mobile && h.MobileCallbackURL != "" {
		return fmt.Sprintf("%s?token=%s", h.MobileCallbackURL, token)
	}
	return fmt.Sprintf("%s?token=%s", h.FrontendURL, token)
}

func (h *OAuthHandler) subscribeSuccessURL(service string, mobile bool) string {
	if mobile && h.MobileCallbackURL != "" {
		return fmt.Sprintf("%s?%s_subscribed=true", h.MobileCallbackURL, service)
	}
	return fmt.Sprintf("%s?%s_subscribed=true", h.FrontendURL, service)
}
