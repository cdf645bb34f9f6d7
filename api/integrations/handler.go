package integrations

import (
	"fmt"
	"net/http"

	"backend/services"
)

// IntegrationsHandler serves the generic per-service subscription routes.
// Every route takes the service slug as a path value and answers 404 for
// slugs no module registered.
type IntegrationsHandler struct {
	Registry          *services.Registry
	Manager           *services.SubscriptionManager
	States            *services.StateStore
	FrontendURL       string
	MobileCallbackURL string
}

func (h *IntegrationsHandler) service(r *http.Request) *services.Service {
	return h.Registry.Get(r.PathValue("service"))
}

// subscribeSuccessURL is the terminal redirect after a subscribe completed
// without a provider round-trip.
func (h *IntegrationsHandler) subscribeSuccessURL(service string, mobile bool) string {
	if mobile && h.MobileCallbackURL != "" {
		return fmt.Sprintf("%s?%s_subscribed=true", h.MobileCallbackURL, service)
	}
	return fmt.Sprintf("%s?%s_subscribed=true", h.FrontendURL, service)
}
