package server

import (
	"fmt"
	"net/http"

	"backend/api/catalog"
	"backend/api/integrations"
	"backend/api/mappings"
	"backend/api/oauth"
	"backend/api/user"
	"backend/api/webhooks"
	"backend/services"
)

// RouterDeps carries everything the route handlers need. Built once in the
// server command and passed down, no package-level singletons.
type RouterDeps struct {
	Registry          *services.Registry
	Manager           *services.SubscriptionManager
	States            *services.StateStore
	FrontendURL       string
	MobileCallbackURL string
	CookieDomain      string
}

func BackendRouting(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	v1PrivateApis := http.NewServeMux()

	userHandler := &user.UserHandler{CookieDomain: deps.CookieDomain}
	catalogHandler := &catalog.CatalogHandler{Registry: deps.Registry}
	integrationsHandler := &integrations.IntegrationsHandler{
		Registry:          deps.Registry,
		Manager:           deps.Manager,
		States:            deps.States,
		FrontendURL:       deps.FrontendURL,
		MobileCallbackURL: deps.MobileCallbackURL,
	}
	oauthHandler := &oauth.OAuthHandler{
		Registry:          deps.Registry,
		Manager:           deps.Manager,
		States:            deps.States,
		FrontendURL:       deps.FrontendURL,
		MobileCallbackURL: deps.MobileCallbackURL,
		CookieDomain:      deps.CookieDomain,
	}
	mappingsHandler := &mappings.MappingsHandler{
		Registry: deps.Registry,
		Manager:  deps.Manager,
	}
	webhooksHandler := &webhooks.WebhooksHandler{
		Registry: deps.Registry,
		Manager:  deps.Manager,
	}

	v1PrivateApis.HandleFunc("GET /user/self", userHandler.Self)
	v1PrivateApis.HandleFunc("POST /user/logout", userHandler.Logout)

	v1PrivateApis.HandleFunc("GET /integrations/{service}/subscribe", integrationsHandler.Subscribe)
	v1PrivateApis.HandleFunc("POST /integrations/{service}/unsubscribe", integrationsHandler.Unsubscribe)
	v1PrivateApis.HandleFunc("GET /integrations/{service}/subscribe/status", integrationsHandler.SubscribeStatus)
	v1PrivateApis.HandleFunc("GET /integrations/{service}/login/status", integrationsHandler.LoginStatus)

	v1PrivateApis.HandleFunc("POST /mappings/create", mappingsHandler.Create)
	v1PrivateApis.HandleFunc("GET /mappings/list", mappingsHandler.List)
	v1PrivateApis.HandleFunc("GET /mappings/{mapping_id}", mappingsHandler.Get)
	v1PrivateApis.HandleFunc("DELETE /mappings/{mapping_id}", mappingsHandler.Delete)
	v1PrivateApis.HandleFunc("POST /mappings/{mapping_id}/toggle", mappingsHandler.ToggleActive)

	v1PrivateApis.HandleFunc("GET /webhooks/events", webhooksHandler.Events)

	mux.HandleFunc("POST /api/v1/user/login", userHandler.Login)
	mux.HandleFunc("POST /api/v1/user/register", userHandler.Register)

	mux.HandleFunc("GET /services", catalogHandler.Services)
	mux.HandleFunc("GET /actions", catalogHandler.Actions)
	mux.HandleFunc("GET /reactions", catalogHandler.Reactions)

	mux.HandleFunc("GET /oauth/{service}/login", oauthHandler.Login)
	mux.HandleFunc("GET /oauth/{service}/callback", oauthHandler.Callback)

	mux.HandleFunc("POST /webhooks/{service}", webhooksHandler.Ingress)

	mux.HandleFunc("GET /_health", func(w http.ResponseWriter, r *http.Request) {
		if ServerStatus != "running" {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(fmt.Sprintf("Server is not running, status: %s", ServerStatus)))
		} else {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Server is running"))
		}
	})

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", AuthMiddleware(v1PrivateApis)))

	return mux
}
