package catalog

import (
	"encoding/json"
	"net/http"
)

type ServiceListing struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Version          string `json:"version"`
	OAuth            bool   `json:"oauth"`
	SupportsLogin    bool   `json:"supports_login"`
	AlwaysSubscribed bool   `json:"always_subscribed"`
	ActionCount      int    `json:"action_count"`
	ReactionCount    int    `json:"reaction_count"`
}

// List registered services
//
//	@Summary      List services
//	@Description  List every registered integration module
//	@Tags         catalog
//	@Produce      json
//	@Success      200  {array}  ServiceListing
//	@Router       /services [get]
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	all := h.Registry.All()

	listings := make([]ServiceListing, 0, len(all))
	for _, svc := range all {
		listing := ServiceListing{
			ID:               svc.ID,
			Name:             svc.Name,
			Description:      svc.Description,
			Version:          svc.Version,
			OAuth:            svc.NeedsOAuth(),
			AlwaysSubscribed: svc.AlwaysSubscribed,
			ActionCount:      len(svc.Actions),
			ReactionCount:    len(svc.Reactions),
		}
		if svc.NeedsOAuth() {
			listing.SupportsLogin = svc.OAuth.SupportsLogin
		}
		listings = append(listings, listing)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}
