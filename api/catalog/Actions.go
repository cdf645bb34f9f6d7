package catalog

import (
	"encoding/json"
	"net/http"

	"backend/services"
)

type ActionListing struct {
	Type    string                    `json:"type"`
	Service string                    `json:"service"`
	Action  services.ActionDefinition `json:"action"`
}

// List registered actions
//
//	@Summary      List actions
//	@Description  List every action across all registered modules, fully qualified
//	@Tags         catalog
//	@Produce      json
//	@Success      200  {array}  ActionListing
//	@Router       /actions [get]
func (h *CatalogHandler) Actions(w http.ResponseWriter, r *http.Request) {
	var listings []ActionListing
	for _, svc := range h.Registry.All() {
		for _, action := range svc.Actions {
			listings = append(listings, ActionListing{
				Type:    svc.ActionType(action.ID),
				Service: svc.ID,
				Action:  action,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}
