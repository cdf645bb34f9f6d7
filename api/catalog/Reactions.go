package catalog

import (
	"encoding/json"
	"net/http"

	"backend/services"
)

type ReactionListing struct {
	Type     string                      `json:"type"`
	Service  string                      `json:"service"`
	Reaction services.ReactionDefinition `json:"reaction"`
}

// List registered reactions
//
//	@Summary      List reactions
//	@Description  List every reaction across all registered modules, fully qualified
//	@Tags         catalog
//	@Produce      json
//	@Success      200  {array}  ReactionListing
//	@Router       /reactions [get]
func (h *CatalogHandler) Reactions(w http.ResponseWriter, r *http.Request) {
	var listings []ReactionListing
	for _, svc := range h.Registry.All() {
		for _, reaction := range svc.Reactions {
			listings = append(listings, ReactionListing{
				Type:     svc.ID + "." + reaction.ID,
				Service:  svc.ID,
				Reaction: reaction,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}
