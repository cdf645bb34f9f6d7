package mappings

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

// List mappings
//
//	@Summary      List mappings
//	@Description  List the mappings created by the authenticated user
//	@Tags         mappings
//	@Produce      json
//	@Success      200  {array}  database.Mapping
//	@Failure      400  {string}  string "Unable to get database or user"
//	@Router       /api/v1/mappings/list [get]
func (h *MappingsHandler) List(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var mappings []database.Mapping
	if err := DB.Where("created_by = ?", user.ID).Order("name ASC").Find(&mappings).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mappings)
}
