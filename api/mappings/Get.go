package mappings

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

// Get a mapping
//
//	@Summary      Get a mapping
//	@Description  Fetch one mapping by id
//	@Tags         mappings
//	@Produce      json
//	@Param        mapping_id path integer true "Mapping id"
//	@Success      200  {object}  database.Mapping
//	@Failure      404  {string}  string "Mapping not found"
//	@Router       /api/v1/mappings/{mapping_id} [get]
func (h *MappingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var mapping database.Mapping
	q := DB.Where("id = ? AND created_by = ?", r.PathValue("mapping_id"), user.ID).First(&mapping)
	if q.Error != nil {
		http.Error(w, "Mapping not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mapping)
}
