package mappings

import (
	"encoding/json"
	"net/http"

	"backend/database"
	"backend/server/util"
)

// Toggle a mapping
//
//	@Summary      Toggle a mapping
//	@Description  Flip a mapping between active and paused
//	@Tags         mappings
//	@Produce      json
//	@Param        mapping_id path integer true "Mapping id"
//	@Success      200  {object}  database.Mapping
//	@Failure      404  {string}  string "Mapping not found"
//	@Router       /api/v1/mappings/{mapping_id}/toggle [post]
func (h *MappingsHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
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

	mapping.IsActive = !mapping.IsActive
	if err := DB.Save(&mapping).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mapping)
}
