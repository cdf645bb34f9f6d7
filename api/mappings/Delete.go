package mappings

import (
	"log"
	"net/http"

	"backend/database"
	"backend/server/util"

	"gorm.io/gorm"
)

// Delete a mapping
//
//	@Summary      Delete a mapping
//	@Description  Delete a mapping and clean up provider webhooks no other mapping still uses
//	@Tags         mappings
//	@Param        mapping_id path integer true "Mapping id"
//	@Success      200  {string}  string "Mapping deleted"
//	@Failure      404  {string}  string "Mapping not found"
//	@Router       /api/v1/mappings/{mapping_id} [delete]
func (h *MappingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := DB.Delete(&mapping).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.cleanupOrphanedWebhooks(DB, &mapping, user.ID)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Mapping deleted"))
}

// cleanupOrphanedWebhooks removes the provider webhook the mapping's action
// used, unless another active mapping of the user still depends on it.
func (h *MappingsHandler) cleanupOrphanedWebhooks(DB *gorm.DB, mapping *database.Mapping, userID uint) {
	svc, action := h.Registry.ActionByType(mapping.ActionType)
	if svc == nil || action == nil || action.Metadata.WebhookPattern == "" {
		return
	}

	var remaining int64
	DB.Model(&database.Mapping{}).
		Where("created_by = ? AND action_type = ? AND id != ?", userID, mapping.ActionType, mapping.ID).
		Count(&remaining)
	if remaining > 0 {
		return
	}

	var hooks []database.ExternalWebhook
	if err := DB.Where("user_id = ? AND service = ? AND events = ? AND is_active = ?",
		userID, svc.ID, action.Metadata.WebhookPattern, true).Find(&hooks).Error; err != nil {
		log.Printf("Warning: failed to list webhooks for cleanup: %v", err)
		return
	}

	for _, hook := range hooks {
		if svc.DeleteWebhook == nil {
			continue
		}
		if err := svc.DeleteWebhook(DB, userID, hook.ID); err != nil {
			log.Printf("Warning: failed to delete orphaned webhook %d from %s: %v", hook.ID, svc.ID, err)
		}
	}
}
