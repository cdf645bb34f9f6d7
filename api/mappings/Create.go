package mappings

import (
	"encoding/json"
	"fmt"
	"net/http"

	"backend/database"
	"backend/server/util"
)

type CreateMappingRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ActionType  string          `json:"action_type"`
	ActionConfig json.RawMessage `json:"action_config"`
	Reactions   json.RawMessage `json:"reactions"`
}

// Create a mapping
//
//	@Summary      Create a mapping
//	@Description  Create an action-to-reaction mapping and provision the webhook its action needs
//	@Tags         mappings
//	@Accept       json
//	@Produce      json
//	@Param        request body CreateMappingRequest true "Mapping"
//	@Success      201  {object}  database.Mapping
//	@Failure      400  {string}  string "Invalid request"
//	@Failure      404  {string}  string "unknown action type"
//	@Failure      409  {string}  string "Mapping name already in use"
//	@Router       /api/v1/mappings/create [post]
func (h *MappingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	DB, user, err := util.GetDBAndUser(r)
	if err != nil {
		http.Error(w, "Unable to get database or user", http.StatusBadRequest)
		return
	}

	var data CreateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if data.Name == "" {
		http.Error(w, "Mapping name is required", http.StatusBadRequest)
		return
	}
	if data.ActionType == "" {
		http.Error(w, "Action type is required", http.StatusBadRequest)
		return
	}

	svc, action := h.Registry.ActionByType(data.ActionType)
	if svc == nil || action == nil {
		http.Error(w, "unknown action type", http.StatusNotFound)
		return
	}

	if data.ActionConfig == nil {
		data.ActionConfig = json.RawMessage(`{}`)
	}
	if err := validateConfig(action.ConfigSchema, data.ActionConfig); err != nil {
		http.Error(w, fmt.Sprintf("Invalid action config: %v", err), http.StatusBadRequest)
		return
	}

	var existing database.Mapping
	if q := DB.Where("name = ?", data.Name).First(&existing); q.Error == nil {
		http.Error(w, fmt.Sprintf("Mapping with name '%s' already exists", data.Name), http.StatusConflict)
		return
	}

	if data.Reactions == nil {
		data.Reactions = json.RawMessage(`[]`)
	}

	mapping := database.Mapping{
		Name:         data.Name,
		Description:  data.Description,
		ActionType:   data.ActionType,
		ActionConfig: data.ActionConfig,
		Reactions:    data.Reactions,
		IsActive:     true,
		CreatedBy:    user.ID,
	}
	if err := DB.Create(&mapping).Error; err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Provisioning failures only cost the mapping its trigger, they never
	// fail the create.
	h.Manager.EnsureMappingWebhooks(DB, &mapping, user.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mapping)
}
