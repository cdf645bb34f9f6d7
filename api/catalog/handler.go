package catalog

import "backend/services"

// CatalogHandler serves the public discovery endpoints listing registered
// modules and their actions and reactions.
type CatalogHandler struct {
	Registry *services.Registry
}
