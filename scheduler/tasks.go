package scheduler

import (
	"log"
	"time"

	"backend/database"
	"backend/services"

	"gorm.io/gorm"
)

// Task represents a scheduled task
type Task struct {
	Name        string
	Description string
	Schedule    string
	Enabled     bool
	Handler     func() error
}

// DataMaintenanceTasks returns tasks related to data maintenance
func DataMaintenanceTasks(DB *gorm.DB, states *services.StateStore) []Task {
	return []Task{
		{
			Name:        "prune_old_sessions",
			Description: "Remove expired sessions",
			Schedule:    "0 4 * * *", // 4 AM every day
			Enabled:     true,
			Handler: func() error {
				result := DB.Where("expiry < ?", time.Now()).Delete(&database.Session{})
				if result.Error != nil {
					return result.Error
				}
				log.Printf("Pruned %d expired sessions", result.RowsAffected)
				return nil
			},
		},
		{
			Name:        "prune_oauth_states",
			Description: "Drop expired OAuth flow states",
			Schedule:    "*/5 * * * *", // every 5 minutes
			Enabled:     true,
			Handler: func() error {
				if removed := states.Prune(); removed > 0 {
					log.Printf("Pruned %d expired OAuth states", removed)
				}
				return nil
			},
		},
	}
}
