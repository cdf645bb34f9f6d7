package scheduler

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"backend/database"
	"backend/services"
	"backend/services/timer"

	"gorm.io/gorm"
)

// TimerTasks returns the once-a-minute tick that fires timer mappings.
func TimerTasks(DB *gorm.DB, registry *services.Registry) []Task {
	return []Task{
		{
			Name:        "timer_tick",
			Description: "Emit events for timer mappings whose schedule matches",
			Schedule:    "* * * * *", // every minute
			Enabled:     true,
			Handler: func() error {
				return emitTimerEvents(DB, registry, time.Now())
			},
		},
	}
}

// emitTimerEvents scans active timer mappings and stores an event for every
// one whose schedule matches the tick moment.
func emitTimerEvents(DB *gorm.DB, registry *services.Registry, now time.Time) error {
	svc := registry.Get(timer.ServiceID)
	if svc == nil {
		return nil
	}

	var mappings []database.Mapping
	q := DB.Where("action_type LIKE ? AND is_active = ?", timer.ServiceID+".%", true).Find(&mappings)
	if q.Error != nil {
		return q.Error
	}

	fired := 0
	for i := range mappings {
		mapping := &mappings[i]
		actionID := strings.TrimPrefix(mapping.ActionType, timer.ServiceID+".")

		matches, err := timer.Matches(actionID, mapping.ActionConfig, now)
		if err != nil {
			log.Printf("Warning: timer mapping %d has bad config: %v", mapping.ID, err)
			continue
		}
		if !matches {
			continue
		}

		payload, _ := json.Marshal(map[string]string{
			"triggered_at": now.UTC().Format(time.RFC3339),
		})

		mappingID := mapping.ID
		event := database.WebhookEvent{
			ActionType: mapping.ActionType,
			UserId:     mapping.CreatedBy,
			MappingId:  &mappingID,
			Source:     timer.ServiceID,
			ExternalId: fmt.Sprintf("timer-%d-%d", mapping.ID, now.Unix()),
			Payload:    payload,
			Status:     database.EventStatusReceived,
		}
		if err := DB.Create(&event).Error; err != nil {
			log.Printf("Warning: failed to store timer event for mapping %d: %v", mapping.ID, err)
			continue
		}
		fired++
	}

	if fired > 0 {
		log.Printf("Timer tick fired %d mappings", fired)
	}
	return nil
}
