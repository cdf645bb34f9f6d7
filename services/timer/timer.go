package timer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backend/services"
)

const ServiceID = "timer"

// New builds the internal timer module. It has no OAuth and every user is
// implicitly subscribed, so timer actions work out of the box.
func New() *services.Service {
	return &services.Service{
		ID:               ServiceID,
		Name:             "Timer",
		Description:      "Trigger automations on a schedule",
		Version:          "1.0.0",
		AlwaysSubscribed: true,
		Actions: []services.ActionDefinition{
			{
				ID:          "every_day_at_x_hour",
				Name:        "Every day at a given hour",
				Description: "Triggers once a day at the configured hour",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"hour": {"type": "integer", "minimum": 0, "maximum": 23},
						"day": {
							"type": "string",
							"enum": ["monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"],
							"description": "Restrict to one weekday, omit for every day"
						}
					},
					"required": ["hour"]
				}`),
				OutputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"triggered_at": {"type": "string", "format": "date-time"}
					}
				}`),
				Metadata: services.ActionMetadata{
					Category: "schedule",
					Tags:     []string{"time", "daily"},
				},
			},
			{
				ID:          "every_hour_at_intervals",
				Name:        "At minute intervals",
				Description: "Triggers whenever the minute hits a multiple of the interval",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"minutes": {"type": "integer", "minimum": 1, "maximum": 59}
					},
					"required": ["minutes"]
				}`),
				OutputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"triggered_at": {"type": "string", "format": "date-time"}
					}
				}`),
				Metadata: services.ActionMetadata{
					Category: "schedule",
					Tags:     []string{"time", "interval"},
				},
			},
		},
		Reactions: []services.ReactionDefinition{},
	}
}

type dailyConfig struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

type intervalConfig struct {
	Minutes int `json:"minutes"`
}

// Matches reports whether a timer action with the given config fires at the
// moment t. Called once a minute by the scheduler tick.
func Matches(actionID string, config json.RawMessage, t time.Time) (bool, error) {
	switch actionID {
	case "every_day_at_x_hour":
		var cfg dailyConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return false, err
		}
		if t.Hour() != cfg.Hour || t.Minute() != 0 {
			return false, nil
		}
		if cfg.Day != "" && !strings.EqualFold(cfg.Day, t.Weekday().String()) {
			return false, nil
		}
		return true, nil
	case "every_hour_at_intervals":
		var cfg intervalConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return false, err
		}
		if cfg.Minutes <= 0 {
			return false, fmt.Errorf("interval must be positive, got %d", cfg.Minutes)
		}
		return t.Minute()%cfg.Minutes == 0, nil
	default:
		return false, fmt.Errorf("unknown timer action %q", actionID)
	}
}
