package settings

import "time"

const EventSettingsUpdated = "SettingsUpdated"

// SettingsUpdated carries the full settings after the change
type SettingsUpdated struct {
	Settings
	UpdatedAt time.Time `json:"updated_at"`
}
