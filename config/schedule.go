package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/ptgbot/core/schedule"
)

// ScheduleConfig describes the rooms, their slots and the fixed bookings.
// Bookings are a list so slot names may contain dots.
type ScheduleConfig struct {
	Rooms      []schedule.Room    `json:"rooms"`
	Bookings   []schedule.Booking `json:"bookings"`
	Additional []schedule.Room    `json:"additional"`
}

// Grid converts the section for the schedule store.
func (c ScheduleConfig) Grid() schedule.Grid {
	return schedule.Grid{Rooms: c.Rooms, Bookings: c.Bookings, Additional: c.Additional}
}

// Validate returns a *schedule.ConfigError for an inconsistent grid.
func (c ScheduleConfig) Validate() error {
	return c.Grid().Validate()
}

// StorageConfig defines where and how the schedule is saved.
type StorageConfig struct {
	Path string `json:"path"`

	// PersistRetries is the number of save retries after a failure; nil
	// means the default of 2 and 0 fails fast.
	PersistRetries   *int `json:"persist_retries"`
	PersistBackoffMS int  `json:"persist_backoff_ms"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "ptg.json"
	}
	if c.PersistRetries == nil {
		retries := 2
		c.PersistRetries = &retries
	}
	if c.PersistBackoffMS == 0 {
		c.PersistBackoffMS = 50
	}
}

// Validate checks mandatory fields.
func (c StorageConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.Retries() < 0 || c.PersistBackoffMS < 0 {
		return fmt.Errorf("persist_retries and persist_backoff_ms must not be negative")
	}
	return nil
}

// Retries returns the configured save retries, 0 when unset.
func (c StorageConfig) Retries() int {
	if c.PersistRetries == nil {
		return 0
	}
	return *c.PersistRetries
}

// Backoff returns the delay before the first save retry.
func (c StorageConfig) Backoff() time.Duration {
	return time.Duration(c.PersistBackoffMS) * time.Millisecond
}

// APIConfig defines the read-only HTTP API.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	// Token protects the audit endpoint when set.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}
