package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultCounterColor color assigned when none is given
const DefaultCounterColor = "#4e79a7"

const maxNameLength = 255

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CounterState lifecycle state of a counter
type CounterState string

const (
	CounterStateIdle    CounterState = "idle"    // no open interval, not paused
	CounterStateRunning CounterState = "running" // open interval exists
	CounterStatePaused  CounterState = "paused"  // no open interval, paused hint set
)

// Counter named time category owned by a user
type Counter struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     string    `json:"color"`
	IsRunning bool      `json:"is_running"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CounterStatus current lifecycle state and open interval
type CounterStatus struct {
	CounterID      int64        `json:"counter_id"`
	State          CounterState `json:"state"`
	ActiveInterval *Interval    `json:"active_interval,omitempty"`
}

// CreateCounterRequest create counter request
type CreateCounterRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// UpdateCounterRequest update counter request
type UpdateCounterRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// NormalizeCounterName trims and validates a counter name
func NormalizeCounterName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewFieldError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", NewFieldError("name", "name must be at most 255 characters")
	}
	return name, nil
}

// NormalizeCounterColor empty means default, otherwise #rrggbb
func NormalizeCounterColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return DefaultCounterColor, nil
	}
	if !colorPattern.MatchString(color) {
		return "", NewFieldError("color", "color must be in #rrggbb format")
	}
	return strings.ToLower(color), nil
}
