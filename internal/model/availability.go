package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxDurationMinutes is the longest slot or appointment accepted.
const MaxDurationMinutes = 480

type WindowSource string

const (
	WindowSourceTemplate  WindowSource = "template"
	WindowSourceException WindowSource = "exception"
)

// WorkingWindow is the effective working period of a professional on one date.
type WorkingWindow struct {
	Start      ClockTime    `json:"start"`
	End        ClockTime    `json:"end"`
	Duration   int          `json:"duration"`
	LunchStart *ClockTime   `json:"lunch_start,omitempty"`
	LunchEnd   *ClockTime   `json:"lunch_end,omitempty"`
	Source     WindowSource `json:"source"`
}

func (w *WorkingWindow) HasLunch() bool {
	return w.LunchStart != nil && w.LunchEnd != nil
}

// AvailabilitySlot is computed per request and never persisted.
type AvailabilitySlot struct {
	Time            ClockTime `json:"time"`
	Available       bool      `json:"available"`
	ProfessionalID  uuid.UUID `json:"professional_id"`
	DurationMinutes int       `json:"duration_minutes"`
}

// NextAvailableSlot is the first free slot found by a forward search.
type NextAvailableSlot struct {
	Date time.Time `json:"date"`
	Time ClockTime `json:"time"`
}

// DaySummary counts the slots of one date for calendar views.
type DaySummary struct {
	Date      time.Time `json:"date"`
	Total     int       `json:"total"`
	Available int       `json:"available"`
}
