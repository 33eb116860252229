// Package models defines client-side data models for the Occasio event
// reminder application.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/occasio/occasio/internal/common"
)

// EventType enumerates the supported reminder categories.
type EventType string

const (
	EventBirthday    EventType = "birthday"
	EventAppointment EventType = "appointment"
	EventInterview   EventType = "interview"
	EventAnniversary EventType = "anniversary"
)

// DateLayout is the calendar-date wire format for Event.Date.
const DateLayout = "2006-01-02"

// MaxEventNameLen bounds Event.Name.
const MaxEventNameLen = 50

// Event is a single reminder entry. The ID is client-generated, unique and
// immutable; the collection an event belongs to is an unordered set keyed
// by ID, sorted on demand for display.
type Event struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date string    `json:"date"` // YYYY-MM-DD
	Type EventType `json:"type"`
}

// NewEventID produces a "<unix-millis>-<random>" identifier. Collisions are
// prevented by construction; consumers still treat a duplicate ID as an
// overwrite of the older entry.
func NewEventID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Validate checks the client-side constraints. Violations wrap
// common.ErrValidation and never reach the network.
func (e *Event) Validate() error {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return fmt.Errorf("%w: event name is required", common.ErrValidation)
	}
	if len(name) > MaxEventNameLen {
		return fmt.Errorf("%w: event name exceeds %d characters", common.ErrValidation, MaxEventNameLen)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: event date must be YYYY-MM-DD", common.ErrValidation)
	}
	switch e.Type {
	case EventBirthday, EventAppointment, EventInterview, EventAnniversary:
	default:
		return fmt.Errorf("%w: unknown event type %q", common.ErrValidation, e.Type)
	}
	return nil
}

// Day returns the event's calendar date in UTC.
func (e *Event) Day() (time.Time, error) {
	return time.Parse(DateLayout, e.Date)
}

// EventPatch carries the fields an edit may change. Nil fields are left as-is.
type EventPatch struct {
	Name *string
	Date *string
	Type *EventType
}

// Apply merges the patch into e.
func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
}

// SortEventsByDate returns a date-sorted copy. Display ordering is a
// presentation concern; the underlying collection stays unordered.
func SortEventsByDate(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
