package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/occasio/occasio/internal/common"
)

func validEvent() Event {
	return Event{ID: "1", Name: "Bob", Date: "2025-01-01", Type: EventBirthday}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Event)
		ok     bool
	}{
		{"valid", func(e *Event) {}, true},
		{"empty name", func(e *Event) { e.Name = "  " }, false},
		{"name too long", func(e *Event) { e.Name = strings.Repeat("x", MaxEventNameLen+1) }, false},
		{"bad date", func(e *Event) { e.Date = "01/01/2025" }, false},
		{"bad type", func(e *Event) { e.Type = "party" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := validEvent()
			tc.mutate(&e)
			err := e.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestNewEventID_Format(t *testing.T) {
	id := NewEventID()
	parts := strings.SplitN(id, "-", 2)
	require.Len(t, parts, 2)
	require.NotEmpty(t, parts[0])
	require.NotEmpty(t, parts[1])

	require.NotEqual(t, id, NewEventID())
}

func TestEventPatch_Apply(t *testing.T) {
	e := validEvent()
	name := "Alice"
	typ := EventAnniversary
	EventPatch{Name: &name, Type: &typ}.Apply(&e)

	require.Equal(t, "Alice", e.Name)
	require.Equal(t, EventAnniversary, e.Type)
	require.Equal(t, "2025-01-01", e.Date, "unpatched fields stay")
}

func TestSortEventsByDate(t *testing.T) {
	events := []Event{
		{ID: "a", Date: "2025-06-01"},
		{ID: "b", Date: "2025-01-01"},
		{ID: "c", Date: "2025-03-15"},
	}
	sorted := SortEventsByDate(events)

	require.Equal(t, []string{"b", "c", "a"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	require.Equal(t, "a", events[0].ID, "input slice is not mutated")
}
