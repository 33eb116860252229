package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/occasio/occasio/internal/client/models"
)

// List prints the cached events sorted by date.
func (a *App) List(ctx context.Context) {
	events := a.engine.EventsByDate()
	if len(events) == 0 {
		fmt.Println("No events.")
		return
	}
	for _, ev := range events {
		fmt.Printf("%s  %-12s %-20s [%s]\n", ev.Date, ev.Type, ev.Name, ev.ID)
	}
}

// Add prompts for the event fields and inserts a new event.
func (a *App) Add(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Event name", os.Stdout)
	if err != nil {
		return err
	}
	date, err := getSimpleText(a.reader, "Date (YYYY-MM-DD)", os.Stdout)
	if err != nil {
		return err
	}
	kind, err := getSimpleText(a.reader, "Type (birthday/appointment/interview/anniversary)", os.Stdout)
	if err != nil {
		return err
	}

	ev, err := a.engine.AddEvent(ctx, models.Event{
		Name: name,
		Date: date,
		Type: models.EventType(kind),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added %s (%s)\n", ev.Name, ev.ID)
	return nil
}

// Edit prompts for an event ID and the replacement fields. Empty input keeps
// the current value.
func (a *App) Edit(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Event ID", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "New name (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	date, err := getSimpleText(a.reader, "New date (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	kind, err := getSimpleText(a.reader, "New type (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	var patch models.EventPatch
	if name != "" {
		patch.Name = &name
	}
	if date != "" {
		patch.Date = &date
	}
	if kind != "" {
		t := models.EventType(kind)
		patch.Type = &t
	}

	ev, err := a.engine.EditEvent(ctx, id, patch)
	if err != nil {
		return err
	}

	fmt.Printf("Updated %s\n", ev.ID)
	return nil
}

// Delete removes an event by ID.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Event ID", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.engine.DeleteEvent(ctx, id); err != nil {
		return err
	}

	fmt.Println("Deleted.")
	return nil
}

// Sync pulls the server's event set, discarding unpushed local edits.
func (a *App) Sync(ctx context.Context) {
	if err := a.engine.RefreshEvents(ctx); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Printf("Synced %d events.\n", len(a.engine.Events()))
}
