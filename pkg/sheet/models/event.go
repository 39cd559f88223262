package models

import "time"

// EventType names the kind of notification emitted by a sheet.
type EventType string

const (
	// EventChanged indicates a mutation was applied and persisted.
	EventChanged EventType = "changed"
	// EventAlert indicates a watch matched at least one row.
	EventAlert EventType = "alert"
	// EventReloaded indicates the grid was fully reloaded from disk.
	EventReloaded EventType = "reloaded"
	// EventAppended indicates rows appended externally were merged.
	EventAppended EventType = "appended"
)

// Event is pushed to the outbound event channel.
type Event struct {
	// ID is unique per event.
	ID string `json:"id"`
	// Type is the event kind.
	Type EventType `json:"type"`
	// Sheet is the resolved path of the backing file.
	Sheet string `json:"sheet"`
	// Operation names the mutation that caused the event.
	Operation string `json:"operation,omitempty"`
	// Watch names the watch that fired (alerts only).
	Watch string `json:"watch,omitempty"`
	// Rows carries matched rows (alerts) or the number of merged rows.
	Rows []map[string]any `json:"rows,omitempty"`
	// Time is when the event was produced.
	Time time.Time `json:"time"`
}
