package models

import "time"

// WatchDef is a named query re-run after every mutation.
type WatchDef struct {
	// Name uniquely identifies the watch.
	Name string `json:"name" yaml:"name"`
	// Query is the SQL text run against the virtual table "data".
	Query string `json:"query" yaml:"query"`
	// Action is the optional name of an external action fired on trigger.
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
	// Params are passed to the action, merged with the matched rows.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	// Once removes the watch after its first trigger.
	Once bool `json:"once,omitempty" yaml:"once,omitempty"`
	// TriggerCount counts how many dispatch passes matched at least one row.
	TriggerCount int `json:"trigger_count" yaml:"-"`
	// LastTriggered is the time of the latest trigger (zero if never).
	LastTriggered time.Time `json:"last_triggered,omitempty" yaml:"-"`
}
