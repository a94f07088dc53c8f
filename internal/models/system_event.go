package models

import "time"

// SystemEvent is one entry of the append-only service log: session
// transitions, automation firings, alarms, errors.
type SystemEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	MachineID   string    `json:"machine_id"`
	Type        string    `json:"type"`        // SESSION | AUTOMATION | ALARM | CONTROL | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
