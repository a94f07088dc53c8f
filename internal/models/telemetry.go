package models

// Timestamps in this package are milliseconds on the machine's sample clock.
// While recording they are relative to the start of the recording, so samples
// retained from the preceding monitoring phase carry negative timestamps.

// TemperaturePoint is one telemetry sample: both core channels plus their
// rates of change (degrees per minute).
type TemperaturePoint struct {
	TS       int64   `json:"ts"`
	BeanTemp float64 `json:"bean_temp"`
	EnvTemp  float64 `json:"env_temp"`
	BeanRate float64 `json:"bean_rate"`
	EnvRate  float64 `json:"env_rate"`
}

// RoastEventKind names a roast milestone.
type RoastEventKind string

const (
	EventCharge  RoastEventKind = "CHARGE"
	EventDryEnd  RoastEventKind = "DRY_END"
	EventFCStart RoastEventKind = "FC_START"
	EventFCEnd   RoastEventKind = "FC_END"
	EventSCStart RoastEventKind = "SC_START"
	EventSCEnd   RoastEventKind = "SC_END"
	EventDrop    RoastEventKind = "DROP"
	EventCoolEnd RoastEventKind = "COOL_END"
)

// RoastEvent marks a milestone with the temperatures at that moment.
type RoastEvent struct {
	Kind     RoastEventKind `json:"kind"`
	TS       int64          `json:"ts"`
	Auto     bool           `json:"auto"` // detected by the machine vs marked by the operator
	BeanTemp float64        `json:"bean_temp"`
	EnvTemp  float64        `json:"env_temp"`
}

// ControlPoint records the control channels that changed at one instant.
// It is sparse: only the changed channel(s) appear in Values.
type ControlPoint struct {
	TS     int64              `json:"ts"`
	Values map[string]float64 `json:"values"` // channel id -> native-scale value
}

// ExtraPoint records auxiliary sensor readings at one instant.
type ExtraPoint struct {
	TS     int64              `json:"ts"`
	Values map[string]float64 `json:"values"` // channel name -> value
}

// ControlValue is the last known native-scale value of one control channel.
type ControlValue struct {
	Value float64 `json:"value"`
	TS    int64   `json:"ts"`
}

// ControlConfig describes one controllable channel of a machine. Immutable
// for the lifetime of the aggregate.
type ControlConfig struct {
	Name    string  `json:"name"` // display name, matched against readback names
	Channel string  `json:"channel"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Unit    string  `json:"unit"`
}

// ExtraChannelConfig describes one auxiliary sensor channel.
type ExtraChannelConfig struct {
	Name string `json:"name"`
}
