package models

// Event is one decoded inbound message from the transport. The set of
// implementations is closed; the reducer switches over all of them and every
// tag has a defined transition, even if it is "leave the state alone".
type Event interface {
	eventMarker()
}

// TemperatureEvent carries one telemetry sample plus any auxiliary channel
// readings delivered in the same frame.
type TemperatureEvent struct {
	Sample TemperaturePoint
	Extras map[string]float64 // auxiliary channel name -> value
}

// MilestoneEvent reports a roast milestone, auto-detected or operator-marked.
type MilestoneEvent struct {
	Event RoastEvent
}

// StatusEvent reports a session status transition decided by the server.
// The reducer never infers transitions locally.
type StatusEvent struct {
	Status SessionStatus
}

// ControlAckEvent acknowledges a control command: the device settled on
// Value (native scale) for Channel at TS.
type ControlAckEvent struct {
	Channel string
	Value   float64
	TS      int64
}

// AlarmNotifyEvent is a server-originated alarm notification. The reducer
// passes it through untouched; the host forwards it to the notifier.
type AlarmNotifyEvent struct {
	Message string
}

// ReplayEvent is a historical sample replayed by the server during resync.
// Pass-through: replay rendering is owned by the client, not the aggregate.
type ReplayEvent struct {
	Sample TemperaturePoint
}

// ErrorEvent reports a driver or protocol error.
type ErrorEvent struct {
	Message string
}

// ConnectionEvent reports a change of the driver connection state.
type ConnectionEvent struct {
	Status ConnStatus
}

func (TemperatureEvent) eventMarker() {}
func (MilestoneEvent) eventMarker()   {}
func (StatusEvent) eventMarker()      {}
func (ControlAckEvent) eventMarker()  {}
func (AlarmNotifyEvent) eventMarker() {}
func (ReplayEvent) eventMarker()      {}
func (ErrorEvent) eventMarker()       {}
func (ConnectionEvent) eventMarker()  {}

// ControlCommand is the outbound wire shape for steering one channel.
// Value is normalized to [0,1] using the channel's configured min/max; the
// trigger engine emits native-scale values and the host converts.
type ControlCommand struct {
	Channel string  `json:"channel"`
	Value   float64 `json:"value"`
	Enabled *bool   `json:"enabled,omitempty"`
}
