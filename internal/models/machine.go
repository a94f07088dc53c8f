package models

// SessionStatus is the lifecycle phase of a roast session.
type SessionStatus string

const (
	SessionIdle       SessionStatus = "IDLE"
	SessionMonitoring SessionStatus = "MONITORING"
	SessionRecording  SessionStatus = "RECORDING"
	SessionFinished   SessionStatus = "FINISHED"
)

// ConnStatus is the driver/connection state reported by the transport.
type ConnStatus string

const (
	ConnDisconnected ConnStatus = "DISCONNECTED"
	ConnConnecting   ConnStatus = "CONNECTING"
	ConnConnected    ConnStatus = "CONNECTED"
)

// MachineState is the aggregate for one connected roaster. It is only
// mutated through roast.Reduce, which treats it as immutable and returns a
// fresh copy when anything changes.
type MachineState struct {
	ID     string        `json:"id"`
	Status SessionStatus `json:"status"`
	Conn   ConnStatus    `json:"conn"`

	LastSample *TemperaturePoint `json:"last_sample,omitempty"`
	Temps      []TemperaturePoint `json:"temps,omitempty"`
	Events     []RoastEvent       `json:"events,omitempty"`
	Controls   []ControlPoint     `json:"controls,omitempty"`
	Extras     []ExtraPoint       `json:"extras,omitempty"`

	// Snapshot is the current per-channel control state, merged from device
	// readbacks and command acknowledgements, last write wins.
	Snapshot map[string]ControlValue `json:"snapshot,omitempty"`
	// Readback holds the latest value of every auxiliary channel by name,
	// including names that do not map to any control.
	Readback map[string]float64 `json:"readback,omitempty"`

	Configs      []ControlConfig      `json:"configs,omitempty"`
	ExtraConfigs []ExtraChannelConfig `json:"extra_configs,omitempty"`

	LastError string `json:"last_error,omitempty"`
}

// NewMachineState builds the initial aggregate for a machine. Channel
// configuration is fixed at construction; reconfiguring means building a new
// aggregate.
func NewMachineState(id string, configs []ControlConfig, extras []ExtraChannelConfig) *MachineState {
	return &MachineState{
		ID:           id,
		Status:       SessionIdle,
		Conn:         ConnDisconnected,
		Configs:      configs,
		ExtraConfigs: extras,
	}
}

// ControlByName returns the control config whose display name matches, used
// to reconcile auxiliary readbacks into the control snapshot.
func (m *MachineState) ControlByName(name string) (ControlConfig, bool) {
	for _, c := range m.Configs {
		if c.Name == name {
			return c, true
		}
	}
	return ControlConfig{}, false
}

// ControlByChannel returns the control config for a channel id.
func (m *MachineState) ControlByChannel(channel string) (ControlConfig, bool) {
	for _, c := range m.Configs {
		if c.Channel == channel {
			return c, true
		}
	}
	return ControlConfig{}, false
}
