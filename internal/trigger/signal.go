package trigger

import "roaster_control/internal/models"

// Signal selects which live value a threshold condition watches.
type Signal string

const (
	SignalBeanTemp Signal = "BEAN_TEMP"
	SignalEnvTemp  Signal = "ENV_TEMP"
	SignalBeanRate Signal = "BEAN_RATE"
	SignalEnvRate  Signal = "ENV_RATE"
	// SignalExtra watches a named auxiliary channel; Condition.Channel names it.
	SignalExtra Signal = "EXTRA"
)

// Snapshot is one instant of every resolvable signal. Crossing detection
// compares two temporally adjacent snapshots.
type Snapshot struct {
	BeanTemp float64
	EnvTemp  float64
	BeanRate float64
	EnvRate  float64
	Extras   map[string]float64
}

// SnapshotFrom builds a Snapshot from a telemetry sample and the current
// auxiliary readback map.
func SnapshotFrom(p models.TemperaturePoint, extras map[string]float64) Snapshot {
	return Snapshot{
		BeanTemp: p.BeanTemp,
		EnvTemp:  p.EnvTemp,
		BeanRate: p.BeanRate,
		EnvRate:  p.EnvRate,
		Extras:   extras,
	}
}

// value resolves a signal. The second return is false when a named auxiliary
// channel is not present, which callers must treat as "skip", not an error:
// trigger definitions and channel configuration drift apart legitimately.
func (s Snapshot) value(sig Signal, channel string) (float64, bool) {
	switch sig {
	case SignalBeanTemp:
		return s.BeanTemp, true
	case SignalEnvTemp:
		return s.EnvTemp, true
	case SignalBeanRate:
		return s.BeanRate, true
	case SignalEnvRate:
		return s.EnvRate, true
	case SignalExtra:
		v, ok := s.Extras[channel]
		return v, ok
	default:
		return 0, false
	}
}
