package roast

import (
	"math"

	"roaster_control/internal/models"
)

// TailWindow is how much monitoring history (ms) survives the transition
// into recording.
const TailWindow = 5000

// Reduce applies one decoded inbound event to the aggregate and returns the
// next aggregate. It never mutates its argument: when anything changes a
// fresh copy is returned, and when the event is ignored the identical
// pointer comes back, so callers can detect change by comparing pointers.
//
// Every event tag has a defined transition; there is no error path.
func Reduce(st *models.MachineState, ev models.Event) *models.MachineState {
	switch e := ev.(type) {
	case models.TemperatureEvent:
		return applyTemperature(st, e)
	case models.MilestoneEvent:
		return applyMilestone(st, e)
	case models.StatusEvent:
		return applyStatus(st, e)
	case models.ControlAckEvent:
		return applyControlAck(st, e)
	case models.ErrorEvent:
		if st.LastError == e.Message {
			return st
		}
		next := clone(st)
		next.LastError = e.Message
		return next
	case models.ConnectionEvent:
		if st.Conn == e.Status {
			return st
		}
		next := clone(st)
		next.Conn = e.Status
		return next
	case models.AlarmNotifyEvent, models.ReplayEvent:
		// Pass-through tags: forwarded by the host, nothing to record here.
		return st
	default:
		return st
	}
}

func applyStatus(st *models.MachineState, e models.StatusEvent) *models.MachineState {
	if st.Status == e.Status {
		return st
	}
	next := clone(st)
	prev := st.Status
	next.Status = e.Status

	switch {
	case e.Status == models.SessionMonitoring:
		// A fresh monitoring phase starts with empty buffers.
		next.Temps = nil
		next.Events = nil
		next.Controls = nil
		next.Extras = nil
		next.LastSample = nil
	case e.Status == models.SessionRecording && prev == models.SessionMonitoring:
		rebaseForRecording(next)
	}
	// Other transitions (recording->finished, monitoring->idle, ...) leave
	// all history untouched.
	return next
}

// rebaseForRecording keeps the trailing TailWindow of monitoring history and
// shifts retained timestamps so the most recent sample lands at 0, older
// ones at negative offsets. The milestone list always starts empty, and a
// non-empty control snapshot is written into the control history at 0 so
// automation and charts have an immediate baseline.
func rebaseForRecording(st *models.MachineState) {
	var lastTs int64
	if n := len(st.Temps); n > 0 {
		lastTs = st.Temps[n-1].TS
	}
	cutoff := lastTs - TailWindow

	var temps []models.TemperaturePoint
	for _, p := range st.Temps {
		if p.TS >= cutoff {
			p.TS -= lastTs
			temps = append(temps, p)
		}
	}
	st.Temps = temps
	if len(temps) > 0 {
		st.LastSample = &temps[len(temps)-1]
	} else {
		st.LastSample = nil
	}

	var controls []models.ControlPoint
	for _, p := range st.Controls {
		if p.TS >= cutoff {
			p.TS -= lastTs
			controls = append(controls, p)
		}
	}
	var extras []models.ExtraPoint
	for _, p := range st.Extras {
		if p.TS >= cutoff {
			p.TS -= lastTs
			extras = append(extras, p)
		}
	}
	st.Extras = extras
	st.Events = nil

	if len(st.Snapshot) > 0 {
		seed := models.ControlPoint{TS: 0, Values: make(map[string]float64, len(st.Snapshot))}
		for ch, cv := range st.Snapshot {
			seed.Values[ch] = cv.Value
		}
		controls = append(controls, seed)
	}
	st.Controls = controls
}

func applyTemperature(st *models.MachineState, e models.TemperatureEvent) *models.MachineState {
	next := clone(st)
	sample := e.Sample
	next.LastSample = &sample
	next.LastError = ""

	active := st.Status == models.SessionMonitoring || st.Status == models.SessionRecording
	if active {
		next.Temps = append(next.Temps, sample)
	}

	if len(e.Extras) > 0 {
		next.Readback = cloneFloats(st.Readback, len(e.Extras))
		for name, v := range e.Extras {
			next.Readback[name] = v
		}
		if active {
			next.Extras = append(next.Extras, models.ExtraPoint{TS: sample.TS, Values: copyFloats(e.Extras)})
		}
		// Readings named after a control are readbacks of that control and
		// reconcile into the snapshot. Config order keeps the resulting
		// history entries deterministic.
		for _, cfg := range st.Configs {
			v, ok := e.Extras[cfg.Name]
			if !ok {
				continue
			}
			writeControl(next, cfg.Channel, v, roundToSecond(sample.TS), st.Status == models.SessionRecording)
		}
	}
	return next
}

func applyControlAck(st *models.MachineState, e models.ControlAckEvent) *models.MachineState {
	if cur, ok := st.Snapshot[e.Channel]; ok && cur.Value == e.Value {
		return st
	}
	next := clone(st)
	writeControl(next, e.Channel, e.Value, roundToSecond(e.TS), st.Status == models.SessionRecording)
	return next
}

// writeControl is the single path by which device readbacks, command
// acknowledgements and local input land in the control snapshot. Last write
// wins; there is no priority between sources.
func writeControl(st *models.MachineState, channel string, value float64, ts int64, recording bool) {
	if cur, ok := st.Snapshot[channel]; ok && cur.Value == value {
		return
	}
	if st.Snapshot == nil {
		st.Snapshot = make(map[string]models.ControlValue, 1)
	} else {
		st.Snapshot = cloneValues(st.Snapshot)
	}
	st.Snapshot[channel] = models.ControlValue{Value: value, TS: ts}
	if recording {
		st.Controls = append(st.Controls, models.ControlPoint{
			TS:     ts,
			Values: map[string]float64{channel: value},
		})
	}
}

func applyMilestone(st *models.MachineState, e models.MilestoneEvent) *models.MachineState {
	if st.Status != models.SessionMonitoring && st.Status != models.SessionRecording {
		return st
	}
	next := clone(st)
	next.Events = append(next.Events, e.Event)
	return next
}

func clone(st *models.MachineState) *models.MachineState {
	c := *st
	return &c
}

func cloneValues(m map[string]models.ControlValue) map[string]models.ControlValue {
	out := make(map[string]models.ControlValue, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFloats(m map[string]float64, extra int) map[string]float64 {
	out := make(map[string]float64, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloats(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// roundToSecond snaps a millisecond timestamp to the nearest whole second,
// collapsing near-duplicate noisy readback entries.
func roundToSecond(ts int64) int64 {
	return int64(math.Round(float64(ts)/1000.0)) * 1000
}
