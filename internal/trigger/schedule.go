package trigger

import "sort"

// ScheduleStatus is the lifecycle of a Schedule container.
type ScheduleStatus string

const (
	ScheduleIdle      ScheduleStatus = "IDLE"
	ScheduleRunning   ScheduleStatus = "RUNNING"
	SchedulePaused    ScheduleStatus = "PAUSED"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
)

// Action is one control move: set a channel to a native-scale value.
// Normalizing to the wire range is the host's job.
type Action struct {
	Channel string  `json:"channel"`
	Value   float64 `json:"value"`
}

// Step is one automation trigger: when its condition is met, all its
// actions are surfaced together as a single effect.
type Step struct {
	ID        string    `json:"id"`
	Condition Condition `json:"condition"`
	Actions   []Action  `json:"actions"`
	Enabled   bool      `json:"enabled"`
	Fired     bool      `json:"fired"`
}

// Schedule is an ordered set of automation steps. Values are immutable:
// every operation returns a new Schedule, or the original unchanged when
// nothing applies.
type Schedule struct {
	Name   string         `json:"name"`
	Steps  []Step         `json:"steps"`
	Status ScheduleStatus `json:"status"`
}

// StepEffect is the fired outcome of one step.
type StepEffect struct {
	StepID  string
	Actions []Action
}

// Evaluate runs one crossing-detection pass. It is a no-op unless the
// schedule is running. Disabled and already-fired steps are skipped, several
// steps may fire in the same pass (effects in definition order), and once
// every enabled step has fired the schedule is completed. Fired flags only
// ever go false -> true here; Reset is the sole way back.
func (s Schedule) Evaluate(elapsedMS int64, cur, prev Snapshot) (Schedule, []StepEffect) {
	if s.Status != ScheduleRunning {
		return s, nil
	}
	var effects []StepEffect
	steps := s.Steps
	copied := false
	for i := range steps {
		st := steps[i]
		if !st.Enabled || st.Fired {
			continue
		}
		met, ok := st.Condition.met(elapsedMS, cur, prev)
		if !ok || !met {
			continue
		}
		if !copied {
			steps = append([]Step(nil), s.Steps...)
			copied = true
		}
		steps[i].Fired = true
		effects = append(effects, StepEffect{StepID: st.ID, Actions: st.Actions})
	}
	if copied {
		s.Steps = steps
	}
	// The completion check runs even on a pass that fired nothing: a step
	// disabled between passes must stop blocking completion.
	if allFired(steps) {
		s.Status = ScheduleCompleted
	}
	return s, effects
}

// allFired reports whether every enabled step has fired. An empty or
// all-disabled list never counts as complete.
func allFired(steps []Step) bool {
	any := false
	for _, st := range steps {
		if !st.Enabled {
			continue
		}
		any = true
		if !st.Fired {
			return false
		}
	}
	return any
}

// Start arms the schedule. Completed schedules need a Reset first.
func (s Schedule) Start() Schedule {
	if s.Status == ScheduleIdle || s.Status == SchedulePaused {
		s.Status = ScheduleRunning
	}
	return s
}

// Pause suspends evaluation without touching fired flags.
func (s Schedule) Pause() Schedule {
	if s.Status == ScheduleRunning {
		s.Status = SchedulePaused
	}
	return s
}

// Reset clears every fired flag and returns the schedule to idle.
func (s Schedule) Reset() Schedule {
	steps := append([]Step(nil), s.Steps...)
	for i := range steps {
		steps[i].Fired = false
	}
	s.Steps = steps
	s.Status = ScheduleIdle
	return s
}

// AddStep appends a step.
func (s Schedule) AddStep(st Step) Schedule {
	s.Steps = append(append([]Step(nil), s.Steps...), st)
	return s
}

// RemoveStep drops the step with the given id; unknown ids are a no-op.
func (s Schedule) RemoveStep(id string) Schedule {
	i := indexOfStep(s.Steps, id)
	if i < 0 {
		return s
	}
	steps := append([]Step(nil), s.Steps[:i]...)
	s.Steps = append(steps, s.Steps[i+1:]...)
	return s
}

// ToggleStep flips a step's enabled flag; unknown ids are a no-op.
func (s Schedule) ToggleStep(id string) Schedule {
	i := indexOfStep(s.Steps, id)
	if i < 0 {
		return s
	}
	steps := append([]Step(nil), s.Steps...)
	steps[i].Enabled = !steps[i].Enabled
	s.Steps = steps
	return s
}

// UpdateStep replaces the step with the same id; unknown ids are a no-op.
func (s Schedule) UpdateStep(st Step) Schedule {
	i := indexOfStep(s.Steps, st.ID)
	if i < 0 {
		return s
	}
	steps := append([]Step(nil), s.Steps...)
	steps[i] = st
	s.Steps = steps
	return s
}

func indexOfStep(steps []Step, id string) int {
	for i, st := range steps {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// TimeValue is one point of a per-channel time series.
type TimeValue struct {
	TS    int64   `json:"ts"`
	Value float64 `json:"value"`
}

// ImportSeries bulk-builds a schedule from per-channel time series, keyed by
// channel display name. All pairs sharing a timestamp collapse into one
// step, names are mapped to channel ids via lookup (unresolvable names are
// dropped silently), and steps come out sorted ascending by timestamp.
// newID supplies step ids so the caller controls id generation.
func ImportSeries(series map[string][]TimeValue, lookup func(name string) (string, bool), newID func() string) Schedule {
	byTS := make(map[int64][]Action)

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		channel, ok := lookup(name)
		if !ok {
			continue
		}
		for _, tv := range series[name] {
			byTS[tv.TS] = append(byTS[tv.TS], Action{Channel: channel, Value: tv.Value})
		}
	}

	stamps := make([]int64, 0, len(byTS))
	for ts := range byTS {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	steps := make([]Step, 0, len(stamps))
	for _, ts := range stamps {
		steps = append(steps, Step{
			ID:        newID(),
			Condition: AtTime(ts),
			Actions:   byTS[ts],
			Enabled:   true,
		})
	}
	return Schedule{Steps: steps, Status: ScheduleIdle}
}

// ChannelSeries re-derives per-channel time series from the schedule's time
// steps, keyed by channel id. The inverse of ImportSeries modulo step ids
// and the name-to-id mapping.
func (s Schedule) ChannelSeries() map[string][]TimeValue {
	out := make(map[string][]TimeValue)
	for _, st := range s.Steps {
		if st.Condition.Kind != ConditionTime {
			continue
		}
		for _, a := range st.Actions {
			out[a.Channel] = append(out[a.Channel], TimeValue{TS: st.Condition.DeadlineMS, Value: a.Value})
		}
	}
	for ch := range out {
		series := out[ch]
		sort.Slice(series, func(i, j int) bool { return series[i].TS < series[j].TS })
		out[ch] = series
	}
	return out
}

// DisplaySteps returns steps in canonical display order: time steps first,
// ascending by deadline, then threshold steps grouped by watched signal
// and ascending by threshold within each group.
func DisplaySteps(steps []Step) []Step {
	out := append([]Step(nil), steps...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Condition, out[j].Condition
		if a.Kind != b.Kind {
			return a.Kind == ConditionTime
		}
		if a.Kind == ConditionTime {
			return a.DeadlineMS < b.DeadlineMS
		}
		if ka, kb := signalKey(a), signalKey(b); ka != kb {
			return ka < kb
		}
		return a.Threshold < b.Threshold
	})
	return out
}

// signalKey identifies the value a threshold condition watches, so steps on
// the same signal stay adjacent in display order.
func signalKey(c Condition) string {
	if c.Signal == SignalExtra {
		return string(SignalExtra) + ":" + c.Channel
	}
	return string(c.Signal)
}
