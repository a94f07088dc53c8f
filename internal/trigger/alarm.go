package trigger

// AlarmStatus is the lifecycle of an AlarmSet container.
type AlarmStatus string

const (
	AlarmsIdle      AlarmStatus = "IDLE"
	AlarmsArmed     AlarmStatus = "ARMED"
	AlarmsCompleted AlarmStatus = "COMPLETED"
)

// Alarm is one sensor alarm: a threshold condition plus a notification
// directive. Playback is the ephemeral handle of a sound currently playing
// for this alarm; it is host state, never persisted with the definition.
type Alarm struct {
	ID        string    `json:"id"`
	Condition Condition `json:"condition"`
	Sound     string    `json:"sound"`
	Repeat    bool      `json:"repeat"`
	Enabled   bool      `json:"enabled"`
	Fired     bool      `json:"fired"`
	Playback  string    `json:"-"`
}

// AlarmSet is an ordered set of alarms sharing the schedule's crossing and
// completion semantics, with ARMED as the active status.
type AlarmSet struct {
	Name   string      `json:"name"`
	Alarms []Alarm     `json:"alarms"`
	Status AlarmStatus `json:"status"`
}

// AlarmEffect is the fired outcome of one alarm: what the host should play.
type AlarmEffect struct {
	AlarmID string
	Sound   string
	Repeat  bool
}

// Evaluate runs one crossing-detection pass over an armed set. Same rules
// as Schedule.Evaluate: disabled/fired alarms are skipped and left alone,
// unresolvable signals skip silently, several alarms may fire in one pass,
// and the set completes once every enabled alarm has fired.
func (a AlarmSet) Evaluate(cur, prev Snapshot) (AlarmSet, []AlarmEffect) {
	if a.Status != AlarmsArmed {
		return a, nil
	}
	var effects []AlarmEffect
	alarms := a.Alarms
	copied := false
	for i := range alarms {
		al := alarms[i]
		if !al.Enabled || al.Fired {
			continue
		}
		met, ok := al.Condition.met(0, cur, prev)
		if !ok || !met {
			continue
		}
		if !copied {
			alarms = append([]Alarm(nil), a.Alarms...)
			copied = true
		}
		alarms[i].Fired = true
		effects = append(effects, AlarmEffect{AlarmID: al.ID, Sound: al.Sound, Repeat: al.Repeat})
	}
	if copied {
		a.Alarms = alarms
	}
	// Completion is checked even when nothing fired this pass, so an alarm
	// disabled between passes stops blocking it.
	if allAlarmsFired(alarms) {
		a.Status = AlarmsCompleted
	}
	return a, effects
}

func allAlarmsFired(alarms []Alarm) bool {
	any := false
	for _, al := range alarms {
		if !al.Enabled {
			continue
		}
		any = true
		if !al.Fired {
			return false
		}
	}
	return any
}

// Arm activates evaluation. Completed sets need a Reset first.
func (a AlarmSet) Arm() AlarmSet {
	if a.Status == AlarmsIdle {
		a.Status = AlarmsArmed
	}
	return a
}

// Disarm deactivates the set and drops every playback handle, so the host
// can stop all sounds in the same motion.
func (a AlarmSet) Disarm() AlarmSet {
	if a.Status != AlarmsArmed {
		return a
	}
	a.Status = AlarmsIdle
	a.Alarms = clearPlayback(a.Alarms)
	return a
}

// Reset clears every fired flag and playback handle and returns to idle.
func (a AlarmSet) Reset() AlarmSet {
	alarms := append([]Alarm(nil), a.Alarms...)
	for i := range alarms {
		alarms[i].Fired = false
		alarms[i].Playback = ""
	}
	a.Alarms = alarms
	a.Status = AlarmsIdle
	return a
}

// SetPlayback records the handle of the sound the host started for an
// alarm; unknown ids are a no-op.
func (a AlarmSet) SetPlayback(id, handle string) AlarmSet {
	i := indexOfAlarm(a.Alarms, id)
	if i < 0 {
		return a
	}
	alarms := append([]Alarm(nil), a.Alarms...)
	alarms[i].Playback = handle
	a.Alarms = alarms
	return a
}

// ClearPlayback drops one alarm's handle; unknown ids are a no-op.
func (a AlarmSet) ClearPlayback(id string) AlarmSet {
	i := indexOfAlarm(a.Alarms, id)
	if i < 0 {
		return a
	}
	alarms := append([]Alarm(nil), a.Alarms...)
	alarms[i].Playback = ""
	a.Alarms = alarms
	return a
}

// ClearAllPlayback drops every handle, for "silence all".
func (a AlarmSet) ClearAllPlayback() AlarmSet {
	a.Alarms = clearPlayback(a.Alarms)
	return a
}

// Playing returns the non-empty playback handles, in definition order.
func (a AlarmSet) Playing() []string {
	var out []string
	for _, al := range a.Alarms {
		if al.Playback != "" {
			out = append(out, al.Playback)
		}
	}
	return out
}

// AddAlarm appends an alarm definition.
func (a AlarmSet) AddAlarm(al Alarm) AlarmSet {
	a.Alarms = append(append([]Alarm(nil), a.Alarms...), al)
	return a
}

// RemoveAlarm drops the alarm with the given id; unknown ids are a no-op.
func (a AlarmSet) RemoveAlarm(id string) AlarmSet {
	i := indexOfAlarm(a.Alarms, id)
	if i < 0 {
		return a
	}
	alarms := append([]Alarm(nil), a.Alarms[:i]...)
	a.Alarms = append(alarms, a.Alarms[i+1:]...)
	return a
}

// ToggleAlarm flips an alarm's enabled flag; unknown ids are a no-op.
func (a AlarmSet) ToggleAlarm(id string) AlarmSet {
	i := indexOfAlarm(a.Alarms, id)
	if i < 0 {
		return a
	}
	alarms := append([]Alarm(nil), a.Alarms...)
	alarms[i].Enabled = !alarms[i].Enabled
	a.Alarms = alarms
	return a
}

// UpdateAlarm replaces the alarm with the same id, preserving its playback
// handle; unknown ids are a no-op.
func (a AlarmSet) UpdateAlarm(al Alarm) AlarmSet {
	i := indexOfAlarm(a.Alarms, al.ID)
	if i < 0 {
		return a
	}
	alarms := append([]Alarm(nil), a.Alarms...)
	al.Playback = alarms[i].Playback
	alarms[i] = al
	a.Alarms = alarms
	return a
}

func indexOfAlarm(alarms []Alarm, id string) int {
	for i, al := range alarms {
		if al.ID == id {
			return i
		}
	}
	return -1
}

func clearPlayback(alarms []Alarm) []Alarm {
	out := append([]Alarm(nil), alarms...)
	for i := range out {
		out[i].Playback = ""
	}
	return out
}
