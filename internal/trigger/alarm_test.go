package trigger

import (
	"reflect"
	"testing"
)

func beanAlarm(id string, threshold float64, dir Direction) Alarm {
	return Alarm{
		ID:        id,
		Condition: AtThreshold(SignalBeanTemp, "", threshold, dir),
		Sound:     "chime",
		Enabled:   true,
	}
}

func TestAlarmSet_FireOnCrossing(t *testing.T) {
	a := AlarmSet{Alarms: []Alarm{beanAlarm("a", 150, Rising)}, Status: AlarmsArmed}

	a, effects := a.Evaluate(snap(149), snap(148))
	if len(effects) != 0 {
		t.Fatalf("no crossing yet, got %+v", effects)
	}

	a, effects = a.Evaluate(snap(151), snap(149))
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %+v", effects)
	}
	want := AlarmEffect{AlarmID: "a", Sound: "chime"}
	if effects[0] != want {
		t.Fatalf("effect %+v, want %+v", effects[0], want)
	}
	if a.Status != AlarmsCompleted {
		t.Fatalf("single-alarm set should complete, status %s", a.Status)
	}
}

func TestAlarmSet_IdleAndCompletedDoNotEvaluate(t *testing.T) {
	base := AlarmSet{Alarms: []Alarm{beanAlarm("a", 150, Rising)}}
	for _, status := range []AlarmStatus{AlarmsIdle, AlarmsCompleted} {
		a := base
		a.Status = status
		next, effects := a.Evaluate(snap(151), snap(149))
		if len(effects) != 0 || !reflect.DeepEqual(next, a) {
			t.Fatalf("status %s: set evaluated", status)
		}
	}
}

func TestAlarmSet_FiredAlarmStaysSilent(t *testing.T) {
	a := AlarmSet{
		Alarms: []Alarm{beanAlarm("a", 150, Rising), beanAlarm("b", 200, Rising)},
		Status: AlarmsArmed,
	}
	a, _ = a.Evaluate(snap(151), snap(149))
	if !a.Alarms[0].Fired || a.Alarms[1].Fired {
		t.Fatalf("wrong fired flags: %+v", a.Alarms)
	}

	// Signal dips back below and crosses again: still silent.
	a, effects := a.Evaluate(snap(151), snap(149))
	if len(effects) != 0 {
		t.Fatalf("fired alarm fired again: %+v", effects)
	}
	if a.Status != AlarmsArmed {
		t.Fatalf("set completed with an unfired enabled alarm")
	}

	a, effects = a.Evaluate(snap(201), snap(199))
	if len(effects) != 1 || effects[0].AlarmID != "b" {
		t.Fatalf("want alarm b, got %+v", effects)
	}
	if a.Status != AlarmsCompleted {
		t.Fatalf("set should complete, status %s", a.Status)
	}
}

func TestAlarmSet_MissingExtraChannelSkips(t *testing.T) {
	a := AlarmSet{
		Alarms: []Alarm{{
			ID:        "x",
			Condition: AtThreshold(SignalExtra, "Gas", 10, Falling),
			Enabled:   true,
		}},
		Status: AlarmsArmed,
	}
	next, effects := a.Evaluate(Snapshot{}, Snapshot{})
	if len(effects) != 0 || next.Alarms[0].Fired {
		t.Fatalf("missing auxiliary channel must skip, not fire")
	}
}

func TestAlarmSet_LifecycleAndPlayback(t *testing.T) {
	a := AlarmSet{Alarms: []Alarm{beanAlarm("a", 150, Rising)}}

	a = a.Arm()
	if a.Status != AlarmsArmed {
		t.Fatalf("arm: %s", a.Status)
	}
	a = a.SetPlayback("a", "h1")
	if a.Alarms[0].Playback != "h1" {
		t.Fatalf("playback not recorded")
	}
	if got := a.Playing(); !reflect.DeepEqual(got, []string{"h1"}) {
		t.Fatalf("playing: %v", got)
	}

	a = a.Disarm()
	if a.Status != AlarmsIdle || a.Alarms[0].Playback != "" {
		t.Fatalf("disarm must drop playback handles: %+v", a.Alarms[0])
	}

	a = a.Arm()
	a, _ = a.Evaluate(snap(151), snap(149))
	a = a.SetPlayback("a", "h2")
	a = a.Reset()
	if a.Status != AlarmsIdle || a.Alarms[0].Fired || a.Alarms[0].Playback != "" {
		t.Fatalf("reset did not clear: %+v", a.Alarms[0])
	}
}

func TestAlarmSet_Editing(t *testing.T) {
	a := AlarmSet{}
	a = a.AddAlarm(beanAlarm("a", 150, Rising))
	a = a.AddAlarm(beanAlarm("b", 200, Rising))

	for _, op := range []func() AlarmSet{
		func() AlarmSet { return a.RemoveAlarm("missing") },
		func() AlarmSet { return a.ToggleAlarm("missing") },
		func() AlarmSet { return a.UpdateAlarm(beanAlarm("missing", 1, Rising)) },
		func() AlarmSet { return a.SetPlayback("missing", "h") },
		func() AlarmSet { return a.ClearPlayback("missing") },
	} {
		if got := op(); !reflect.DeepEqual(got, a) {
			t.Fatalf("unknown-id op changed the set")
		}
	}

	a = a.SetPlayback("a", "h1")
	updated := beanAlarm("a", 160, Falling)
	a = a.UpdateAlarm(updated)
	if a.Alarms[0].Condition.Threshold != 160 {
		t.Fatalf("update missed: %+v", a.Alarms[0])
	}
	if a.Alarms[0].Playback != "h1" {
		t.Fatalf("update must preserve the playback handle")
	}

	a = a.ToggleAlarm("b")
	if a.Alarms[1].Enabled {
		t.Fatalf("toggle missed")
	}
	a = a.RemoveAlarm("a")
	if len(a.Alarms) != 1 || a.Alarms[0].ID != "b" {
		t.Fatalf("remove wrong: %+v", a.Alarms)
	}
}

func TestAlarmSet_SilenceAll(t *testing.T) {
	a := AlarmSet{
		Alarms: []Alarm{beanAlarm("a", 150, Rising), beanAlarm("b", 200, Rising)},
		Status: AlarmsArmed,
	}
	a = a.SetPlayback("a", "h1")
	a = a.SetPlayback("b", "h2")
	a = a.ClearAllPlayback()
	if len(a.Playing()) != 0 {
		t.Fatalf("handles survived silence all: %v", a.Playing())
	}
	if a.Status != AlarmsArmed {
		t.Fatalf("silencing must not disarm")
	}
}

func TestAlarmSet_DisablingLastUnfiredAlarmCompletes(t *testing.T) {
	a := AlarmSet{
		Alarms: []Alarm{beanAlarm("a1", 150, Rising), beanAlarm("a2", 500, Rising)},
		Status: AlarmsArmed,
	}

	a, effects := a.Evaluate(snap(151), snap(149))
	if len(effects) != 1 || effects[0].AlarmID != "a1" {
		t.Fatalf("effects %v, want only a1", effects)
	}
	if a.Status != AlarmsArmed {
		t.Fatalf("status %s, want ARMED while a2 is pending", a.Status)
	}

	a = a.ToggleAlarm("a2")
	a, effects = a.Evaluate(snap(151), snap(151))
	if len(effects) != 0 {
		t.Fatalf("unexpected effects: %v", effects)
	}
	if a.Status != AlarmsCompleted {
		t.Fatalf("status %s, want COMPLETED", a.Status)
	}
}
