package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"roaster_control/internal/models"
	"roaster_control/internal/trigger"
)

type sentControl struct {
	machineID string
	cmd       models.ControlCommand
}

type fakeSink struct {
	controls   []sentControl
	sessions   []SessionCommand
	controlErr error
	sessionErr error
}

func (f *fakeSink) SendControl(_ context.Context, machineID string, cmd models.ControlCommand) error {
	if f.controlErr != nil {
		return f.controlErr
	}
	f.controls = append(f.controls, sentControl{machineID, cmd})
	return nil
}

func (f *fakeSink) SendSession(_ context.Context, _ string, cmd SessionCommand) error {
	if f.sessionErr != nil {
		return f.sessionErr
	}
	f.sessions = append(f.sessions, cmd)
	return nil
}

type fakeNotifier struct {
	played   []trigger.AlarmEffect
	stopped  []string
	notified []string
	handle   string
	playErr  error
}

func (f *fakeNotifier) Play(_ context.Context, _ string, eff trigger.AlarmEffect) (string, error) {
	if f.playErr != nil {
		return "", f.playErr
	}
	f.played = append(f.played, eff)
	return f.handle, nil
}

func (f *fakeNotifier) Stop(_ context.Context, _, handle string) error {
	f.stopped = append(f.stopped, handle)
	return nil
}

func (f *fakeNotifier) Notify(_ context.Context, _, message string) error {
	f.notified = append(f.notified, message)
	return nil
}

type fakeEventRepo struct {
	events []models.SystemEvent
}

func (f *fakeEventRepo) Append(_ context.Context, ev models.SystemEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEventRepo) List(_ context.Context, _, _ time.Time, _ string) ([]models.SystemEvent, error) {
	return f.events, nil
}

func (f *fakeEventRepo) typesLogged() []string {
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

func testConfigs() []models.ControlConfig {
	return []models.ControlConfig{
		{Name: "Burner", Channel: "burner", Min: 0, Max: 100, Step: 1, Unit: "%"},
		{Name: "Drum", Channel: "drum", Min: 20, Max: 80, Step: 1, Unit: "rpm"},
	}
}

func newTestService() (*MachineService, *fakeSink, *fakeNotifier, *fakeEventRepo) {
	events := &fakeEventRepo{}
	sink := &fakeSink{}
	notifier := &fakeNotifier{handle: "h1"}
	ms := NewMachineService(events, nil)
	ms.SetSink(sink)
	ms.SetNotifier(notifier)
	_ = ms.Add("r1", testConfigs(), nil)
	return ms, sink, notifier, events
}

func feed(t *testing.T, ms *MachineService, ts int64, bean float64) {
	t.Helper()
	ev := models.TemperatureEvent{Sample: models.TemperaturePoint{TS: ts, BeanTemp: bean, EnvTemp: bean + 30}}
	if err := ms.Dispatch(context.Background(), "r1", ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

func TestMachineService_AddRemoveList(t *testing.T) {
	ms := NewMachineService(nil, nil)
	if err := ms.Add("r1", testConfigs(), nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ms.Add("r1", testConfigs(), nil); !errors.Is(err, ErrMachineExists) {
		t.Fatalf("duplicate add: %v", err)
	}
	if got := ms.List(); len(got) != 1 || got[0] != "r1" {
		t.Fatalf("list: %v", got)
	}
	if err := ms.Remove("r1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := ms.Remove("r1"); !errors.Is(err, ErrMachineNotFound) {
		t.Fatalf("second remove: %v", err)
	}
	if _, err := ms.State("r1"); !errors.Is(err, ErrMachineNotFound) {
		t.Fatalf("state after remove: %v", err)
	}
}

func TestMachineService_ScheduleFiresNormalizedCommand(t *testing.T) {
	ms, sink, _, events := newTestService()
	auto := NewAutomationService(ms, nil)

	sched := trigger.Schedule{
		Steps: []trigger.Step{{
			ID:        "s1",
			Condition: trigger.AtThreshold(trigger.SignalBeanTemp, "", 150, trigger.Rising),
			Actions:   []trigger.Action{{Channel: "burner", Value: 40}},
			Enabled:   true,
		}},
	}
	if err := auto.SetSchedule("r1", sched); err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	if err := auto.StartSchedule(context.Background(), "r1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	feed(t, ms, 1000, 149)
	if len(sink.controls) != 0 {
		t.Fatalf("first sample has no baseline, nothing may fire")
	}
	feed(t, ms, 2000, 151)
	if len(sink.controls) != 1 {
		t.Fatalf("expected one command, got %+v", sink.controls)
	}
	got := sink.controls[0]
	if got.machineID != "r1" || got.cmd.Channel != "burner" || got.cmd.Value != 0.4 {
		t.Fatalf("command wrong: %+v", got)
	}

	live, _ := auto.Schedule("r1")
	if live.Status != trigger.ScheduleCompleted {
		t.Fatalf("schedule not completed: %s", live.Status)
	}

	found := false
	for _, typ := range events.typesLogged() {
		if typ == "AUTOMATION" {
			found = true
		}
	}
	if !found {
		t.Fatalf("automation event not logged: %v", events.typesLogged())
	}
}

func TestMachineService_StepWithUnknownChannelSkipped(t *testing.T) {
	ms, sink, _, _ := newTestService()
	auto := NewAutomationService(ms, nil)

	sched := trigger.Schedule{
		Steps: []trigger.Step{{
			ID:        "s1",
			Condition: trigger.AtTime(0),
			Actions:   []trigger.Action{{Channel: "gone", Value: 1}},
			Enabled:   true,
		}},
	}
	_ = auto.SetSchedule("r1", sched)
	_ = auto.StartSchedule(context.Background(), "r1")

	feed(t, ms, 0, 100)
	feed(t, ms, 1000, 100)
	if len(sink.controls) != 0 {
		t.Fatalf("unknown channel must be skipped, got %+v", sink.controls)
	}
	live, _ := auto.Schedule("r1")
	if !live.Steps[0].Fired {
		t.Fatalf("step must still count as fired")
	}
}

func TestMachineService_AlarmFiresAndTracksPlayback(t *testing.T) {
	ms, _, notifier, _ := newTestService()
	alarms := NewAlarmService(ms, nil)

	set := trigger.AlarmSet{
		Alarms: []trigger.Alarm{{
			ID:        "a1",
			Condition: trigger.AtThreshold(trigger.SignalBeanTemp, "", 150, trigger.Rising),
			Sound:     "chime",
			Enabled:   true,
		}},
	}
	if err := alarms.SetAlarmSet("r1", set); err != nil {
		t.Fatalf("set alarms: %v", err)
	}
	if err := alarms.Arm(context.Background(), "r1"); err != nil {
		t.Fatalf("arm: %v", err)
	}

	feed(t, ms, 1000, 149)
	feed(t, ms, 2000, 151)

	if len(notifier.played) != 1 || notifier.played[0].AlarmID != "a1" {
		t.Fatalf("alarm sound not played: %+v", notifier.played)
	}
	live, _ := alarms.AlarmSet("r1")
	if live.Alarms[0].Playback != "h1" {
		t.Fatalf("playback handle not tracked: %+v", live.Alarms[0])
	}

	if err := alarms.Silence(context.Background(), "r1", "a1"); err != nil {
		t.Fatalf("silence: %v", err)
	}
	if len(notifier.stopped) != 1 || notifier.stopped[0] != "h1" {
		t.Fatalf("sound not stopped: %v", notifier.stopped)
	}
	live, _ = alarms.AlarmSet("r1")
	if live.Alarms[0].Playback != "" {
		t.Fatalf("handle not cleared")
	}
}

func TestMachineService_DisarmStopsAllSounds(t *testing.T) {
	ms, _, notifier, _ := newTestService()
	alarms := NewAlarmService(ms, nil)

	set := trigger.AlarmSet{
		Alarms: []trigger.Alarm{
			{ID: "a1", Condition: trigger.AtThreshold(trigger.SignalBeanTemp, "", 150, trigger.Rising), Sound: "s", Enabled: true},
			{ID: "a2", Condition: trigger.AtThreshold(trigger.SignalBeanTemp, "", 160, trigger.Rising), Sound: "s", Enabled: true},
		},
	}
	_ = alarms.SetAlarmSet("r1", set)
	_ = alarms.Arm(context.Background(), "r1")

	feed(t, ms, 1000, 140)
	feed(t, ms, 2000, 170) // crosses both in one pass

	if len(notifier.played) != 2 {
		t.Fatalf("both alarms should fire: %+v", notifier.played)
	}
	if err := alarms.Disarm(context.Background(), "r1"); err != nil {
		t.Fatalf("disarm: %v", err)
	}
	if len(notifier.stopped) != 2 {
		t.Fatalf("disarm must stop every sound: %v", notifier.stopped)
	}
	live, _ := alarms.AlarmSet("r1")
	if live.Status != trigger.AlarmsIdle || len(live.Playing()) != 0 {
		t.Fatalf("disarm state wrong: %+v", live)
	}
}

func TestMachineService_MonitoringEntryResetsBaseline(t *testing.T) {
	ms, sink, _, _ := newTestService()
	auto := NewAutomationService(ms, nil)

	sched := trigger.Schedule{
		Steps: []trigger.Step{{
			ID:        "s1",
			Condition: trigger.AtThreshold(trigger.SignalBeanTemp, "", 150, trigger.Rising),
			Actions:   []trigger.Action{{Channel: "burner", Value: 40}},
			Enabled:   true,
		}},
	}
	_ = auto.SetSchedule("r1", sched)
	_ = auto.StartSchedule(context.Background(), "r1")

	feed(t, ms, 1000, 149)
	if err := ms.Dispatch(context.Background(), "r1", models.StatusEvent{Status: models.SessionMonitoring}); err != nil {
		t.Fatalf("status: %v", err)
	}
	// First sample of the new phase must not pair with the pre-phase sample.
	feed(t, ms, 0, 151)
	if len(sink.controls) != 0 {
		t.Fatalf("crossing detected across a phase boundary: %+v", sink.controls)
	}
}

func TestMachineService_SetControl(t *testing.T) {
	ms, sink, _, events := newTestService()

	if err := ms.SetControl(context.Background(), "r1", "nope", 1); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("unknown channel: %v", err)
	}

	if err := ms.SetControl(context.Background(), "r1", "drum", 50); err != nil {
		t.Fatalf("set control: %v", err)
	}
	if len(sink.controls) != 1 {
		t.Fatalf("command not sent")
	}
	// drum range 20..80: native 50 -> wire 0.5
	if got := sink.controls[0].cmd; got.Channel != "drum" || got.Value != 0.5 {
		t.Fatalf("normalized command wrong: %+v", got)
	}

	st, _ := ms.State("r1")
	if cv, ok := st.Snapshot["drum"]; !ok || cv.Value != 50 {
		t.Fatalf("local input not reflected in snapshot: %+v", st.Snapshot)
	}

	found := false
	for _, typ := range events.typesLogged() {
		if typ == "CONTROL" {
			found = true
		}
	}
	if !found {
		t.Fatalf("control event not logged")
	}
}

func TestMachineService_SessionForwardsCommand(t *testing.T) {
	ms, sink, _, _ := newTestService()

	if err := ms.Session(context.Background(), "r1", CmdStartMonitoring); err != nil {
		t.Fatalf("session: %v", err)
	}
	if len(sink.sessions) != 1 || sink.sessions[0] != CmdStartMonitoring {
		t.Fatalf("command not forwarded: %v", sink.sessions)
	}
	// Status changes only on the machine's reply, never synchronously.
	st, _ := ms.State("r1")
	if st.Status != models.SessionIdle {
		t.Fatalf("status changed without a status event: %s", st.Status)
	}

	if err := ms.Session(context.Background(), "nope", CmdReset); !errors.Is(err, ErrMachineNotFound) {
		t.Fatalf("unknown machine: %v", err)
	}
}

func TestMachineService_MarkUsesLastSample(t *testing.T) {
	ms, _, _, _ := newTestService()
	_ = ms.Dispatch(context.Background(), "r1", models.StatusEvent{Status: models.SessionMonitoring})
	feed(t, ms, 5000, 180)

	if err := ms.Mark(context.Background(), "r1", models.EventFCStart); err != nil {
		t.Fatalf("mark: %v", err)
	}
	st, _ := ms.State("r1")
	if len(st.Events) != 1 {
		t.Fatalf("milestone not recorded")
	}
	ev := st.Events[0]
	if ev.Kind != models.EventFCStart || ev.TS != 5000 || ev.BeanTemp != 180 || ev.Auto {
		t.Fatalf("milestone wrong: %+v", ev)
	}
}

func TestMachineService_NotifyPassThrough(t *testing.T) {
	ms, _, notifier, _ := newTestService()
	if err := ms.Dispatch(context.Background(), "r1", models.AlarmNotifyEvent{Message: "door open"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != "door open" {
		t.Fatalf("notify not forwarded: %v", notifier.notified)
	}
}

func TestNormalizeDenormalize(t *testing.T) {
	cfg := models.ControlConfig{Channel: "drum", Min: 20, Max: 80}
	cases := []struct {
		native float64
		wire   float64
	}{
		{20, 0},
		{50, 0.5},
		{80, 1},
	}
	for _, c := range cases {
		if got := Normalize(cfg, c.native); got != c.wire {
			t.Fatalf("Normalize(%v) = %v, want %v", c.native, got, c.wire)
		}
		if got := Denormalize(cfg, c.wire); got != c.native {
			t.Fatalf("Denormalize(%v) = %v, want %v", c.wire, got, c.native)
		}
	}
	if got := Normalize(cfg, -10); got != 0 {
		t.Fatalf("below min must clamp to 0, got %v", got)
	}
	if got := Normalize(cfg, 200); got != 1 {
		t.Fatalf("above max must clamp to 1, got %v", got)
	}
	if got := Normalize(models.ControlConfig{Min: 5, Max: 5}, 5); got != 0 {
		t.Fatalf("degenerate range must yield 0, got %v", got)
	}
}
