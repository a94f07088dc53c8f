package handlers

import (
	"context"

	"roaster_control/internal/models"
	"roaster_control/internal/repository"
	"roaster_control/internal/service"
	"roaster_control/internal/trigger"
)

// ---- Service mocks shared by handler tests ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMachine struct {
	addErr        error
	removeErr     error
	dispatchErr   error
	controlErr    error
	sessionErr    error
	markErr       error
	ids           []string
	lastSession   service.SessionCommand
	lastChannel   string
	lastValue     float64
	lastMilestone models.RoastEventKind
	sessionCalls  int
}

func (m *mockMachine) Add(id string, configs []models.ControlConfig, extras []models.ExtraChannelConfig) error {
	if m.addErr == nil {
		m.ids = append(m.ids, id)
	}
	return m.addErr
}
func (m *mockMachine) Remove(id string) error { return m.removeErr }
func (m *mockMachine) List() []string         { return m.ids }
func (m *mockMachine) Dispatch(ctx context.Context, id string, ev models.Event) error {
	return m.dispatchErr
}
func (m *mockMachine) SetControl(ctx context.Context, id, channel string, value float64) error {
	m.lastChannel, m.lastValue = channel, value
	return m.controlErr
}
func (m *mockMachine) Session(ctx context.Context, id string, cmd service.SessionCommand) error {
	m.sessionCalls++
	m.lastSession = cmd
	return m.sessionErr
}
func (m *mockMachine) Mark(ctx context.Context, id string, kind models.RoastEventKind) error {
	m.lastMilestone = kind
	return m.markErr
}

type mockMonitoring struct {
	state *models.MachineState
	err   error
}

func (m *mockMonitoring) State(ctx context.Context, id string) (*models.MachineState, error) {
	return m.state, m.err
}

type mockAutomation struct {
	schedule trigger.Schedule
	err      error
	stored   []repository.StoredSchedule
	savedID  string
}

func (m *mockAutomation) Schedule(id string) (trigger.Schedule, error) { return m.schedule, m.err }
func (m *mockAutomation) SetSchedule(id string, s trigger.Schedule) error {
	m.schedule = s
	return m.err
}
func (m *mockAutomation) StartSchedule(ctx context.Context, id string) error { return m.err }
func (m *mockAutomation) PauseSchedule(ctx context.Context, id string) error { return m.err }
func (m *mockAutomation) ResetSchedule(ctx context.Context, id string) error { return m.err }
func (m *mockAutomation) Import(id string, series map[string][]trigger.TimeValue) (trigger.Schedule, error) {
	return m.schedule, m.err
}
func (m *mockAutomation) SaveSchedule(ctx context.Context, machineID, name string, s trigger.Schedule) (string, error) {
	return m.savedID, m.err
}
func (m *mockAutomation) LoadSchedule(ctx context.Context, machineID, scheduleID string) error {
	return m.err
}
func (m *mockAutomation) ListSchedules(ctx context.Context, machineID string) ([]repository.StoredSchedule, error) {
	return m.stored, m.err
}
func (m *mockAutomation) DeleteSchedule(ctx context.Context, scheduleID string) error { return m.err }

type mockAlarms struct {
	set     trigger.AlarmSet
	err     error
	stored  []repository.StoredAlarmSet
	savedID string

	silenced    []string
	silencedAll int
}

func (m *mockAlarms) AlarmSet(id string) (trigger.AlarmSet, error)    { return m.set, m.err }
func (m *mockAlarms) SetAlarmSet(id string, a trigger.AlarmSet) error { m.set = a; return m.err }
func (m *mockAlarms) Arm(ctx context.Context, id string) error        { return m.err }
func (m *mockAlarms) Disarm(ctx context.Context, id string) error     { return m.err }
func (m *mockAlarms) ResetAlarms(ctx context.Context, id string) error {
	return m.err
}
func (m *mockAlarms) Silence(ctx context.Context, id, alarmID string) error {
	m.silenced = append(m.silenced, alarmID)
	return m.err
}
func (m *mockAlarms) SilenceAll(ctx context.Context, id string) error {
	m.silencedAll++
	return m.err
}
func (m *mockAlarms) SaveAlarmSet(ctx context.Context, machineID, name string, a trigger.AlarmSet) (string, error) {
	return m.savedID, m.err
}
func (m *mockAlarms) LoadAlarmSet(ctx context.Context, machineID, setID string) error { return m.err }
func (m *mockAlarms) ListAlarmSets(ctx context.Context, machineID string) ([]repository.StoredAlarmSet, error) {
	return m.stored, m.err
}
func (m *mockAlarms) DeleteAlarmSet(ctx context.Context, setID string) error { return m.err }

type mockEventLog struct {
	resp       []models.SystemEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SystemEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}
