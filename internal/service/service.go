package service

import (
	"context"
	"time"

	"roaster_control/internal/logger"
	"roaster_control/internal/models"
	"roaster_control/internal/repository"
	"roaster_control/internal/trigger"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Machine is the host for per-roaster aggregates: it registers machines,
// feeds decoded inbound events through the reducer in arrival order, runs
// the trigger engines after each telemetry sample, and issues commands.
type Machine interface {
	Add(id string, configs []models.ControlConfig, extras []models.ExtraChannelConfig) error
	Remove(id string) error
	List() []string
	Dispatch(ctx context.Context, id string, ev models.Event) error
	SetControl(ctx context.Context, id, channel string, value float64) error
	Session(ctx context.Context, id string, cmd SessionCommand) error
	Mark(ctx context.Context, id string, kind models.RoastEventKind) error
}

// Monitoring exposes read-only aggregate state.
type Monitoring interface {
	State(ctx context.Context, id string) (*models.MachineState, error)
}

// Automation manages a machine's live schedule and its persistence.
type Automation interface {
	Schedule(id string) (trigger.Schedule, error)
	SetSchedule(id string, s trigger.Schedule) error
	StartSchedule(ctx context.Context, id string) error
	PauseSchedule(ctx context.Context, id string) error
	ResetSchedule(ctx context.Context, id string) error
	Import(id string, series map[string][]trigger.TimeValue) (trigger.Schedule, error)

	SaveSchedule(ctx context.Context, machineID, name string, s trigger.Schedule) (string, error)
	LoadSchedule(ctx context.Context, machineID, scheduleID string) error
	ListSchedules(ctx context.Context, machineID string) ([]repository.StoredSchedule, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
}

// Alarms manages a machine's live alarm set and its persistence.
type Alarms interface {
	AlarmSet(id string) (trigger.AlarmSet, error)
	SetAlarmSet(id string, a trigger.AlarmSet) error
	Arm(ctx context.Context, id string) error
	Disarm(ctx context.Context, id string) error
	ResetAlarms(ctx context.Context, id string) error
	Silence(ctx context.Context, id, alarmID string) error
	SilenceAll(ctx context.Context, id string) error

	SaveAlarmSet(ctx context.Context, machineID, name string, a trigger.AlarmSet) (string, error)
	LoadAlarmSet(ctx context.Context, machineID, setID string) error
	ListAlarmSets(ctx context.Context, machineID string) ([]repository.StoredAlarmSet, error)
	DeleteAlarmSet(ctx context.Context, setID string) error
}

// EventLog exposes the append-only system log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SystemEvent, error)
}

// Simulator runs the background loop standing in for real roaster hardware.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Machine
	Monitoring
	Automation
	Alarms
	EventLog
	Simulator
	Authorization
}

// Config carries wiring knobs that used to hide in package globals.
type Config struct {
	SigningKey string
}

// NewService wires the repository layer into concrete services. The
// simulator doubles as the command sink: control and session commands it
// receives come back as acknowledgement/status events through Dispatch,
// closing the loop the way a real transport would.
func NewService(repos *repository.Repository, cfg Config, log *logger.Logger) *Service {
	machines := NewMachineService(repos.Events, log)
	sim := NewSimulatorService(machines, log)
	machines.SetSink(sim)
	machines.SetNotifier(NewLogNotifier(repos.Events, log))

	return &Service{
		Machine:       machines,
		Monitoring:    NewMonitoringService(machines),
		Automation:    NewAutomationService(machines, repos.Schedules),
		Alarms:        NewAlarmService(machines, repos.AlarmSets),
		EventLog:      NewEventLogService(repos.Events),
		Simulator:     sim,
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey),
	}
}
