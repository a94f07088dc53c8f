package repository

import (
	"context"
	"database/sql"
	"time"

	"roaster_control/internal/models"
	"roaster_control/internal/trigger"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StoredSchedule is a persisted automation schedule. Fired flags and
// container status are runtime state and are not stored; loading always
// yields an idle schedule.
type StoredSchedule struct {
	ID        string         `json:"id"`
	MachineID string         `json:"machine_id"`
	Name      string         `json:"name"`
	Steps     []trigger.Step `json:"steps"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StoredAlarmSet is a persisted alarm set. Playback handles are ephemeral
// and never stored.
type StoredAlarmSet struct {
	ID        string          `json:"id"`
	MachineID string          `json:"machine_id"`
	Name      string          `json:"name"`
	Alarms    []trigger.Alarm `json:"alarms"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ScheduleRepo interface {
	Save(ctx context.Context, s StoredSchedule) error
	Get(ctx context.Context, id string) (*StoredSchedule, error)
	List(ctx context.Context, machineID string) ([]StoredSchedule, error)
	Delete(ctx context.Context, id string) error
}

type AlarmSetRepo interface {
	Save(ctx context.Context, a StoredAlarmSet) error
	Get(ctx context.Context, id string) (*StoredAlarmSet, error)
	List(ctx context.Context, machineID string) ([]StoredAlarmSet, error)
	Delete(ctx context.Context, id string) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.SystemEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SystemEvent, error)
}

type Repository struct {
	Schedules ScheduleRepo
	AlarmSets AlarmSetRepo
	Events    EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Schedules: NewScheduleSQLite(db),
		AlarmSets: NewAlarmSetSQLite(db),
		Events:    NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
