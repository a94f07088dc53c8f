package service

import (
	"context"
	"fmt"

	"roaster_control/internal/repository"
	"roaster_control/internal/trigger"

	"github.com/google/uuid"
)

// AutomationService manages the live schedule attached to each machine and
// its persistence. The trigger engine itself runs inside MachineService on
// every telemetry sample; this service only swaps and steers containers.
type AutomationService struct {
	machines  *MachineService
	schedules repository.ScheduleRepo
}

func NewAutomationService(machines *MachineService, schedules repository.ScheduleRepo) *AutomationService {
	return &AutomationService{machines: machines, schedules: schedules}
}

// Schedule returns the machine's live schedule.
func (s *AutomationService) Schedule(id string) (trigger.Schedule, error) {
	var out trigger.Schedule
	err := s.machines.withMachine(id, func(m *machine) error {
		out = m.schedule
		return nil
	})
	return out, err
}

// SetSchedule replaces the machine's live schedule wholesale.
func (s *AutomationService) SetSchedule(id string, sched trigger.Schedule) error {
	return s.machines.withMachine(id, func(m *machine) error {
		m.schedule = sched
		return nil
	})
}

// StartSchedule arms the live schedule so the next telemetry passes
// evaluate it.
func (s *AutomationService) StartSchedule(ctx context.Context, id string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		m.schedule = m.schedule.Start()
		s.machines.append(ctx, id, "AUTOMATION", "schedule started", nil)
		return nil
	})
}

// PauseSchedule suspends evaluation; fired flags are kept.
func (s *AutomationService) PauseSchedule(ctx context.Context, id string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		m.schedule = m.schedule.Pause()
		s.machines.append(ctx, id, "AUTOMATION", "schedule paused", nil)
		return nil
	})
}

// ResetSchedule clears every fired flag and returns the schedule to idle.
// This is also how automation is "cancelled": synchronous and immediate.
func (s *AutomationService) ResetSchedule(ctx context.Context, id string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		m.schedule = m.schedule.Reset()
		s.machines.append(ctx, id, "AUTOMATION", "schedule reset", nil)
		return nil
	})
}

// Import bulk-builds a schedule from per-channel time series keyed by
// control display name, installs it as the live schedule and returns it.
// Names that match no configured control are dropped silently.
func (s *AutomationService) Import(id string, series map[string][]trigger.TimeValue) (trigger.Schedule, error) {
	var out trigger.Schedule
	err := s.machines.withMachine(id, func(m *machine) error {
		lookup := func(name string) (string, bool) {
			cfg, ok := m.state.ControlByName(name)
			if !ok {
				return "", false
			}
			return cfg.Channel, true
		}
		out = trigger.ImportSeries(series, lookup, uuid.NewString)
		m.schedule = out
		return nil
	})
	return out, err
}

// SaveSchedule persists the machine's schedule under a new or existing id.
func (s *AutomationService) SaveSchedule(ctx context.Context, machineID, name string, sched trigger.Schedule) (string, error) {
	id := uuid.NewString()
	err := s.schedules.Save(ctx, repository.StoredSchedule{
		ID:        id,
		MachineID: machineID,
		Name:      name,
		Steps:     sched.Steps,
	})
	if err != nil {
		return "", fmt.Errorf("save schedule %q: %w", name, err)
	}
	return id, nil
}

// LoadSchedule installs a stored schedule as the machine's live schedule,
// idle and unfired.
func (s *AutomationService) LoadSchedule(ctx context.Context, machineID, scheduleID string) error {
	stored, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("schedule %s not found", scheduleID)
	}
	return s.SetSchedule(machineID, trigger.Schedule{
		Name:   stored.Name,
		Steps:  stored.Steps,
		Status: trigger.ScheduleIdle,
	})
}

func (s *AutomationService) ListSchedules(ctx context.Context, machineID string) ([]repository.StoredSchedule, error) {
	return s.schedules.List(ctx, machineID)
}

func (s *AutomationService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return s.schedules.Delete(ctx, scheduleID)
}
