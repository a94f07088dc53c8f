package service

import (
	"context"
	"fmt"

	"roaster_control/internal/repository"
	"roaster_control/internal/trigger"

	"github.com/google/uuid"
)

// AlarmService manages the live alarm set attached to each machine and its
// persistence. Evaluation happens inside MachineService on telemetry.
type AlarmService struct {
	machines *MachineService
	sets     repository.AlarmSetRepo
}

func NewAlarmService(machines *MachineService, sets repository.AlarmSetRepo) *AlarmService {
	return &AlarmService{machines: machines, sets: sets}
}

// AlarmSet returns the machine's live alarm set.
func (s *AlarmService) AlarmSet(id string) (trigger.AlarmSet, error) {
	var out trigger.AlarmSet
	err := s.machines.withMachine(id, func(m *machine) error {
		out = m.alarms
		return nil
	})
	return out, err
}

// SetAlarmSet replaces the machine's live alarm set wholesale.
func (s *AlarmService) SetAlarmSet(id string, set trigger.AlarmSet) error {
	return s.machines.withMachine(id, func(m *machine) error {
		m.alarms = set
		return nil
	})
}

// Arm activates the alarm set.
func (s *AlarmService) Arm(ctx context.Context, id string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		m.alarms = m.alarms.Arm()
		s.machines.append(ctx, id, "ALARM", "alarms armed", nil)
		return nil
	})
}

// Disarm deactivates the set and stops every playing sound.
func (s *AlarmService) Disarm(ctx context.Context, id string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		s.stopHandles(ctx, id, m.alarms.Playing())
		m.alarms = m.alarms.Disarm()
		s.machines.append(ctx, id, "ALARM", "alarms disarmed", nil)
		return nil
	})
}

// ResetAlarms clears fired flags and playback handles, stopping any sounds.
func (s *AlarmService) ResetAlarms(ctx context.Context, id string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		s.stopHandles(ctx, id, m.alarms.Playing())
		m.alarms = m.alarms.Reset()
		s.machines.append(ctx, id, "ALARM", "alarms reset", nil)
		return nil
	})
}

// Silence stops one alarm's sound and drops its handle; unknown ids are a
// no-op, matching the container semantics.
func (s *AlarmService) Silence(ctx context.Context, id, alarmID string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		for _, al := range m.alarms.Alarms {
			if al.ID == alarmID && al.Playback != "" {
				s.stopHandles(ctx, id, []string{al.Playback})
			}
		}
		m.alarms = m.alarms.ClearPlayback(alarmID)
		return nil
	})
}

// SilenceAll stops every playing alarm sound.
func (s *AlarmService) SilenceAll(ctx context.Context, id string) error {
	return s.machines.withMachine(id, func(m *machine) error {
		s.stopHandles(ctx, id, m.alarms.Playing())
		m.alarms = m.alarms.ClearAllPlayback()
		return nil
	})
}

func (s *AlarmService) stopHandles(ctx context.Context, machineID string, handles []string) {
	n := s.machines.notifier
	if n == nil {
		return
	}
	for _, h := range handles {
		if err := n.Stop(ctx, machineID, h); err != nil && s.machines.log != nil {
			s.machines.log.Errorw("alarm_stop_failed", "machine", machineID, "handle", h, "err", err)
		}
	}
}

// SaveAlarmSet persists the given alarm set.
func (s *AlarmService) SaveAlarmSet(ctx context.Context, machineID, name string, set trigger.AlarmSet) (string, error) {
	id := uuid.NewString()
	err := s.sets.Save(ctx, repository.StoredAlarmSet{
		ID:        id,
		MachineID: machineID,
		Name:      name,
		Alarms:    set.Alarms,
	})
	if err != nil {
		return "", fmt.Errorf("save alarm set %q: %w", name, err)
	}
	return id, nil
}

// LoadAlarmSet installs a stored alarm set as the machine's live set, idle
// and unfired.
func (s *AlarmService) LoadAlarmSet(ctx context.Context, machineID, setID string) error {
	stored, err := s.sets.Get(ctx, setID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("alarm set %s not found", setID)
	}
	return s.SetAlarmSet(machineID, trigger.AlarmSet{
		Name:   stored.Name,
		Alarms: stored.Alarms,
		Status: trigger.AlarmsIdle,
	})
}

func (s *AlarmService) ListAlarmSets(ctx context.Context, machineID string) ([]repository.StoredAlarmSet, error) {
	return s.sets.List(ctx, machineID)
}

func (s *AlarmService) DeleteAlarmSet(ctx context.Context, setID string) error {
	return s.sets.Delete(ctx, setID)
}
