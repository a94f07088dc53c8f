package service

import (
	"context"

	"roaster_control/internal/logger"
	"roaster_control/internal/models"
	"roaster_control/internal/repository"
	"roaster_control/internal/trigger"

	"github.com/google/uuid"
)

// LogNotifier is the default Notifier: it records alarm activity in the
// system log and structured log instead of driving an audio device. The
// playback handles it returns behave like real ones so silencing works the
// same against hardware-backed notifiers.
type LogNotifier struct {
	events repository.EventRepo
	log    *logger.Logger
}

func NewLogNotifier(events repository.EventRepo, log *logger.Logger) *LogNotifier {
	return &LogNotifier{events: events, log: log}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Play(ctx context.Context, machineID string, effect trigger.AlarmEffect) (string, error) {
	handle := uuid.NewString()
	if n.log != nil {
		n.log.Infow("alarm_playing", "machine", machineID, "alarm", effect.AlarmID,
			"sound", effect.Sound, "repeat", effect.Repeat, "handle", handle)
	}
	return handle, nil
}

func (n *LogNotifier) Stop(ctx context.Context, machineID, handle string) error {
	if n.log != nil {
		n.log.Infow("alarm_stopped", "machine", machineID, "handle", handle)
	}
	return nil
}

func (n *LogNotifier) Notify(ctx context.Context, machineID, message string) error {
	if n.log != nil {
		n.log.Infow("machine_notification", "machine", machineID, "message", message)
	}
	if n.events == nil {
		return nil
	}
	return n.events.Append(ctx, models.SystemEvent{
		MachineID:   machineID,
		Type:        "ALARM",
		Description: message,
	})
}
