package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"roaster_control/internal/logger"
	"roaster_control/internal/models"
	"roaster_control/internal/repository"
	"roaster_control/internal/roast"
	"roaster_control/internal/trigger"
)

var (
	ErrMachineExists   = errors.New("machine already registered")
	ErrMachineNotFound = errors.New("machine not found")
	ErrUnknownChannel  = errors.New("unknown control channel")
	ErrNoSink          = errors.New("no command sink attached")
)

// CommandSink carries outbound commands to the wire. Control values are
// already normalized to [0,1] when they reach the sink.
type CommandSink interface {
	SendControl(ctx context.Context, machineID string, cmd models.ControlCommand) error
	SendSession(ctx context.Context, machineID string, cmd SessionCommand) error
}

// Notifier handles alarm sounds and pass-through notifications. Injected so
// tests and concurrent machine sets never share hidden state.
type Notifier interface {
	Play(ctx context.Context, machineID string, effect trigger.AlarmEffect) (string, error)
	Stop(ctx context.Context, machineID, handle string) error
	Notify(ctx context.Context, machineID, message string) error
}

// machine bundles one aggregate with its automation containers and the
// previous trigger snapshot. The mutex serializes dispatch per machine; the
// core underneath stays pure and lock-free.
type machine struct {
	mu       sync.Mutex
	state    *models.MachineState
	schedule trigger.Schedule
	alarms   trigger.AlarmSet
	prev     trigger.Snapshot
	havePrev bool
}

// MachineService owns every registered machine. Aggregates are independent:
// events for different machines never contend on the same lock.
type MachineService struct {
	mu       sync.RWMutex
	machines map[string]*machine

	sink     CommandSink
	notifier Notifier
	events   repository.EventRepo
	log      *logger.Logger
}

func NewMachineService(events repository.EventRepo, log *logger.Logger) *MachineService {
	return &MachineService{
		machines: make(map[string]*machine),
		events:   events,
		log:      log,
	}
}

// SetSink attaches the outbound command sink. Done post-construction because
// the simulator sink needs the service itself to deliver replies.
func (s *MachineService) SetSink(sink CommandSink) { s.sink = sink }

// SetNotifier attaches the alarm notifier.
func (s *MachineService) SetNotifier(n Notifier) { s.notifier = n }

// Add registers a machine with its immutable channel configuration.
func (s *MachineService) Add(id string, configs []models.ControlConfig, extras []models.ExtraChannelConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.machines[id]; ok {
		return fmt.Errorf("%w: %s", ErrMachineExists, id)
	}
	s.machines[id] = &machine{state: models.NewMachineState(id, configs, extras)}
	if s.log != nil {
		s.log.Infow("machine_added", "machine", id, "controls", len(configs))
	}
	return nil
}

// Remove destroys a machine's aggregate.
func (s *MachineService) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.machines[id]; !ok {
		return fmt.Errorf("%w: %s", ErrMachineNotFound, id)
	}
	delete(s.machines, id)
	return nil
}

// List returns the registered machine ids.
func (s *MachineService) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.machines))
	for id := range s.machines {
		out = append(out, id)
	}
	return out
}

func (s *MachineService) get(id string) (*machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.machines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, id)
	}
	return m, nil
}

// State returns the current aggregate. The pointer is safe to hand out: the
// reducer never mutates a published state, it replaces it.
func (s *MachineService) State(id string) (*models.MachineState, error) {
	m, err := s.get(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

// Dispatch feeds one decoded inbound event through the reducer and, for
// telemetry, through both trigger engines. Events for one machine must
// arrive in order; the per-machine lock preserves that order end to end.
func (s *MachineService) Dispatch(ctx context.Context, id string, ev models.Event) error {
	m, err := s.get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.state
	m.state = roast.Reduce(m.state, ev)

	switch e := ev.(type) {
	case models.TemperatureEvent:
		s.evaluateTriggers(ctx, id, m)
	case models.StatusEvent:
		if before.Status != m.state.Status {
			if m.state.Status == models.SessionMonitoring {
				// Fresh buffers, fresh crossing baseline.
				m.havePrev = false
			}
			s.append(ctx, id, "SESSION", "session status changed to "+string(e.Status), nil)
		}
	case models.AlarmNotifyEvent:
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, id, e.Message); err != nil && s.log != nil {
				s.log.Errorw("alarm_notify_failed", "machine", id, "err", err)
			}
		}
	case models.ErrorEvent:
		s.append(ctx, id, "ERROR", e.Message, nil)
	}
	return nil
}

// evaluateTriggers runs one crossing pass with the previous and current
// signal snapshots. Elapsed time for time triggers is the sample clock,
// which the transport guarantees monotonic within a session.
func (s *MachineService) evaluateTriggers(ctx context.Context, id string, m *machine) {
	if m.state.LastSample == nil {
		return
	}
	cur := trigger.SnapshotFrom(*m.state.LastSample, m.state.Readback)
	if m.havePrev {
		elapsed := m.state.LastSample.TS

		sched, fired := m.schedule.Evaluate(elapsed, cur, m.prev)
		m.schedule = sched
		for _, eff := range fired {
			s.applyStepEffect(ctx, id, m, eff)
		}

		alarms, triggered := m.alarms.Evaluate(cur, m.prev)
		m.alarms = alarms
		for _, eff := range triggered {
			s.fireAlarm(ctx, id, m, eff)
		}
	}
	m.prev = cur
	m.havePrev = true
}

// applyStepEffect turns a fired step's native-scale actions into normalized
// wire commands, one per channel. Channels that no longer exist in the
// machine's configuration are skipped; schedules and configs drift apart
// legitimately.
func (s *MachineService) applyStepEffect(ctx context.Context, id string, m *machine, eff trigger.StepEffect) {
	for _, a := range eff.Actions {
		cfg, ok := m.state.ControlByChannel(a.Channel)
		if !ok {
			if s.log != nil {
				s.log.Infow("automation_channel_unknown", "machine", id, "channel", a.Channel)
			}
			continue
		}
		cmd := models.ControlCommand{Channel: a.Channel, Value: Normalize(cfg, a.Value)}
		if s.sink == nil {
			continue
		}
		if err := s.sink.SendControl(ctx, id, cmd); err != nil {
			if s.log != nil {
				s.log.Errorw("automation_send_failed", "machine", id, "channel", a.Channel, "err", err)
			}
			continue
		}
	}
	s.append(ctx, id, "AUTOMATION", "automation step fired", map[string]any{
		"step_id": eff.StepID,
		"actions": len(eff.Actions),
	})
}

// fireAlarm starts the alarm sound and remembers its playback handle so the
// operator can silence it individually.
func (s *MachineService) fireAlarm(ctx context.Context, id string, m *machine, eff trigger.AlarmEffect) {
	s.append(ctx, id, "ALARM", "alarm triggered", map[string]any{
		"alarm_id": eff.AlarmID,
		"sound":    eff.Sound,
		"repeat":   eff.Repeat,
	})
	if s.notifier == nil {
		return
	}
	handle, err := s.notifier.Play(ctx, id, eff)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("alarm_play_failed", "machine", id, "alarm", eff.AlarmID, "err", err)
		}
		return
	}
	if handle != "" {
		m.alarms = m.alarms.SetPlayback(eff.AlarmID, handle)
	}
}

// SetControl applies local operator input: the snapshot update goes through
// the same reducer path as a device acknowledgement (at the rounded current
// sample timestamp, or 0 before the first sample), and the normalized
// command goes out on the wire.
func (s *MachineService) SetControl(ctx context.Context, id, channel string, value float64) error {
	m, err := s.get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.state.ControlByChannel(channel)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}

	var ts int64
	if m.state.LastSample != nil {
		ts = m.state.LastSample.TS
	}
	m.state = roast.Reduce(m.state, models.ControlAckEvent{Channel: channel, Value: value, TS: ts})

	if s.sink == nil {
		return ErrNoSink
	}
	if err := s.sink.SendControl(ctx, id, models.ControlCommand{Channel: channel, Value: Normalize(cfg, value)}); err != nil {
		return fmt.Errorf("send control %s: %w", channel, err)
	}
	s.append(ctx, id, "CONTROL", "control set by operator", map[string]any{
		"channel": channel,
		"value":   value,
	})
	return nil
}

// Session forwards an operator session command to the machine. The status
// itself only changes when the machine reports back with a status event.
func (s *MachineService) Session(ctx context.Context, id string, cmd SessionCommand) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	if s.sink == nil {
		return ErrNoSink
	}
	if err := s.sink.SendSession(ctx, id, cmd); err != nil {
		return fmt.Errorf("send session command %s: %w", cmd, err)
	}
	return nil
}

// Mark records an operator milestone at the current sample.
func (s *MachineService) Mark(ctx context.Context, id string, kind models.RoastEventKind) error {
	m, err := s.get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ev := models.RoastEvent{Kind: kind, Auto: false}
	if m.state.LastSample != nil {
		ev.TS = m.state.LastSample.TS
		ev.BeanTemp = m.state.LastSample.BeanTemp
		ev.EnvTemp = m.state.LastSample.EnvTemp
	}
	m.state = roast.Reduce(m.state, models.MilestoneEvent{Event: ev})
	return nil
}

// withMachine runs fn under the machine's lock; used by the automation and
// alarm services to operate on the live containers.
func (s *MachineService) withMachine(id string, fn func(*machine) error) error {
	m, err := s.get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

func (s *MachineService) append(ctx context.Context, machineID, typ, msg string, meta map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, models.SystemEvent{
		MachineID:   machineID,
		Type:        typ,
		Description: msg,
		Metadata:    meta,
	}); err != nil && s.log != nil {
		s.log.Errorw("event_append_failed", "machine", machineID, "type", typ, "err", err)
	}
}

// Normalize converts a native-scale control value to the [0,1] wire range
// using the channel's configured bounds.
func Normalize(cfg models.ControlConfig, v float64) float64 {
	if cfg.Max <= cfg.Min {
		return 0
	}
	n := (v - cfg.Min) / (cfg.Max - cfg.Min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// Denormalize converts a [0,1] wire value back to the native scale.
func Denormalize(cfg models.ControlConfig, n float64) float64 {
	return cfg.Min + n*(cfg.Max-cfg.Min)
}
