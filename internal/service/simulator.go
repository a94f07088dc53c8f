package service

import (
	"context"
	"sync"
	"time"

	"roaster_control/internal/logger"
	"roaster_control/internal/models"
)

// ----------- Simulation constants -----------
const (
	simAmbientC      = 25.0  // ambient temperature °C
	simChargeDropC   = 90.0  // bean temp drop target right after charge
	simMaxEnvRampC   = 0.9   // °C per tick-second at full burner
	simEnvCoolC      = 0.25  // °C per tick-second passive cooling
	simBeanFollow    = 0.12  // fraction of env/bean gap closed per tick-second
	simFirstCrackC   = 196.0 // bean temp of the auto first-crack milestone
	simBurnerChannel = "burner"
	simAirChannel    = "air"
)

// simMachine is the hardware stand-in for one roaster: its own sample
// clock, a toy thermal model, and queues of commands awaiting an ack.
type simMachine struct {
	status  models.SessionStatus
	clockMS int64

	beanTemp float64
	envTemp  float64
	prevBean float64
	prevEnv  float64

	controls map[string]float64 // channel id -> native value
	configs  map[string]models.ControlConfig

	pendingControls []models.ControlCommand
	pendingSession  []SessionCommand

	firstCrackSent bool
}

// SimulatorService stands in for real roaster hardware: it consumes the
// commands the host emits and answers with acknowledgement, status and
// telemetry events through the regular dispatch path, closing the loop the
// way a device transport would.
type SimulatorService struct {
	machines *MachineService
	log      *logger.Logger

	mu   sync.Mutex
	sims map[string]*simMachine
}

func NewSimulatorService(machines *MachineService, log *logger.Logger) *SimulatorService {
	return &SimulatorService{
		machines: machines,
		log:      log,
		sims:     make(map[string]*simMachine),
	}
}

var _ CommandSink = (*SimulatorService)(nil)

// SendControl queues a control command. The ack is emitted on the next tick,
// like a device that settles before reporting back. Callers may hold the
// machine lock, so nothing here may dispatch synchronously.
func (s *SimulatorService) SendControl(ctx context.Context, machineID string, cmd models.ControlCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim := s.sims[machineID]
	if sim == nil {
		sim = newSimMachine()
		s.sims[machineID] = sim
	}
	sim.pendingControls = append(sim.pendingControls, cmd)
	return nil
}

// SendSession queues a session command; the status change comes back as a
// status event on the next tick.
func (s *SimulatorService) SendSession(ctx context.Context, machineID string, cmd SessionCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim := s.sims[machineID]
	if sim == nil {
		sim = newSimMachine()
		s.sims[machineID] = sim
	}
	sim.pendingSession = append(sim.pendingSession, cmd)
	return nil
}

func newSimMachine() *simMachine {
	return &simMachine{
		status:   models.SessionIdle,
		beanTemp: simAmbientC,
		envTemp:  simAmbientC,
		prevBean: simAmbientC,
		prevEnv:  simAmbientC,
		controls: map[string]float64{},
		configs:  map[string]models.ControlConfig{},
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.step(ctx, tick)
		}
	}
}

// step advances every registered machine by one tick.
func (s *SimulatorService) step(ctx context.Context, tick time.Duration) {
	for _, id := range s.machines.List() {
		s.stepMachine(ctx, id, tick)
	}
}

func (s *SimulatorService) stepMachine(ctx context.Context, id string, tick time.Duration) {
	s.mu.Lock()
	sim := s.sims[id]
	if sim == nil {
		sim = newSimMachine()
		s.sims[id] = sim
		s.loadConfigs(id, sim)
	}
	controls := sim.pendingControls
	session := sim.pendingSession
	sim.pendingControls = nil
	sim.pendingSession = nil
	s.mu.Unlock()

	// Session commands first, so telemetry in the same tick already lands
	// in the right session phase.
	for _, cmd := range session {
		if ev, ok := sim.applySession(cmd); ok {
			s.dispatch(ctx, id, ev)
		}
	}

	// Settle queued control moves and acknowledge them.
	for _, cmd := range controls {
		cfg, ok := sim.configs[cmd.Channel]
		if !ok {
			continue
		}
		native := Denormalize(cfg, cmd.Value)
		sim.controls[cmd.Channel] = native
		s.dispatch(ctx, id, models.ControlAckEvent{Channel: cmd.Channel, Value: native, TS: sim.clockMS})
	}

	s.dispatch(ctx, id, sim.advance(tick))

	if sim.status == models.SessionRecording && !sim.firstCrackSent && sim.beanTemp >= simFirstCrackC {
		sim.firstCrackSent = true
		s.dispatch(ctx, id, models.MilestoneEvent{Event: models.RoastEvent{
			Kind:     models.EventFCStart,
			TS:       sim.clockMS,
			Auto:     true,
			BeanTemp: sim.beanTemp,
			EnvTemp:  sim.envTemp,
		}})
	}
}

// loadConfigs caches the machine's channel configuration for denormalizing
// wire values back to native scale.
func (s *SimulatorService) loadConfigs(id string, sim *simMachine) {
	st, err := s.machines.State(id)
	if err != nil {
		return
	}
	for _, cfg := range st.Configs {
		sim.configs[cfg.Channel] = cfg
		sim.controls[cfg.Channel] = cfg.Min
	}
}

// applySession translates an operator command into the resulting status
// event. Reset and resync have no status of their own.
func (m *simMachine) applySession(cmd SessionCommand) (models.Event, bool) {
	switch cmd {
	case CmdStartMonitoring:
		m.status = models.SessionMonitoring
		m.clockMS = 0
		m.firstCrackSent = false
	case CmdStopMonitoring:
		m.status = models.SessionIdle
	case CmdStartRecording:
		m.status = models.SessionRecording
		// The aggregate rebases retained history to end at 0; restarting
		// the sample clock keeps new samples continuous with it.
		m.clockMS = 0
		// Charging room-temperature beans into the preheated drum pulls the
		// bean probe down before the roast proper begins.
		if m.beanTemp > simChargeDropC {
			m.beanTemp = simChargeDropC
			m.prevBean = simChargeDropC
		}
	case CmdStopRecording:
		m.status = models.SessionFinished
	case CmdReset:
		m.status = models.SessionIdle
		m.clockMS = 0
		m.firstCrackSent = false
	default:
		return nil, false
	}
	return models.StatusEvent{Status: m.status}, true
}

// advance moves the toy thermal model one tick and produces the telemetry
// event: the environment chases the burner setting, the beans chase the
// environment, rates are first differences in degrees per minute.
func (m *simMachine) advance(tick time.Duration) models.TemperatureEvent {
	secs := tick.Seconds()
	m.clockMS += tick.Milliseconds()

	heat := m.channelFraction(simBurnerChannel)
	// Airflow carries heat out of the drum: full fan doubles the passive
	// cooling rate.
	cool := simEnvCoolC * (1 + m.channelFraction(simAirChannel))

	m.prevBean, m.prevEnv = m.beanTemp, m.envTemp
	m.envTemp += (heat*simMaxEnvRampC - cool) * secs
	if m.envTemp < simAmbientC {
		m.envTemp = simAmbientC
	}
	m.beanTemp += (m.envTemp - m.beanTemp) * simBeanFollow * secs
	if m.beanTemp < simAmbientC {
		m.beanTemp = simAmbientC
	}

	perMin := 60.0 / secs
	sample := models.TemperaturePoint{
		TS:       m.clockMS,
		BeanTemp: m.beanTemp,
		EnvTemp:  m.envTemp,
		BeanRate: (m.beanTemp - m.prevBean) * perMin,
		EnvRate:  (m.envTemp - m.prevEnv) * perMin,
	}
	extras := map[string]float64{"Ambient": simAmbientC}
	for ch, v := range m.controls {
		if cfg, ok := m.configs[ch]; ok {
			extras[cfg.Name] = v
		}
	}
	return models.TemperatureEvent{Sample: sample, Extras: extras}
}

// channelFraction returns a control's setting as a 0..1 fraction of its
// configured range; unknown channels read as zero.
func (m *simMachine) channelFraction(channel string) float64 {
	v := m.controls[channel]
	max := 100.0
	if cfg, ok := m.configs[channel]; ok && cfg.Max > cfg.Min {
		v -= cfg.Min
		max = cfg.Max - cfg.Min
	}
	if v <= 0 {
		return 0
	}
	if v >= max {
		return 1
	}
	return v / max
}

func (s *SimulatorService) dispatch(ctx context.Context, id string, ev models.Event) {
	if err := s.machines.Dispatch(ctx, id, ev); err != nil && s.log != nil {
		s.log.Errorw("sim_dispatch_failed", "machine", id, "err", err)
	}
}
