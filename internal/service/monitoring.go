package service

import (
	"context"

	"roaster_control/internal/models"
)

// MonitoringService is the read side of the machine host.
type MonitoringService struct {
	machines *MachineService
}

func NewMonitoringService(machines *MachineService) *MonitoringService {
	return &MonitoringService{machines: machines}
}

// State returns the latest aggregate for a machine.
func (s *MonitoringService) State(ctx context.Context, id string) (*models.MachineState, error) {
	return s.machines.State(id)
}
