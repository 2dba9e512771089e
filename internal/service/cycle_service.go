package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/models"
	"incubator_monitor/internal/repository"
)

type CycleService struct {
	cycleRepo  repository.CycleRepo
	deviceRepo repository.DeviceRepo
	log        *logger.Logger
	now        func() time.Time
}

func NewCycleService(cycleRepo repository.CycleRepo, deviceRepo repository.DeviceRepo, deps Deps) *CycleService {
	deps = deps.withDefaults()
	return &CycleService{cycleRepo: cycleRepo, deviceRepo: deviceRepo, log: deps.Log, now: deps.Now}
}

// ListCycles returns the device's cycles, most recently started first.
func (s *CycleService) ListCycles(ctx context.Context, deviceID string) ([]models.Cycle, error) {
	return s.cycleRepo.ListByDevice(ctx, deviceID)
}

// StartCycle ends the running cycle, if any, and makes a new one current.
func (s *CycleService) StartCycle(ctx context.Context, deviceID, animalType string) (models.Cycle, error) {
	animalType = strings.TrimSpace(animalType)
	if animalType == "" {
		return models.Cycle{}, fmt.Errorf("%w: animal_type is required", ErrInvalidInput)
	}
	c := models.Cycle{DeviceID: deviceID, AnimalType: animalType, StartedAt: s.now()}
	if err := s.cycleRepo.Start(ctx, &c); err != nil {
		return models.Cycle{}, err
	}
	s.log.Infow("cycle_started", "device_id", deviceID, "cycle_id", c.ID, "animal_type", animalType)
	return c, nil
}

// EndCycle closes a cycle and clears the device pointer if it was current.
// Ending an already ended cycle returns it unchanged.
func (s *CycleService) EndCycle(ctx context.Context, deviceID, cycleID string) (models.Cycle, error) {
	c, err := s.ownedCycle(ctx, deviceID, cycleID)
	if err != nil {
		return models.Cycle{}, err
	}
	if !c.IsCurrent() {
		return *c, nil
	}

	at := s.now()
	if _, err := s.cycleRepo.End(ctx, cycleID, at); err != nil {
		return models.Cycle{}, err
	}
	c.EndedAt = &at

	if err := s.clearPointer(ctx, deviceID, cycleID); err != nil {
		return models.Cycle{}, err
	}
	s.log.Infow("cycle_ended", "device_id", deviceID, "cycle_id", cycleID)
	return *c, nil
}

func (s *CycleService) DeleteCycle(ctx context.Context, deviceID, cycleID string) error {
	if _, err := s.ownedCycle(ctx, deviceID, cycleID); err != nil {
		return err
	}
	if _, err := s.cycleRepo.Delete(ctx, cycleID); err != nil {
		return err
	}
	if err := s.clearPointer(ctx, deviceID, cycleID); err != nil {
		return err
	}
	s.log.Infow("cycle_deleted", "device_id", deviceID, "cycle_id", cycleID)
	return nil
}

func (s *CycleService) ownedCycle(ctx context.Context, deviceID, cycleID string) (*models.Cycle, error) {
	c, err := s.cycleRepo.Get(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.DeviceID != deviceID {
		return nil, ErrCycleNotFound
	}
	return c, nil
}

func (s *CycleService) clearPointer(ctx context.Context, deviceID, cycleID string) error {
	d, err := s.deviceRepo.Get(ctx, deviceID)
	if err != nil {
		return err
	}
	if d == nil || d.CurrentCycleID == nil || *d.CurrentCycleID != cycleID {
		return nil
	}
	return s.deviceRepo.SetCurrentCycle(ctx, deviceID, nil)
}
