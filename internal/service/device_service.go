package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/models"
	"incubator_monitor/internal/repository"
)

type DeviceService struct {
	deviceRepo repository.DeviceRepo
	stateRepo  repository.StateRepo
	hub        *changefeed.Hub
	log        *logger.Logger
	now        func() time.Time
}

func NewDeviceService(deviceRepo repository.DeviceRepo, stateRepo repository.StateRepo, deps Deps) *DeviceService {
	deps = deps.withDefaults()
	return &DeviceService{
		deviceRepo: deviceRepo,
		stateRepo:  stateRepo,
		hub:        deps.Hub,
		log:        deps.Log,
		now:        deps.Now,
	}
}

// ListDevices returns cards for every device linked to userID.
func (s *DeviceService) ListDevices(ctx context.Context, userID int) ([]DeviceCard, error) {
	devices, err := s.deviceRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	states, err := s.stateRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.DeviceState, len(states))
	for i := range states {
		byID[states[i].DeviceID] = &states[i]
	}

	now := s.now()
	out := make([]DeviceCard, 0, len(devices))
	for _, d := range devices {
		out = append(out, BuildCard(d, s.freshest(byID[d.DeviceID]), now))
	}
	return out, nil
}

func (s *DeviceService) GetDevice(ctx context.Context, userID int, deviceID string) (DeviceCard, error) {
	if err := s.CheckAccess(ctx, userID, deviceID); err != nil {
		return DeviceCard{}, err
	}
	d, err := s.deviceRepo.Get(ctx, deviceID)
	if err != nil {
		return DeviceCard{}, err
	}
	if d == nil {
		return DeviceCard{}, ErrDeviceNotFound
	}
	st, err := s.stateRepo.Get(ctx, deviceID)
	if err != nil {
		return DeviceCard{}, err
	}
	return BuildCard(*d, s.freshest(st), s.now()), nil
}

// freshest prefers the change feed's copy when it is newer than the stored row.
func (s *DeviceService) freshest(st *models.DeviceState) *models.DeviceState {
	if st == nil {
		return nil
	}
	live, ok := s.hub.Latest(st.DeviceID)
	if !ok || live.LastUpdated == nil {
		return st
	}
	if st.LastUpdated == nil || live.LastUpdated.After(*st.LastUpdated) {
		return &live
	}
	return st
}

// AddDevice creates the device if needed and links it to userID. Both steps tolerate duplicates.
func (s *DeviceService) AddDevice(ctx context.Context, userID int, in NewDevice) (models.Device, error) {
	id := strings.TrimSpace(in.DeviceID)
	if id == "" {
		return models.Device{}, fmt.Errorf("%w: device_id is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = id
	}

	err := s.deviceRepo.Create(ctx, models.Device{
		DeviceID:  id,
		Name:      name,
		Location:  strings.TrimSpace(in.Location),
		IsActive:  true,
		CreatedBy: userID,
		CreatedAt: s.now(),
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return models.Device{}, err
	}

	if err := s.deviceRepo.Link(ctx, userID, id); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return models.Device{}, err
	}

	d, err := s.deviceRepo.Get(ctx, id)
	if err != nil {
		return models.Device{}, err
	}
	if d == nil {
		return models.Device{}, ErrDeviceNotFound
	}
	s.log.Infow("device_linked", "device_id", id, "user_id", userID)
	return *d, nil
}

// RemoveDevice unlinks the device, then deletes it when the caller owns it and nobody else is linked.
func (s *DeviceService) RemoveDevice(ctx context.Context, userID int, deviceID string) error {
	n, err := s.deviceRepo.Unlink(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDeviceNotFound
	}

	// best effort: failures here do not undo the unlink
	if deleted, err := s.deviceRepo.DeleteOrphan(ctx, deviceID, userID); err != nil {
		s.log.Warnw("device_delete_skipped", "device_id", deviceID, "err", err)
	} else if deleted > 0 {
		s.hub.Forget(deviceID)
		s.log.Infow("device_deleted", "device_id", deviceID)
	}
	return nil
}

// PatchState updates targets or animal and pushes the new state to live views.
func (s *DeviceService) PatchState(ctx context.Context, deviceID string, p models.StatePatch) (models.DeviceState, error) {
	if p.Empty() {
		return models.DeviceState{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	for _, tol := range []*float64{p.TemperatureTolerance, p.HumidityTolerance} {
		if tol != nil && *tol < 0 {
			return models.DeviceState{}, fmt.Errorf("%w: tolerance must not be negative", ErrInvalidInput)
		}
	}

	if err := s.stateRepo.Patch(ctx, deviceID, p); err != nil {
		return models.DeviceState{}, err
	}
	st, err := s.stateRepo.Get(ctx, deviceID)
	if err != nil {
		return models.DeviceState{}, err
	}
	if st == nil {
		return models.DeviceState{}, ErrDeviceNotFound
	}
	s.hub.Replace(*st)
	return *st, nil
}

// CheckAccess returns ErrDeviceNotFound unless deviceID is linked to userID.
func (s *DeviceService) CheckAccess(ctx context.Context, userID int, deviceID string) error {
	ok, err := s.deviceRepo.IsLinked(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeviceNotFound
	}
	return nil
}
