package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/repository"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return t0 }

func fp(v float64) *float64 { return &v }
func sp(s string) *string { return &s }
func tp(t time.Time) *time.Time { return &t }

// --- devices ---

type fakeDeviceRepo struct {
	devices map[string]models.Device
	links   map[int]map[string]bool

	createErr error
	linkErr   error
	deleteErr error
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: map[string]models.Device{}, links: map[int]map[string]bool{}}
}

func (f *fakeDeviceRepo) ListForUser(_ context.Context, userID int) ([]models.Device, error) {
	var out []models.Device
	for id := range f.links[userID] {
		out = append(out, f.devices[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

func (f *fakeDeviceRepo) Get(_ context.Context, id string) (*models.Device, error) {
	d, ok := f.devices[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeDeviceRepo) Create(_ context.Context, d models.Device) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.devices[d.DeviceID]; ok {
		return repository.ErrDuplicate
	}
	f.devices[d.DeviceID] = d
	return nil
}

func (f *fakeDeviceRepo) Link(_ context.Context, userID int, id string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	if f.links[userID] == nil {
		f.links[userID] = map[string]bool{}
	}
	if f.links[userID][id] {
		return repository.ErrDuplicate
	}
	f.links[userID][id] = true
	return nil
}

func (f *fakeDeviceRepo) Unlink(_ context.Context, userID int, id string) (int64, error) {
	if !f.links[userID][id] {
		return 0, nil
	}
	delete(f.links[userID], id)
	return 1, nil
}

func (f *fakeDeviceRepo) IsLinked(_ context.Context, userID int, id string) (bool, error) {
	return f.links[userID][id], nil
}

func (f *fakeDeviceRepo) DeleteOrphan(_ context.Context, id string, ownerID int) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	d, ok := f.devices[id]
	if !ok || d.CreatedBy != ownerID {
		return 0, nil
	}
	for _, set := range f.links {
		if set[id] {
			return 0, nil
		}
	}
	delete(f.devices, id)
	return 1, nil
}

func (f *fakeDeviceRepo) SetCurrentCycle(_ context.Context, id string, cycleID *string) error {
	d, ok := f.devices[id]
	if !ok {
		return nil
	}
	d.CurrentCycleID = cycleID
	f.devices[id] = d
	return nil
}

// --- states ---

type fakeStateRepo struct {
	states    map[string]models.DeviceState
	listErr   error
	deleteErr error
}

func newFakeStateRepo(states ...models.DeviceState) *fakeStateRepo {
	f := &fakeStateRepo{states: map[string]models.DeviceState{}}
	for _, st := range states {
		f.states[st.DeviceID] = st
	}
	return f
}

func (f *fakeStateRepo) Get(_ context.Context, id string) (*models.DeviceState, error) {
	st, ok := f.states[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (f *fakeStateRepo) ListForUser(ctx context.Context, _ int) ([]models.DeviceState, error) {
	return f.ListAll(ctx)
}

func (f *fakeStateRepo) ListAll(context.Context) ([]models.DeviceState, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.DeviceState, 0, len(f.states))
	for _, st := range f.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

func (f *fakeStateRepo) Patch(_ context.Context, id string, p models.StatePatch) error {
	st := f.states[id]
	st.DeviceID = id
	if p.AnimalType != nil {
		st.AnimalType = p.AnimalType
		st.AnimalLabel = nil
	}
	if p.TargetTemperature != nil {
		st.TargetTemperature = p.TargetTemperature
	}
	if p.TemperatureTolerance != nil {
		st.TemperatureTolerance = p.TemperatureTolerance
	}
	if p.TargetHumidity != nil {
		st.TargetHumidity = p.TargetHumidity
	}
	if p.HumidityTolerance != nil {
		st.HumidityTolerance = p.HumidityTolerance
	}
	f.states[id] = st
	return nil
}

func (f *fakeStateRepo) Delete(_ context.Context, id string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if _, ok := f.states[id]; !ok {
		return 0, nil
	}
	delete(f.states, id)
	return 1, nil
}

// --- measurements ---

type fakeMeasurementRepo struct {
	series    []models.Measurement
	deleteErr error

	lastFrom, lastTo time.Time
}

func (f *fakeMeasurementRepo) List(_ context.Context, id string, from, to time.Time) ([]models.Measurement, error) {
	f.lastFrom, f.lastTo = from, to
	var out []models.Measurement
	for _, m := range f.series {
		if m.DeviceID != id {
			continue
		}
		if !from.IsZero() && m.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !m.Timestamp.Before(to) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMeasurementRepo) DeleteByDevice(_ context.Context, id string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var kept []models.Measurement
	var n int64
	for _, m := range f.series {
		if m.DeviceID == id {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.series = kept
	return n, nil
}

// --- alerts ---

type fakeAlertRepo struct {
	mu        sync.Mutex
	alerts    []models.AlertRecord
	insertErr error
	existsErr error
	deleteErr error
	seq       int
}

func (f *fakeAlertRepo) Insert(_ context.Context, a *models.AlertRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.seq++
	if a.ID == "" {
		a.ID = "a-" + strconv.Itoa(f.seq)
	}
	f.alerts = append(f.alerts, *a)
	return nil
}

func (f *fakeAlertRepo) ExistsSince(_ context.Context, id, code string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, a := range f.alerts {
		if a.DeviceID == id && a.Code == code && !a.Timestamp.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlertRepo) ListRecent(_ context.Context, id string, limit int) ([]models.AlertRecord, error) {
	var out []models.AlertRecord
	for i := len(f.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		if f.alerts[i].DeviceID == id {
			out = append(out, f.alerts[i])
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) ListRange(_ context.Context, id string, from, to time.Time) ([]models.AlertRecord, error) {
	var out []models.AlertRecord
	for _, a := range f.alerts {
		if a.DeviceID == id && !a.Timestamp.Before(from) && (to.IsZero() || a.Timestamp.Before(to)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) DeleteByDevice(_ context.Context, id string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var kept []models.AlertRecord
	var n int64
	for _, a := range f.alerts {
		if a.DeviceID == id {
			n++
			continue
		}
		kept = append(kept, a)
	}
	f.alerts = kept
	return n, nil
}

// --- cycles ---

type fakeCycleRepo struct {
	cycles  []models.Cycle
	devices *fakeDeviceRepo
	seq     int
}

func (f *fakeCycleRepo) ListByDevice(_ context.Context, id string) ([]models.Cycle, error) {
	var out []models.Cycle
	for _, c := range f.cycles {
		if c.DeviceID == id {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (f *fakeCycleRepo) Get(_ context.Context, id string) (*models.Cycle, error) {
	for _, c := range f.cycles {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCycleRepo) Start(ctx context.Context, c *models.Cycle) error {
	for i := range f.cycles {
		if f.cycles[i].DeviceID == c.DeviceID && f.cycles[i].EndedAt == nil {
			f.cycles[i].EndedAt = tp(c.StartedAt)
		}
	}
	f.seq++
	if c.ID == "" {
		c.ID = "c-" + strconv.Itoa(f.seq)
	}
	f.cycles = append(f.cycles, *c)
	if f.devices != nil {
		return f.devices.SetCurrentCycle(ctx, c.DeviceID, &c.ID)
	}
	return nil
}

func (f *fakeCycleRepo) End(_ context.Context, id string, at time.Time) (int64, error) {
	for i := range f.cycles {
		if f.cycles[i].ID == id && f.cycles[i].EndedAt == nil {
			f.cycles[i].EndedAt = tp(at)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeCycleRepo) Delete(_ context.Context, id string) (int64, error) {
	for i := range f.cycles {
		if f.cycles[i].ID == id {
			f.cycles = append(f.cycles[:i], f.cycles[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeCycleRepo) DeleteByDevice(_ context.Context, id string) (int64, error) {
	var kept []models.Cycle
	var n int64
	for _, c := range f.cycles {
		if c.DeviceID == id {
			n++
			continue
		}
		kept = append(kept, c)
	}
	f.cycles = kept
	return n, nil
}

// --- gate / notifier ---

type fakeGate struct {
	marks     map[string]bool
	seenErr   error
	forgotten []string
}

func newFakeGate() *fakeGate { return &fakeGate{marks: map[string]bool{}} }

func (g *fakeGate) Seen(_ context.Context, id, code string) (bool, error) {
	if g.seenErr != nil {
		return false, g.seenErr
	}
	return g.marks[id+"|"+code], nil
}

func (g *fakeGate) Mark(_ context.Context, id, code string, _ time.Time) error {
	g.marks[id+"|"+code] = true
	return nil
}

func (g *fakeGate) Forget(_ context.Context, id string, codes []string) error {
	for _, c := range codes {
		delete(g.marks, id+"|"+c)
	}
	g.forgotten = append(g.forgotten, id)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.AlertRecord
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, a models.AlertRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, a)
	return n.err
}

var errBoom = errors.New("boom")
