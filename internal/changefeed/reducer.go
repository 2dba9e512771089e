// Package changefeed keeps the live view of device states in sync with row-change notifications.
package changefeed

import (
	"sync"

	"incubator_monitor/internal/models"
)

// Reducer holds the latest accepted state per device.
type Reducer struct {
	mu     sync.RWMutex
	states map[string]models.DeviceState
}

func NewReducer() *Reducer {
	return &Reducer{states: make(map[string]models.DeviceState)}
}

// Apply merges update using last-write-wins on LastUpdated.
// Updates that are not strictly newer than the held state are ignored.
func (r *Reducer) Apply(update models.DeviceState) (models.DeviceState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.states[update.DeviceID]
	if ok && !newer(update, cur) {
		return cur, false
	}
	if ok && update.AnimalLabel == nil && sameAnimal(update.AnimalType, cur.AnimalType) {
		update.AnimalLabel = cur.AnimalLabel
	}
	r.states[update.DeviceID] = update
	return update, true
}

// Replace stores st unconditionally. Used for local edits that do not move LastUpdated.
func (r *Reducer) Replace(st models.DeviceState) {
	r.mu.Lock()
	r.states[st.DeviceID] = st
	r.mu.Unlock()
}

func (r *Reducer) Get(deviceID string) (models.DeviceState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[deviceID]
	return st, ok
}

func (r *Reducer) Forget(deviceID string) {
	r.mu.Lock()
	delete(r.states, deviceID)
	r.mu.Unlock()
}

func newer(update, cur models.DeviceState) bool {
	switch {
	case update.LastUpdated == nil:
		return cur.LastUpdated == nil
	case cur.LastUpdated == nil:
		return true
	default:
		return update.LastUpdated.After(*cur.LastUpdated)
	}
}

func sameAnimal(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
