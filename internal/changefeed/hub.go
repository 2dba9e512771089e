package changefeed

import (
	"sync"

	"incubator_monitor/internal/models"
)

// AllDevices subscribes to every device.
const AllDevices = ""

const subscriberBuffer = 8

// Hub fans accepted state updates out to subscribers.
type Hub struct {
	reducer *Reducer

	mu   sync.Mutex
	subs map[string]map[chan models.DeviceState]struct{}
}

func NewHub(r *Reducer) *Hub {
	if r == nil {
		r = NewReducer()
	}
	return &Hub{reducer: r, subs: make(map[string]map[chan models.DeviceState]struct{})}
}

// Subscribe returns a channel of updates for deviceID (or AllDevices) and a cancel func.
// Slow subscribers miss updates instead of blocking publishers.
func (h *Hub) Subscribe(deviceID string) (<-chan models.DeviceState, func()) {
	ch := make(chan models.DeviceState, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[deviceID]
	if !ok {
		set = make(map[chan models.DeviceState]struct{})
		h.subs[deviceID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[deviceID], ch)
			if len(h.subs[deviceID]) == 0 {
				delete(h.subs, deviceID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish runs update through the reducer and broadcasts it when accepted.
func (h *Hub) Publish(update models.DeviceState) bool {
	st, ok := h.reducer.Apply(update)
	if ok {
		h.broadcast(st)
	}
	return ok
}

// Replace broadcasts st without the last-write-wins check.
func (h *Hub) Replace(st models.DeviceState) {
	h.reducer.Replace(st)
	h.broadcast(st)
}

func (h *Hub) Latest(deviceID string) (models.DeviceState, bool) {
	return h.reducer.Get(deviceID)
}

func (h *Hub) broadcast(st models.DeviceState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range []string{st.DeviceID, AllDevices} {
		for ch := range h.subs[key] {
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// Forget drops the held state of a removed device.
func (h *Hub) Forget(deviceID string) {
	h.reducer.Forget(deviceID)
}
