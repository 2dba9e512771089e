package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/models"
	"incubator_monitor/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// Message types pushed to live views.
const (
	msgDevices = "devices"
	msgDevice  = "device"
	msgAlerts  = "alerts"
	msgState   = "state"
	msgError   = "error"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Upgrader for HTTP -> WebSocket. Origins are enforced by the CORS layer in front of gin.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveConn serializes writes from scheduler jobs and the change feed onto one socket.
// The first failed write cancels the view.
type liveConn struct {
	conn   *websocket.Conn
	cancel context.CancelFunc

	mu sync.Mutex
}

func (l *liveConn) send(env wsEnvelope) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := l.conn.WriteJSON(env); err != nil {
		l.cancel()
		return err
	}
	return nil
}

func (l *liveConn) ping() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return l.conn.WriteMessage(websocket.PingMessage, nil)
}

// viewSetup registers the view's jobs and change feed forwarding. It runs after the upgrade.
type viewSetup func(ctx context.Context, lc *liveConn, sched *scheduler.Scheduler)

// @Summary      Live dashboard
// @Description  Pushes the device list every polling.devices and state changes as they arrive.
// @Tags         live
// @Param        token  query  string  true  "JWT"
// @Router       /ws/dashboard [get]
func (h *Handler) wsDashboard(c *gin.Context) {
	uid := userID(c)
	h.serveView(c, "dashboard", func(ctx context.Context, lc *liveConn, sched *scheduler.Scheduler) {
		var (
			mu     sync.Mutex
			linked = map[string]bool{}
		)
		updates, unsubscribe := h.hub.Subscribe(changefeed.AllDevices)
		go func() {
			<-ctx.Done()
			unsubscribe()
		}()
		go h.forward(ctx, lc, updates, func(st models.DeviceState) bool {
			mu.Lock()
			defer mu.Unlock()
			return linked[st.DeviceID]
		})

		sched.Every(msgDevices, h.polling.Devices, func(ctx context.Context) {
			cards, err := h.services.ListDevices(ctx, uid)
			if err != nil {
				h.logWS("ws_devices_failed", err, "user_id", uid)
				_ = lc.send(wsEnvelope{Type: msgError, Error: "failed to load devices"})
				return
			}
			mu.Lock()
			linked = make(map[string]bool, len(cards))
			for _, card := range cards {
				linked[card.DeviceID] = true
			}
			mu.Unlock()
			_ = lc.send(wsEnvelope{Type: msgDevices, Data: cards})
		})
	})
}

// @Summary      Live device view
// @Description  Pushes the alert log every polling.alert_log, the device card (online status) every polling.online, and state changes as they arrive.
// @Tags         live
// @Param        id     path   string  true  "Device ID"
// @Param        token  query  string  true  "JWT"
// @Router       /ws/devices/{id} [get]
func (h *Handler) wsDevice(c *gin.Context) {
	uid := userID(c)
	deviceID := c.Param("id")
	if err := h.services.CheckAccess(c.Request.Context(), uid, deviceID); err != nil {
		h.respondServiceError(c, err, "ws_device_access_failed", "device_id", deviceID)
		return
	}

	h.serveView(c, "device", func(ctx context.Context, lc *liveConn, sched *scheduler.Scheduler) {
		updates, unsubscribe := h.hub.Subscribe(deviceID)
		go func() {
			<-ctx.Done()
			unsubscribe()
		}()
		go h.forward(ctx, lc, updates, nil)

		sched.Every(msgAlerts, h.polling.AlertLog, func(ctx context.Context) {
			alerts, err := h.services.ListAlerts(ctx, deviceID)
			if err != nil {
				h.logWS("ws_alerts_failed", err, "device_id", deviceID)
				return
			}
			_ = lc.send(wsEnvelope{Type: msgAlerts, Data: alerts})
		})
		sched.Every(msgDevice, h.polling.Online, func(ctx context.Context) {
			card, err := h.services.GetDevice(ctx, uid, deviceID)
			if err != nil {
				h.logWS("ws_device_failed", err, "device_id", deviceID)
				return
			}
			_ = lc.send(wsEnvelope{Type: msgDevice, Data: card})
		})
	})
}

// serveView upgrades the request and keeps the socket alive until the client leaves.
// All jobs of the view are cancelled on return.
func (h *Handler) serveView(c *gin.Context, view string, setup viewSetup) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logWS("ws_upgrade_failed", err, "view", view)
		return
	}
	defer func() { _ = conn.Close() }()

	h.metrics.WSConnected()
	defer h.metrics.WSDisconnected()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	done := make(chan struct{})
	go h.startReader(conn, done)

	lc := &liveConn{conn: conn, cancel: cancel}
	sched := scheduler.New(ctx)
	defer sched.Stop()
	setup(ctx, lc, sched)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := lc.ping(); err != nil {
				h.logWS("ws_ping_failed", err, "view", view)
				return
			}
		}
	}
}

// forward pushes change feed updates accepted by keep (nil keeps all) until ctx ends.
func (h *Handler) forward(ctx context.Context, lc *liveConn, updates <-chan models.DeviceState, keep func(models.DeviceState) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if keep != nil && !keep(st) {
				continue
			}
			if err := lc.send(wsEnvelope{Type: msgState, Data: st}); err != nil {
				h.logWS("ws_write_failed", err, "device_id", st.DeviceID)
				return
			}
		}
	}
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func (h *Handler) logWS(key string, err error, kv ...interface{}) {
	if h.log != nil {
		h.log.Infow(key, append([]interface{}{"err", err}, kv...)...)
	}
}
