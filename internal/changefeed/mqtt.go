package changefeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type BridgeConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // e.g. incubator/+/state
}

// Bridge feeds device_state change notifications from an MQTT broker into a Hub.
type Bridge struct {
	cfg    BridgeConfig
	hub    *Hub
	log    *logger.Logger
	client mqtt.Client
}

func NewBridge(cfg BridgeConfig, hub *Hub, log *logger.Logger) *Bridge {
	return &Bridge{cfg: cfg, hub: hub, log: log}
}

// Start connects and subscribes. The paho client reconnects on its own afterwards.
func (b *Bridge) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.cfg.Broker)
	opts.SetClientID(b.cfg.ClientID)
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
	}
	if b.cfg.Password != "" {
		opts.SetPassword(b.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		// resubscribe after every (re)connect since the session is clean
		if token := c.Subscribe(b.cfg.Topic, 1, b.onMessage); token.Wait() && token.Error() != nil {
			b.log.Errorw("mqtt_subscribe_failed", "topic", b.cfg.Topic, "err", token.Error())
			return
		}
		b.log.Infow("mqtt_subscribed", "topic", b.cfg.Topic)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.log.Warnw("mqtt_connection_lost", "err", err)
	})

	b.client = mqtt.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to mqtt broker %s: %w", b.cfg.Broker, token.Error())
	}
	return nil
}

func (b *Bridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if err := b.handle(msg.Topic(), msg.Payload()); err != nil {
		b.log.Warnw("mqtt_message_dropped", "topic", msg.Topic(), "err", err)
	}
}

var errNoDeviceID = errors.New("no device id in payload or topic")

// handle decodes one device_state row and publishes it.
func (b *Bridge) handle(topic string, payload []byte) error {
	var st models.DeviceState
	if err := json.Unmarshal(payload, &st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if st.DeviceID == "" {
		st.DeviceID = deviceFromTopic(topic)
	}
	if st.DeviceID == "" {
		return errNoDeviceID
	}
	if b.hub.Publish(st) {
		b.log.Debugw("state_applied", "device_id", st.DeviceID)
	}
	return nil
}

// deviceFromTopic extracts <id> from ".../<id>/state".
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[len(parts)-1] != "state" {
		return ""
	}
	return parts[len(parts)-2]
}
