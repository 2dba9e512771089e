package cache

import (
	"context"
	"fmt"
	"time"
)

const keyPrefix = "incubator:alert"

// AlertGate remembers recently logged (device, code) pairs for the cooldown window.
type AlertGate struct {
	kv  KV
	ttl time.Duration
}

func NewAlertGate(kv KV, cooldown time.Duration) *AlertGate {
	return &AlertGate{kv: kv, ttl: cooldown}
}

func gateKey(deviceID, code string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, deviceID, code)
}

// Seen reports whether an alert for the pair was marked within the cooldown.
func (g *AlertGate) Seen(ctx context.Context, deviceID, code string) (bool, error) {
	return g.kv.Exists(ctx, gateKey(deviceID, code))
}

// Mark records that an alert for the pair was just logged.
func (g *AlertGate) Mark(ctx context.Context, deviceID, code string, at time.Time) error {
	return g.kv.Set(ctx, gateKey(deviceID, code), at.UTC().Format(time.RFC3339), g.ttl)
}

// Forget drops the marks of a device so the next breach is logged again.
func (g *AlertGate) Forget(ctx context.Context, deviceID string, codes []string) error {
	keys := make([]string, 0, len(codes))
	for _, c := range codes {
		keys = append(keys, gateKey(deviceID, c))
	}
	return g.kv.Del(ctx, keys...)
}
