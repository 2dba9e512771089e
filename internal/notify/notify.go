// Package notify fans newly logged alerts out to external sinks.
package notify

import (
	"context"
	"errors"

	"incubator_monitor/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, a models.AlertRecord) error
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a models.AlertRecord) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Event is the payload written to every sink.
type Event struct {
	Type  string             `json:"type"`
	Alert models.AlertRecord `json:"alert"`
}

const eventAlertLogged = "alert.logged"

func newEvent(a models.AlertRecord) Event {
	return Event{Type: eventAlertLogged, Alert: a}
}
