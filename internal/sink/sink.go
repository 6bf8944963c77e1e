// Package sink holds the consumers of observed events.
package sink

import (
	"context"
	"errors"

	"contractwatch/internal/model"
)

// Sink consumes observed events. Delivery is at-least-once: the same log can
// arrive again after a retried cycle or at a cycle boundary.
type Sink interface {
	Emit(ctx context.Context, ev model.Event) error
	// Fault reports a recoverable acquisition error.
	Fault(err error)
}

// Committer is implemented by sinks that want to know when a cycle
// completed and the watermark moved.
type Committer interface {
	Committed(watermark uint64) error
}

// Multi fans events out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev model.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Fault(err error) {
	for _, s := range m {
		s.Fault(err)
	}
}

func (m Multi) Committed(watermark uint64) error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(Committer); ok {
			if err := c.Committed(watermark); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
