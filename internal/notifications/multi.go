package notifications

import (
	"context"

	"go.uber.org/multierr"
)

// Multi delivers a notice to every channel. A failing channel does not stop
// the others; all errors are returned combined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) error {
	var err error
	for _, ch := range m {
		if ch == nil {
			continue
		}
		err = multierr.Append(err, ch.Notify(ctx, n))
	}
	return err
}
