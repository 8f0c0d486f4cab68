package notifications

import (
	"context"

	"go.uber.org/zap"
)

type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notice) error {
	l.logger.Infow("notification",
		"event", n.Event,
		"booking_id", n.BookingID,
		"reference", n.Reference,
		"requester_id", n.RequesterID,
		"amount_cents", n.AmountCents,
		"refund_cents", n.RefundCents,
	)
	return nil
}
