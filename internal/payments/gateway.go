package payments

import (
	"context"
	"errors"
)

var (
	// ErrDeclined is terminal: the provider refused the charge or refund.
	ErrDeclined = errors.New("payment declined")
	// ErrUnavailable means the provider could not be reached or failed
	// internally. Nothing was captured, so the caller may retry.
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// Gateway captures and refunds booking payments.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}
