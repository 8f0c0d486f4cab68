package notifications

import (
	"context"
	"fmt"
	"time"

	"parkspot/internal/mailer"
)

var emailTemplates = map[Event]string{
	EventBookingCreated:   mailer.BookingConfirmedTemplate,
	EventBookingCancelled: mailer.BookingCancelledTemplate,
	EventRefundApproved:   mailer.RefundApprovedTemplate,
	EventRefundRejected:   mailer.RefundRejectedTemplate,
	EventBookingReminder:  mailer.BookingReminderTemplate,
}

type EmailNotifier struct {
	mailer mailer.Client
	loc    *time.Location
}

func NewEmailNotifier(m mailer.Client, loc *time.Location) *EmailNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &EmailNotifier{mailer: m, loc: loc}
}

type emailData struct {
	Reference string
	LotName   string
	SlotID    string
	Vehicle   string
	StartAt   time.Time
	EndAt     time.Time
	Amount    string
	Refund    string
	HasRefund bool
	Reason    string
}

// Notify skips notices without an email address; not every requester has one.
func (e *EmailNotifier) Notify(_ context.Context, n Notice) error {
	if n.Email == "" {
		return nil
	}
	tmpl, ok := emailTemplates[n.Event]
	if !ok {
		return fmt.Errorf("no email template for %s", n.Event)
	}

	data := emailData{
		Reference: n.Reference,
		LotName:   n.LotName,
		SlotID:    n.SlotID,
		Vehicle:   n.Vehicle,
		StartAt:   n.StartAt.In(e.loc),
		EndAt:     n.EndAt.In(e.loc),
		Amount:    FormatCents(n.AmountCents),
		Refund:    FormatCents(n.RefundCents),
		HasRefund: n.RefundCents > 0,
		Reason:    n.Reason,
	}

	if _, err := e.mailer.Send(tmpl, n.Email, n.Email, data); err != nil {
		return fmt.Errorf("send %s email: %w", n.Event, err)
	}
	return nil
}
