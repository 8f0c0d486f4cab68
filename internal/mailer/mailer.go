package mailer

import "embed"

const (
	FromName                 = "ParkSpot"
	maxRetires               = 3
	BookingConfirmedTemplate = "booking_confirmed.tmpl"
	BookingCancelledTemplate = "booking_cancelled.tmpl"
	RefundApprovedTemplate   = "refund_approved.tmpl"
	RefundRejectedTemplate   = "refund_rejected.tmpl"
	BookingReminderTemplate  = "booking_reminder.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
