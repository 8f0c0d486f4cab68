package notifications

import (
	"context"
	"fmt"

	"github.com/9ssi7/exponent"
)

type TokenSource interface {
	TokensFor(ctx context.Context, requesterIDs []int64) (map[int64][]string, error)
}

// PushNotifier sends Expo push messages to every device of the requester.
type PushNotifier struct {
	push   PushSender
	tokens TokenSource
}

func NewPushNotifier(push PushSender, tokens TokenSource) *PushNotifier {
	return &PushNotifier{push: push, tokens: tokens}
}

func (p *PushNotifier) Notify(ctx context.Context, n Notice) error {
	tokensMap, err := p.tokens.TokensFor(ctx, []int64{n.RequesterID})
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	tokens := tokensMap[n.RequesterID]
	if len(tokens) == 0 {
		return nil
	}

	title, body := pushContent(n)

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			// drives deep linking in the app
			Data: map[string]string{
				"type":      "reservation",
				"event":     string(n.Event),
				"bookingId": fmt.Sprint(n.BookingID),
				"reference": n.Reference,
				"screen":    "reservations",
			},
		})
	}

	if _, err := p.push.Publish(ctx, msgs); err != nil {
		return fmt.Errorf("publish push: %w", err)
	}
	return nil
}

func pushContent(n Notice) (string, string) {
	switch n.Event {
	case EventBookingCreated:
		return "Reservation confirmed", fmt.Sprintf("%s at %s on %s. Ref %s", slotOrLot(n), n.LotName, n.StartAt.Format("Jan 2 15:04"), n.Reference)
	case EventBookingCancelled:
		if n.RefundCents > 0 {
			return "Reservation cancelled", fmt.Sprintf("Ref %s cancelled. A refund of %s is awaiting approval.", n.Reference, FormatCents(n.RefundCents))
		}
		return "Reservation cancelled", fmt.Sprintf("Ref %s cancelled. No refund applies.", n.Reference)
	case EventRefundApproved:
		return "Refund approved", fmt.Sprintf("%s is on its way for ref %s.", FormatCents(n.RefundCents), n.Reference)
	case EventRefundRejected:
		return "Refund rejected", fmt.Sprintf("Your refund for ref %s was rejected: %s", n.Reference, n.Reason)
	case EventBookingReminder:
		return "Parking starts soon", fmt.Sprintf("%s at %s starts at %s.", slotOrLot(n), n.LotName, n.StartAt.Format("15:04"))
	default:
		return "Reservation update", fmt.Sprintf("Your reservation %s has an update.", n.Reference)
	}
}

func slotOrLot(n Notice) string {
	if n.SlotID != "" {
		return "Slot " + n.SlotID
	}
	return "Your spot"
}

// FormatCents renders 5148 as "51.48".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
