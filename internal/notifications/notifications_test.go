package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"parkspot/internal/mailer"
)

func sampleNotice(event Event) Notice {
	start := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	return Notice{
		Event:       event,
		BookingID:   12,
		Reference:   "K7PQ2M9X",
		RequesterID: 7,
		Email:       "driver@example.com",
		LotName:     "Dockside",
		SlotID:      "A3",
		Vehicle:     "AB 12 CDE",
		StartAt:     start,
		EndAt:       start.Add(2 * time.Hour),
		AmountCents: 720,
		RefundCents: 360,
	}
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, n Notice) error {
	return m.Called(ctx, n).Error(0)
}

func TestMultiDeliversToEveryChannel(t *testing.T) {
	ctx := context.Background()
	n := sampleNotice(EventBookingCreated)

	failing, healthy := new(mockNotifier), new(mockNotifier)
	failing.On("Notify", ctx, n).Return(errors.New("smtp down")).Once()
	healthy.On("Notify", ctx, n).Return(nil).Once()

	err := Multi{failing, nil, healthy}.Notify(ctx, n)

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "smtp down")
	failing.AssertExpectations(t)
	healthy.AssertExpectations(t)
}

type fakeMailer struct {
	template string
	to       string
	data     any
	err      error
}

func (f *fakeMailer) Send(templateFile, _, email string, data any) (int, error) {
	f.template, f.to, f.data = templateFile, email, data
	if f.err != nil {
		return -1, f.err
	}
	return 200, nil
}

func TestEmailNotifier(t *testing.T) {
	kathmandu := time.FixedZone("NPT", 5*3600+45*60)
	m := &fakeMailer{}
	e := NewEmailNotifier(m, kathmandu)

	require.NoError(t, e.Notify(context.Background(), sampleNotice(EventBookingCancelled)))
	assert.Equal(t, mailer.BookingCancelledTemplate, m.template)
	assert.Equal(t, "driver@example.com", m.to)

	data, ok := m.data.(emailData)
	require.True(t, ok)
	assert.Equal(t, "7.20", data.Amount)
	assert.Equal(t, "3.60", data.Refund)
	assert.True(t, data.HasRefund)
	assert.Equal(t, 15, data.StartAt.Hour())

	// the rendered template must accept the data we pass
	_, body, err := mailer.Render(m.template, data)
	require.NoError(t, err)
	assert.Contains(t, body, "K7PQ2M9X")
}

func TestEmailNotifierSkipsMissingAddress(t *testing.T) {
	m := &fakeMailer{}
	n := sampleNotice(EventBookingCreated)
	n.Email = ""

	require.NoError(t, NewEmailNotifier(m, nil).Notify(context.Background(), n))
	assert.Empty(t, m.template)
}

func TestEmailNotifierErrors(t *testing.T) {
	e := NewEmailNotifier(&fakeMailer{err: errors.New("boom")}, nil)
	assert.ErrorContains(t, e.Notify(context.Background(), sampleNotice(EventRefundApproved)), "boom")

	assert.Error(t, e.Notify(context.Background(), sampleNotice(Event("lot.renamed"))))
}

type fakeTokens map[int64][]string

func (f fakeTokens) TokensFor(_ context.Context, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string)
	for _, id := range ids {
		out[id] = f[id]
	}
	return out, nil
}

type fakeSender struct {
	msgs []*exponent.Message
	err  error
}

func (f *fakeSender) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	f.msgs = append(f.msgs, msgs...)
	return nil, f.err
}

func TestPushNotifier(t *testing.T) {
	sender := &fakeSender{}
	p := NewPushNotifier(sender, fakeTokens{7: {"ExponentPushToken[a]", "ExponentPushToken[b]"}})

	require.NoError(t, p.Notify(context.Background(), sampleNotice(EventBookingCreated)))
	require.Len(t, sender.msgs, 2)
	assert.Equal(t, "Reservation confirmed", sender.msgs[0].Title)
	assert.Equal(t, "Slot A3 at Dockside on Mar 10 10:00. Ref K7PQ2M9X", sender.msgs[0].Body)
	assert.Equal(t, "12", sender.msgs[1].Data["bookingId"])

	// no devices, nothing sent
	n := sampleNotice(EventBookingCreated)
	n.RequesterID = 99
	require.NoError(t, p.Notify(context.Background(), n))
	assert.Len(t, sender.msgs, 2)

	sender.err = errors.New("expo unavailable")
	assert.ErrorContains(t, p.Notify(context.Background(), sampleNotice(EventRefundRejected)), "expo unavailable")
}

func TestPushContent(t *testing.T) {
	n := sampleNotice(EventBookingCancelled)
	_, body := pushContent(n)
	assert.Contains(t, body, "3.60 is awaiting approval")

	n.RefundCents = 0
	_, body = pushContent(n)
	assert.Contains(t, body, "No refund applies")

	n = sampleNotice(EventBookingReminder)
	n.SlotID = ""
	title, body := pushContent(n)
	assert.Equal(t, "Parking starts soon", title)
	assert.Equal(t, "Your spot at Dockside starts at 10:00.", body)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "51.48", FormatCents(5148))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-1.00", FormatCents(-100))
}
