package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"parkspot/internal/auth"
	"parkspot/internal/cancellation"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/storage"
	"parkspot/internal/payments"
	"parkspot/internal/reference"
	"parkspot/internal/reservation"
)

type testServer struct {
	app     *application
	handler http.Handler
	store   *storage.Memory
	gw      *payments.Sandbox
	now     time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("ops-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	refs, err := reference.New("handler-salt", reference.DefaultMinLength)
	require.NoError(t, err)

	ts := &testServer{
		store: storage.NewMemory(),
		gw:    payments.NewSandbox(),
		// Wednesday noon
		now: time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC),
	}
	logger := zap.NewNop().Sugar()
	engine := reservation.New(ts.store, ts.gw, nil, refs, logger,
		reservation.WithClock(func() time.Time { return ts.now }),
	)
	t.Cleanup(engine.Wait)

	cfg := config{
		addr:          ":0",
		env:           "test",
		storageDriver: "memory",
		auth: authConfig{
			basic: basicConfig{user: "ops", passHash: string(hash)},
			token: tokenConfig{secret: "test-secret", aud: "parkspot", iss: "parkspot"},
		},
	}
	ts.app = &application{
		config:        cfg,
		logger:        logger,
		engine:        engine,
		store:         ts.store,
		authenticator: auth.NewJWTAuthenticator(cfg.auth.token.secret, cfg.auth.token.aud, cfg.auth.token.iss),
	}
	ts.handler = ts.app.mount()
	return ts
}

func (ts *testServer) addLot(available int) lots.Lot {
	return ts.store.AddLot(lots.Lot{
		Name:              "Dockside",
		TotalCapacity:     20,
		AvailableCapacity: available,
		BasePriceCents:    400,
		Zones:             []string{"A", "B"},
		SlotsPerZone:      10,
	})
}

func (ts *testServer) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	tok, err := ts.app.authenticator.GenerateToken(id, time.Hour)
	require.NoError(t, err)
	return tok
}

var (
	driver = auth.Identity{UserID: 7, Role: auth.RoleUser, Email: "driver@example.com"}
	other  = auth.Identity{UserID: 8, Role: auth.RoleUser}
	admin  = auth.Identity{UserID: 1, Role: auth.RoleAdmin}
)

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env.Data
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func createPayload(lotID int64, date, clock string) CreateReservationPayload {
	return CreateReservationPayload{
		LotID:         lotID,
		StartDate:     date,
		StartTime:     clock,
		DurationHours: 2,
		Vehicle:       "ab 12 cde",
		Contact:       "+1 (415) 555-0100",
	}
}

func (ts *testServer) reserve(t *testing.T, p CreateReservationPayload) reservation.Reservation {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/v1/reservations", ts.token(t, driver), p)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeData[reservation.Reservation](t, rr)
}

func TestCreateReservationHandler(t *testing.T) {
	ts := newTestServer(t)
	lot := ts.addLot(20)

	res := ts.reserve(t, createPayload(lot.ID, "2026-03-10", "10:00"))

	assert.NotEmpty(t, res.Reference)
	assert.NotEmpty(t, res.PaymentRef)
	assert.Equal(t, bookings.StatusConfirmed, res.Booking.Status)
	assert.Equal(t, bookings.PaymentPaid, res.Booking.PaymentStatus)
	assert.Equal(t, driver.UserID, res.Booking.RequesterID)
	assert.Equal(t, "AB 12 CDE", res.Booking.Vehicle)
	require.NotNil(t, res.Booking.SlotID)
	assert.Equal(t, "A1", *res.Booking.SlotID)
	require.NotNil(t, res.Booking.ContactEmail)
	assert.Equal(t, driver.Email, *res.Booking.ContactEmail)
}

func TestCreateReservationErrors(t *testing.T) {
	ts := newTestServer(t)
	open := ts.addLot(20)
	full := ts.addLot(0)

	badVehicle := createPayload(open.ID, "2026-03-10", "10:00")
	badVehicle.Vehicle = "!!"
	past := createPayload(open.ID, "2026-03-01", "10:00")

	tests := []struct {
		name    string
		payload any
		status  int
		field   string
		code    string
	}{
		{name: "invalid vehicle", payload: badVehicle, status: http.StatusBadRequest, field: "vehicle"},
		{name: "past start", payload: past, status: http.StatusBadRequest, field: "start_date"},
		{name: "unknown lot", payload: createPayload(999, "2026-03-10", "10:00"), status: http.StatusNotFound},
		{name: "lot full", payload: createPayload(full.ID, "2026-03-10", "10:00"), status: http.StatusConflict, code: "lot_full"},
		{name: "unknown field", payload: map[string]any{"lot_id": open.ID, "colour": "red"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/v1/reservations", ts.token(t, driver), tt.payload)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			env := decodeError(t, rr)
			assert.False(t, env.Success)
			assert.Equal(t, tt.field, env.Field)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestReservationRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/v1/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodGet, "/v1/reservations", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestReservationVisibility(t *testing.T) {
	ts := newTestServer(t)
	lot := ts.addLot(20)
	res := ts.reserve(t, createPayload(lot.ID, "2026-03-10", "10:00"))
	path := fmt.Sprintf("/v1/reservations/%d", res.Booking.ID)

	rr := ts.do(t, http.MethodGet, path, ts.token(t, driver), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	view := decodeData[reservation.BookingView](t, rr)
	assert.Equal(t, res.Reference, view.Reference)
	assert.Equal(t, reservation.ClassActive, view.Classification)

	rr = ts.do(t, http.MethodGet, path, ts.token(t, other), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodGet, path, ts.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodGet, "/v1/reservations/ref/"+res.Reference, ts.token(t, driver), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, res.Booking.ID, decodeData[reservation.BookingView](t, rr).ID)

	rr = ts.do(t, http.MethodGet, "/v1/reservations/abc", ts.token(t, driver), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListReservationsHandler(t *testing.T) {
	ts := newTestServer(t)
	lot := ts.addLot(20)
	ts.reserve(t, createPayload(lot.ID, "2026-03-10", "10:00"))
	ts.reserve(t, createPayload(lot.ID, "2026-03-11", "10:00"))

	rr := ts.do(t, http.MethodGet, "/v1/reservations?limit=1", ts.token(t, driver), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	list := decodeData[reservationList](t, rr)
	assert.Len(t, list.Reservations, 1)
	assert.Equal(t, 2, list.Pagination.Total)
	assert.True(t, list.Pagination.HasNext)

	rr = ts.do(t, http.MethodGet, "/v1/reservations", ts.token(t, other), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeData[reservationList](t, rr).Reservations)
}

func TestCancelAndApproveRefundFlow(t *testing.T) {
	ts := newTestServer(t)
	lot := ts.addLot(20)
	res := ts.reserve(t, createPayload(lot.ID, "2026-03-10", "10:00"))
	base := fmt.Sprintf("/v1/reservations/%d", res.Booking.ID)

	rr := ts.do(t, http.MethodGet, base+"/cancellation", ts.token(t, driver), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	preview := decodeData[cancellation.Decision](t, rr)
	assert.Equal(t, cancellation.ReasonFullRefund, preview.Reason)
	assert.Equal(t, res.Booking.TotalPriceCents, preview.RefundCents)

	rr = ts.do(t, http.MethodPost, base+"/cancel", ts.token(t, other), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, base+"/cancel", ts.token(t, driver), CancelReservationPayload{Reason: "plans changed"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decodeData[reservation.RefundOutcome](t, rr)
	assert.Equal(t, bookings.StatusCancelled, out.Booking.Status)
	assert.Equal(t, bookings.PaymentPendingRefund, out.Booking.PaymentStatus)

	rr = ts.do(t, http.MethodPost, base+"/cancel", ts.token(t, driver), nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_cancelled", decodeError(t, rr).Code)

	rr = ts.do(t, http.MethodGet, "/v1/admin/refunds", ts.token(t, driver), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodGet, "/v1/admin/refunds", ts.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	queue := decodeData[refundQueue](t, rr)
	require.Len(t, queue.Refunds, 1)
	assert.Equal(t, res.Booking.ID, queue.Refunds[0].ID)

	approve := fmt.Sprintf("/v1/admin/refunds/%d/approve", res.Booking.ID)
	wrong := res.Booking.TotalPriceCents - 1
	rr = ts.do(t, http.MethodPost, approve, ts.token(t, admin), ApproveRefundPayload{AmountCents: &wrong})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "amount_cents", decodeError(t, rr).Field)

	rr = ts.do(t, http.MethodPost, approve, ts.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decided := decodeData[bookings.Booking](t, rr)
	assert.Equal(t, bookings.PaymentRefunded, decided.PaymentStatus)

	rr = ts.do(t, http.MethodPost, approve, ts.token(t, admin), nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_processed", decodeError(t, rr).Code)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/admin/reservations/%d/audit", res.Booking.ID), ts.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "booking_created")
}

func TestRejectRefundRequiresReason(t *testing.T) {
	ts := newTestServer(t)
	lot := ts.addLot(20)
	res := ts.reserve(t, createPayload(lot.ID, "2026-03-10", "10:00"))

	rr := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/reservations/%d/cancel", res.Booking.ID), ts.token(t, driver), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	reject := fmt.Sprintf("/v1/admin/refunds/%d/reject", res.Booking.ID)
	rr = ts.do(t, http.MethodPost, reject, ts.token(t, admin), RejectRefundPayload{})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "reason", decodeError(t, rr).Field)

	rr = ts.do(t, http.MethodPost, reject, ts.token(t, admin), RejectRefundPayload{Reason: "duplicate claim"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bookings.PaymentCancelledRefundRejected, decodeData[bookings.Booking](t, rr).PaymentStatus)
}

func TestCancelInsideBlockWindow(t *testing.T) {
	ts := newTestServer(t)
	lot := ts.addLot(20)
	res := ts.reserve(t, createPayload(lot.ID, "2026-03-04", "14:00"))

	ts.now = ts.now.Add(90 * time.Minute)

	rr := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/reservations/%d/cancel", res.Booking.ID), ts.token(t, driver), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, string(cancellation.ReasonWithinBlockWindow), decodeError(t, rr).Reason)
}

func TestLotHandlers(t *testing.T) {
	ts := newTestServer(t)
	lot := ts.addLot(20)

	rr := ts.do(t, http.MethodGet, "/v1/lots", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeData[[]lots.Lot](t, rr), 1)

	rr = ts.do(t, http.MethodGet, "/v1/lots/404", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	path := fmt.Sprintf("/v1/lots/%d/availability?date=2026-03-10&time=10:00&duration=2", lot.ID)
	rr = ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	av := decodeData[reservation.Availability](t, rr)
	assert.Len(t, av.FreeSlots, 20)
	assert.True(t, av.Bookable)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/lots/%d/availability?date=2026-03-10&time=10:00&duration=30", lot.ID), "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "duration_hours", decodeError(t, rr).Field)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/lots/%d/quote?duration=2", lot.ID), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "final_price_cents")
}

func TestAdminRecompute(t *testing.T) {
	ts := newTestServer(t)
	ts.addLot(5)

	rr := ts.do(t, http.MethodPost, "/v1/admin/lots/recompute", ts.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]int{"changed": 1}, decodeData[map[string]int](t, rr))
}

func TestPushTokenHandlers(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/v1/users/push-tokens", ts.token(t, driver), SavePushTokenRequest{Token: "ExponentPushToken[abc]"})
	require.Equal(t, http.StatusNoContent, rr.Code)

	tokens, err := ts.store.Repos().PushTokens.TokensFor(t.Context(), []int64{driver.UserID})
	require.NoError(t, err)
	assert.Equal(t, []string{"ExponentPushToken[abc]"}, tokens[driver.UserID])

	rr = ts.do(t, http.MethodDelete, "/v1/admin/push-tokens", ts.token(t, driver), BulkRemoveTokensRequest{Tokens: []string{"x"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodDelete, "/v1/users/push-tokens", ts.token(t, driver), RemovePushTokenRequest{Token: "ExponentPushToken[abc]"})
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHealthCheckBasicAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ops:ops-pass")))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", decodeData[map[string]string](t, rec)["storage"])
}
