package main

import (
	"net/http"

	"parkspot/internal/params"
	"parkspot/internal/reservation"
)

type ApproveRefundPayload struct {
	// AmountCents is optional; when sent it must equal the granted refund.
	AmountCents *int64 `json:"amount_cents,omitempty" validate:"omitempty,gte=0"`
}

type RejectRefundPayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type refundQueue struct {
	Refunds    []reservation.BookingView `json:"refunds"`
	Pagination params.Pagination         `json:"pagination"`
}

// listPendingRefundsHandler godoc
//
//	@Summary		List refunds awaiting a decision
//	@Description	Oldest cancellation first
//	@Tags			admin
//	@Produce		json
//	@Param			page	query		int	false	"Page (default 1)"
//	@Param			limit	query		int	false	"Items per page (default 15, max 30)"
//	@Success		200		{object}	refundQueue
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/refunds [get]
func (app *application) listPendingRefundsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	views, total, err := app.engine.ListPendingRefunds(r.Context(), p.Limit, p.Offset)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, refundQueue{Refunds: views, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// approveRefundHandler godoc
//
//	@Summary		Approve a pending refund
//	@Description	Pays the refund granted at cancellation through the payment gateway
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int						true	"Booking ID"
//	@Param			payload		body		ApproveRefundPayload	false	"Optional amount confirmation"
//	@Success		200			{object}	bookings.Booking
//	@Failure		400			{object}	error	"Amount mismatch"
//	@Failure		409			{object}	error	"Already processed or nothing pending"
//	@Failure		503			{object}	error	"Gateway unavailable"
//	@Security		ApiKeyAuth
//	@Router			/admin/refunds/{bookingID}/approve [post]
func (app *application) approveRefundHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := idParam(r, "bookingID", "booking_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	var payload ApproveRefundPayload
	if err := readOptionalJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	b, err := app.engine.ApproveRefund(r.Context(), reservation.ApproveRequest{
		BookingID:   bookingID,
		AdminID:     getUserFromContext(r).UserID,
		AmountCents: payload.AmountCents,
	})
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

// rejectRefundHandler godoc
//
//	@Summary	Reject a pending refund
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		bookingID	path		int					true	"Booking ID"
//	@Param		payload		body		RejectRefundPayload	true	"Rejection reason"
//	@Success	200			{object}	bookings.Booking
//	@Failure	400			{object}	error	"Reason missing"
//	@Failure	409			{object}	error	"Already processed or nothing pending"
//	@Security	ApiKeyAuth
//	@Router		/admin/refunds/{bookingID}/reject [post]
func (app *application) rejectRefundHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := idParam(r, "bookingID", "booking_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	var payload RejectRefundPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	b, err := app.engine.RejectRefund(r.Context(), reservation.RejectRequest{
		BookingID: bookingID,
		AdminID:   getUserFromContext(r).UserID,
		Reason:    payload.Reason,
	})
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

// reservationAuditHandler godoc
//
//	@Summary	Audit trail of a reservation
//	@Tags		admin
//	@Produce	json
//	@Param		bookingID	path		int	true	"Booking ID"
//	@Success	200			{array}		audit.Entry
//	@Failure	404			{object}	error
//	@Security	ApiKeyAuth
//	@Router		/admin/reservations/{bookingID}/audit [get]
func (app *application) reservationAuditHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := idParam(r, "bookingID", "booking_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	entries, err := app.engine.AuditTrail(r.Context(), bookingID)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, entries); err != nil {
		app.internalServerError(w, r, err)
	}
}

// recomputeAvailabilityHandler godoc
//
//	@Summary		Recompute lot availability
//	@Description	Resets every lot counter from the bookings still holding a spot
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Security		ApiKeyAuth
//	@Router			/admin/lots/recompute [post]
func (app *application) recomputeAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	changed, err := app.engine.RecomputeAvailability(r.Context())
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"changed": changed}); err != nil {
		app.internalServerError(w, r, err)
	}
}
