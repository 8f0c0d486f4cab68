package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"parkspot/internal/auth"
	"parkspot/internal/params"
	"parkspot/internal/reservation"
)

type CreateReservationPayload struct {
	LotID         int64  `json:"lot_id" validate:"required,gt=0"`
	StartDate     string `json:"start_date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" validate:"required,datetime=15:04"`
	DurationHours int    `json:"duration_hours" validate:"required,min=1,max=24"`
	SlotID        string `json:"slot_id,omitempty" validate:"omitempty,slot"`
	Vehicle       string `json:"vehicle" validate:"required,vehicle"`
	Contact       string `json:"contact" validate:"required,contact"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	NonRefundable bool   `json:"non_refundable"`
}

type CancelReservationPayload struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type reservationList struct {
	Reservations []reservation.BookingView `json:"reservations"`
	Pagination   params.Pagination         `json:"pagination"`
}

// createReservationHandler godoc
//
//	@Summary		Reserve a parking slot
//	@Description	Validates the request, assigns or checks the slot, prices the stay, captures payment and confirms the booking
//	@Tags			reservations
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateReservationPayload	true	"Reservation request"
//	@Success		201		{object}	reservation.Reservation
//	@Failure		400		{object}	error	"Invalid field"
//	@Failure		404		{object}	error	"Lot not found"
//	@Failure		409		{object}	error	"Lot full, slot taken or payment declined"
//	@Failure		503		{object}	error	"Retry later"
//	@Security		ApiKeyAuth
//	@Router			/reservations [post]
func (app *application) createReservationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateReservationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	email := payload.Email
	if email == "" {
		email = user.Email
	}
	res, err := app.engine.CreateReservation(r.Context(), reservation.CreateRequest{
		LotID:         payload.LotID,
		StartDate:     payload.StartDate,
		StartTime:     payload.StartTime,
		DurationHours: payload.DurationHours,
		SlotID:        payload.SlotID,
		Vehicle:       payload.Vehicle,
		Contact:       payload.Contact,
		Email:         email,
		RequesterID:   user.UserID,
		NonRefundable: payload.NonRefundable,
	})
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, res); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listReservationsHandler godoc
//
//	@Summary		List my reservations
//	@Description	Newest start first, each classified as active, past or cancelled
//	@Tags			reservations
//	@Produce		json
//	@Param			page	query		int	false	"Page (default 1)"
//	@Param			limit	query		int	false	"Items per page (default 15, max 30)"
//	@Success		200		{object}	reservationList
//	@Security		ApiKeyAuth
//	@Router			/reservations [get]
func (app *application) listReservationsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	views, total, err := app.engine.ListForRequester(r.Context(), user.UserID, p.Limit, p.Offset)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, reservationList{Reservations: views, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// visibleTo hides other people's bookings behind a 404.
func visibleTo(user *auth.Identity, view *reservation.BookingView) bool {
	return user.IsAdmin() || view.RequesterID == user.UserID
}

// getReservationHandler godoc
//
//	@Summary	Get a reservation
//	@Tags		reservations
//	@Produce	json
//	@Param		bookingID	path		int	true	"Booking ID"
//	@Success	200			{object}	reservation.BookingView
//	@Failure	404			{object}	error
//	@Security	ApiKeyAuth
//	@Router		/reservations/{bookingID} [get]
func (app *application) getReservationHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := idParam(r, "bookingID", "booking_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	view, err := app.engine.GetBooking(r.Context(), bookingID)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if !visibleTo(getUserFromContext(r), view) {
		app.engineErrorResponse(w, r, reservation.ErrBookingNotFound)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getReservationByReferenceHandler godoc
//
//	@Summary	Look up a reservation by its reference code
//	@Tags		reservations
//	@Produce	json
//	@Param		reference	path		string	true	"Booking reference"
//	@Success	200			{object}	reservation.BookingView
//	@Failure	404			{object}	error
//	@Security	ApiKeyAuth
//	@Router		/reservations/ref/{reference} [get]
func (app *application) getReservationByReferenceHandler(w http.ResponseWriter, r *http.Request) {
	view, err := app.engine.GetBookingByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if !visibleTo(getUserFromContext(r), view) {
		app.engineErrorResponse(w, r, reservation.ErrBookingNotFound)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// previewCancellationHandler godoc
//
//	@Summary		Preview a cancellation
//	@Description	Evaluates the active policy without cancelling
//	@Tags			reservations
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	cancellation.Decision
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error	"Already cancelled"
//	@Security		ApiKeyAuth
//	@Router			/reservations/{bookingID}/cancellation [get]
func (app *application) previewCancellationHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := idParam(r, "bookingID", "booking_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	view, err := app.engine.GetBooking(r.Context(), bookingID)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if !visibleTo(getUserFromContext(r), view) {
		app.engineErrorResponse(w, r, reservation.ErrBookingNotFound)
		return
	}

	decision, err := app.engine.PreviewCancellation(r.Context(), bookingID)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, decision); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelReservationHandler godoc
//
//	@Summary		Cancel a reservation
//	@Description	Applies the active cancellation policy. A granted refund waits for admin approval.
//	@Tags			reservations
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int							true	"Booking ID"
//	@Param			payload		body		CancelReservationPayload	false	"Optional reason"
//	@Success		200			{object}	reservation.RefundOutcome
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error	"Already cancelled"
//	@Failure		422			{object}	error	"Policy forbids cancellation"
//	@Security		ApiKeyAuth
//	@Router			/reservations/{bookingID}/cancel [post]
func (app *application) cancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	bookingID, err := idParam(r, "bookingID", "booking_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	var payload CancelReservationPayload
	if err := readOptionalJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	view, err := app.engine.GetBooking(r.Context(), bookingID)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if !visibleTo(user, view) {
		app.engineErrorResponse(w, r, reservation.ErrBookingNotFound)
		return
	}

	// one policy read per request
	policy, err := app.engine.ActivePolicy(r.Context())
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	out, err := app.engine.CancelReservation(r.Context(), reservation.CancelRequest{
		BookingID: bookingID,
		ActorID:   user.UserID,
		Reason:    payload.Reason,
		Policy:    &policy,
	})
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}
