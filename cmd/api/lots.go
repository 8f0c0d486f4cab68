package main

import (
	"net/http"
	"strings"

	"parkspot/internal/reservation"
)

// listLotsHandler godoc
//
//	@Summary		List parking lots
//	@Description	Returns every lot with its capacity counters and base price
//	@Tags			lots
//	@Produce		json
//	@Success		200	{array}		lots.Lot
//	@Failure		503	{object}	error
//	@Router			/lots [get]
func (app *application) listLotsHandler(w http.ResponseWriter, r *http.Request) {
	ls, err := app.engine.ListLots(r.Context())
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, ls); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getLotHandler godoc
//
//	@Summary	Get a parking lot
//	@Tags		lots
//	@Produce	json
//	@Param		lotID	path		int	true	"Lot ID"
//	@Success	200		{object}	lots.Lot
//	@Failure	404		{object}	error
//	@Router		/lots/{lotID} [get]
func (app *application) getLotHandler(w http.ResponseWriter, r *http.Request) {
	lotID, err := idParam(r, "lotID", "lot_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	l, err := app.engine.GetLot(r.Context(), lotID)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, l); err != nil {
		app.internalServerError(w, r, err)
	}
}

// checkAvailabilityHandler godoc
//
//	@Summary		Check slot availability
//	@Description	Lists the slots free for the window starting at date and time. The answer is advisory; booking re-checks.
//	@Tags			lots
//	@Produce		json
//	@Param			lotID		path		int		true	"Lot ID"
//	@Param			date		query		string	true	"Start date (YYYY-MM-DD)"
//	@Param			time		query		string	true	"Start time (HH:MM)"
//	@Param			duration	query		int		true	"Duration in hours (1-24)"
//	@Success		200			{object}	reservation.Availability
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Router			/lots/{lotID}/availability [get]
func (app *application) checkAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	lotID, err := idParam(r, "lotID", "lot_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	duration, err := intQuery(r, "duration", "duration_hours", 0)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	q := r.URL.Query()
	av, err := app.engine.CheckAvailability(r.Context(), reservation.AvailabilityQuery{
		LotID:         lotID,
		StartDate:     strings.TrimSpace(q.Get("date")),
		StartTime:     strings.TrimSpace(q.Get("time")),
		DurationHours: duration,
	})
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, av); err != nil {
		app.internalServerError(w, r, err)
	}
}

// priceQuoteHandler godoc
//
//	@Summary		Quote a price
//	@Description	Prices a stay starting now from occupancy, time of day and booking velocity
//	@Tags			lots
//	@Produce		json
//	@Param			lotID		path		int	true	"Lot ID"
//	@Param			duration	query		int	false	"Duration in hours (default 1)"
//	@Success		200			{object}	pricing.Quote
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Router			/lots/{lotID}/quote [get]
func (app *application) priceQuoteHandler(w http.ResponseWriter, r *http.Request) {
	lotID, err := idParam(r, "lotID", "lot_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	duration, err := intQuery(r, "duration", "duration_hours", 1)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	quote, err := app.engine.PriceQuote(r.Context(), lotID, duration)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, quote); err != nil {
		app.internalServerError(w, r, err)
	}
}

// pricingTrendHandler godoc
//
//	@Summary	Price trend
//	@Tags		lots
//	@Produce	json
//	@Param		lotID	path		int	true	"Lot ID"
//	@Param		samples	query		int	false	"Number of recent samples (default 10, max 100)"
//	@Success	200		{object}	reservation.TrendReport
//	@Failure	404		{object}	error
//	@Router		/lots/{lotID}/pricing/trend [get]
func (app *application) pricingTrendHandler(w http.ResponseWriter, r *http.Request) {
	lotID, err := idParam(r, "lotID", "lot_id")
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	n, err := intQuery(r, "samples", "samples", 0)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	report, err := app.engine.PricingTrend(r.Context(), lotID, n)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, report); err != nil {
		app.internalServerError(w, r, err)
	}
}
