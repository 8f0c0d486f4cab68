package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"parkspot/internal/reservation"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	secs := max(1, int(retryAfter.Round(time.Second)/time.Second))
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after "+strconv.Itoa(secs)+"s")
}

// engineErrorResponse maps reservation errors to HTTP statuses.
func (app *application) engineErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *reservation.ValidationError
		cerr *reservation.ConflictError
		perr *reservation.PolicyError
	)
	env := errorEnvelope{Message: err.Error()}

	switch reservation.KindOf(err) {
	case reservation.KindValidation:
		errors.As(err, &verr)
		env.Status, env.Field = http.StatusBadRequest, verr.Field
	case reservation.KindNotFound:
		env.Status = http.StatusNotFound
	case reservation.KindConflict:
		errors.As(err, &cerr)
		env.Status, env.Code = http.StatusConflict, cerr.Code
	case reservation.KindPolicy:
		errors.As(err, &perr)
		env.Status, env.Reason = http.StatusUnprocessableEntity, string(perr.Reason)
	case reservation.KindTransient:
		app.logger.Errorw("transient failure", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		env.Status, env.Message = http.StatusServiceUnavailable, "temporarily unavailable, please retry"
	default:
		app.internalServerError(w, r, err)
		return
	}

	if env.Status < http.StatusInternalServerError {
		app.logger.Infow("request rejected", "method", r.Method, "path", r.URL.Path, "status", env.Status, "error", err.Error())
	}
	writeJSON(w, env.Status, &env)
}
