package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"parkspot/internal/availability"
	"parkspot/internal/reservation"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// report json names so payload errors line up with engine errors
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	Validate.RegisterValidation("vehicle", func(fl validator.FieldLevel) bool {
		_, ok := reservation.NormalizeVehicle(fl.Field().String())
		return ok
	})
	Validate.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
		_, ok := reservation.NormalizeContact(fl.Field().String())
		return ok
	})
	Validate.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		_, _, err := availability.ParseSlot(strings.ToUpper(fl.Field().String()))
		return err == nil
	})
}

// validatePayload runs the struct tags and reports the first failure as a
// field-identified error.
func validatePayload(payload any) error {
	err := Validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &reservation.ValidationError{Field: fe.Field(), Message: "failed the " + fe.Tag() + " check"}
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// it parses body into Go struct.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1_048_578 //1mb
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(data)
}

// readOptionalJSON is readJSON for endpoints where the body may be omitted.
func readOptionalJSON(w http.ResponseWriter, r *http.Request, data any) error {
	if err := readJSON(w, r, data); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Code    string `json:"code,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, &errorEnvelope{
		Success: false,
		Message: message,
		Status:  status,
	})
}

func (app *application) jsonResponse(w http.ResponseWriter, status int, data any) error {
	type envelope struct {
		Data any `json:"data"`
	}
	return writeJSON(w, status, &envelope{Data: data})
}
