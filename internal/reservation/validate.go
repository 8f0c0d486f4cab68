package reservation

import (
	"strings"
	"time"
	"unicode"

	"parkspot/internal/availability"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	minVehicleLen = 3
	maxVehicleLen = 15
	minContactLen = 10
	maxContactLen = 15
)

type CreateRequest struct {
	LotID         int64
	StartDate     string // YYYY-MM-DD in the service time zone
	StartTime     string // HH:MM
	DurationHours int
	// SlotID is optional; the first free slot in grid order is assigned
	// when empty.
	SlotID        string
	Vehicle       string
	Contact       string
	Email         string
	RequesterID   int64
	NonRefundable bool
}

// NormalizeVehicle trims and upper-cases a plate. ok is false unless the
// result is 3 to 15 letters, digits, spaces or hyphens with at least one
// letter or digit.
func NormalizeVehicle(s string) (string, bool) {
	v := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	n := 0
	alnum := false
	for _, r := range v {
		n++
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			alnum = true
		case r == ' ' || r == '-':
		default:
			return "", false
		}
	}
	if n < minVehicleLen || n > maxVehicleLen || !alnum {
		return "", false
	}
	return v, true
}

// NormalizeContact strips phone punctuation and a leading plus. ok is false
// unless 10 to 15 digits remain.
func NormalizeContact(s string) (string, bool) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		case r == '+' && i == 0:
		default:
			return "", false
		}
	}
	digits := b.String()
	if len(digits) < minContactLen || len(digits) > maxContactLen {
		return "", false
	}
	return digits, true
}

func validDuration(hours int) error {
	if hours < MinDurationHours || hours > MaxDurationHours {
		return invalid("duration_hours", "must be between %d and %d", MinDurationHours, MaxDurationHours)
	}
	return nil
}

// parseStart resolves a calendar date and wall clock in the service zone and
// checks the start lies in the future and within the advance horizon.
func (e *Engine) parseStart(date, clock string, now time.Time) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), e.loc)
	if err != nil {
		return time.Time{}, invalid("start_date", "must be a date in YYYY-MM-DD form")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)
	if day.Before(today) {
		return time.Time{}, invalid("start_date", "must not be in the past")
	}
	if day.After(today.AddDate(0, 0, MaxAdvanceDays)) {
		return time.Time{}, invalid("start_date", "must be within %d days", MaxAdvanceDays)
	}

	tod, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, invalid("start_time", "must be a time in HH:MM form")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, e.loc)
	if !start.After(now) {
		return time.Time{}, invalid("start_time", "must be in the future")
	}
	return start, nil
}

// validateCreate checks fields in a fixed order and normalizes req in place.
func (e *Engine) validateCreate(req *CreateRequest, now time.Time) (time.Time, error) {
	if req.LotID <= 0 {
		return time.Time{}, invalid("lot_id", "is required")
	}
	start, err := e.parseStart(req.StartDate, req.StartTime, now)
	if err != nil {
		return time.Time{}, err
	}
	if err := validDuration(req.DurationHours); err != nil {
		return time.Time{}, err
	}

	req.SlotID = strings.ToUpper(strings.TrimSpace(req.SlotID))
	if req.SlotID != "" {
		if _, _, err := availability.ParseSlot(req.SlotID); err != nil {
			return time.Time{}, invalid("slot_id", "must look like A1")
		}
	}

	vehicle, ok := NormalizeVehicle(req.Vehicle)
	if !ok {
		return time.Time{}, invalid("vehicle", "must be %d to %d letters, digits, spaces or hyphens", minVehicleLen, maxVehicleLen)
	}
	req.Vehicle = vehicle

	contact, ok := NormalizeContact(req.Contact)
	if !ok {
		return time.Time{}, invalid("contact", "must contain %d to %d digits", minContactLen, maxContactLen)
	}
	req.Contact = contact

	if req.RequesterID <= 0 {
		return time.Time{}, invalid("requester_id", "is required")
	}
	req.Email = strings.TrimSpace(req.Email)
	return start, nil
}
