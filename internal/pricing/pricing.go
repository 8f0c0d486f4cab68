// Package pricing computes demand-sensitive booking prices. Everything here is
// a pure function of its inputs; callers supply the clock and the snapshots.
package pricing

import (
	"math"
	"time"
)

const (
	weekendMultiplier = 1.1
	peakMultiplier    = 1.3
)

// peak bands are [start, end) hours of the local day.
var peakBands = [][2]int{{7, 10}, {17, 20}}

type Input struct {
	BasePriceCents    int64
	TotalCapacity     int
	AvailableCapacity int
	// RecentBookings is the count of bookings created for the lot in the
	// trailing hour.
	RecentBookings int
	DurationHours  int
	// Now must already be in the service time zone.
	Now time.Time
}

type Quote struct {
	BasePriceCents      int64     `json:"base_price_cents"`
	FinalPriceCents     int64     `json:"final_price_cents"`
	DurationHours       int       `json:"duration_hours"`
	OccupancyRate       float64   `json:"occupancy_rate"`
	TimeMultiplier      float64   `json:"time_multiplier"`
	OccupancyMultiplier float64   `json:"occupancy_multiplier"`
	VelocityMultiplier  float64   `json:"velocity_multiplier"`
	ComputedAt          time.Time `json:"computed_at"`
}

func Calculate(in Input) Quote {
	occ := OccupancyRate(in.TotalCapacity, in.AvailableCapacity)
	q := Quote{
		BasePriceCents:      in.BasePriceCents,
		DurationHours:       in.DurationHours,
		OccupancyRate:       occ,
		TimeMultiplier:      TimeMultiplier(in.Now),
		OccupancyMultiplier: OccupancyMultiplier(occ),
		VelocityMultiplier:  VelocityMultiplier(in.RecentBookings),
		ComputedAt:          in.Now,
	}
	raw := float64(in.BasePriceCents) * q.TimeMultiplier * q.OccupancyMultiplier * q.VelocityMultiplier * float64(in.DurationHours)
	q.FinalPriceCents = int64(math.Max(0, math.Round(raw)))
	return q
}

func OccupancyRate(total, available int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-available) / float64(total)
}

// TimeMultiplier composes the weekend and peak-hour factors multiplicatively.
func TimeMultiplier(t time.Time) float64 {
	m := 1.0
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		m *= weekendMultiplier
	}
	h := t.Hour()
	for _, band := range peakBands {
		if h >= band[0] && h < band[1] {
			m *= peakMultiplier
			break
		}
	}
	return m
}

func OccupancyMultiplier(rate float64) float64 {
	switch {
	case rate >= 0.90:
		return 1.5
	case rate >= 0.75:
		return 1.2
	case rate >= 0.50:
		return 1.0
	case rate >= 0.25:
		return 0.95
	default:
		return 0.8
	}
}

func VelocityMultiplier(recent int) float64 {
	switch {
	case recent >= 10:
		return 1.4
	case recent >= 5:
		return 1.2
	case recent >= 2:
		return 1.0
	default:
		return 0.9
	}
}
