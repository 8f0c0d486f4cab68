package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2026-03-07 is a Saturday.
var (
	saturdayPeak = time.Date(2026, time.March, 7, 18, 0, 0, 0, time.UTC)
	wednesdayOff = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
)

func TestCalculateWeekendPeakFullLot(t *testing.T) {
	q := Calculate(Input{
		BasePriceCents:    1000,
		TotalCapacity:     100,
		AvailableCapacity: 10,
		RecentBookings:    6,
		DurationHours:     2,
		Now:               saturdayPeak,
	})

	assert.InDelta(t, 1.43, q.TimeMultiplier, 1e-9)
	assert.Equal(t, 1.5, q.OccupancyMultiplier)
	assert.Equal(t, 1.2, q.VelocityMultiplier)
	assert.InDelta(t, 0.9, q.OccupancyRate, 1e-9)
	assert.Equal(t, int64(5148), q.FinalPriceCents)
	assert.Equal(t, saturdayPeak, q.ComputedAt)
}

func TestCalculateQuietWeekday(t *testing.T) {
	q := Calculate(Input{
		BasePriceCents:    500,
		TotalCapacity:     20,
		AvailableCapacity: 20,
		DurationHours:     2,
		Now:               wednesdayOff,
	})
	// 500 × 1.0 × 0.8 × 0.9 × 2
	assert.Equal(t, int64(720), q.FinalPriceCents)
}

func TestCalculateNeverNegative(t *testing.T) {
	q := Calculate(Input{BasePriceCents: 0, TotalCapacity: 10, AvailableCapacity: 5, DurationHours: 3, Now: wednesdayOff})
	assert.Zero(t, q.FinalPriceCents)
}

func TestTimeMultiplier(t *testing.T) {
	at := func(day, hour int) time.Time {
		return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
	}
	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"weekday off peak", at(4, 12), 1.0},
		{"morning peak opens", at(4, 7), 1.3},
		{"morning peak closed", at(4, 10), 1.0},
		{"evening peak last hour", at(4, 19), 1.3},
		{"evening peak closed", at(4, 20), 1.0},
		{"sunday off peak", at(8, 12), 1.1},
		{"saturday peak", at(7, 8), 1.43},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TimeMultiplier(tt.at), 1e-9)
		})
	}
}

func TestOccupancyMultiplierBands(t *testing.T) {
	assert.Equal(t, 0.8, OccupancyMultiplier(0))
	assert.Equal(t, 0.8, OccupancyMultiplier(0.2499))
	assert.Equal(t, 0.95, OccupancyMultiplier(0.25))
	assert.Equal(t, 1.0, OccupancyMultiplier(0.5))
	assert.Equal(t, 1.2, OccupancyMultiplier(0.75))
	assert.Equal(t, 1.5, OccupancyMultiplier(0.9))
	assert.Equal(t, 1.5, OccupancyMultiplier(1))
}

func TestVelocityMultiplierBands(t *testing.T) {
	assert.Equal(t, 0.9, VelocityMultiplier(0))
	assert.Equal(t, 0.9, VelocityMultiplier(1))
	assert.Equal(t, 1.0, VelocityMultiplier(2))
	assert.Equal(t, 1.2, VelocityMultiplier(5))
	assert.Equal(t, 1.4, VelocityMultiplier(10))
}

func TestOccupancyRateEmptyLot(t *testing.T) {
	assert.Zero(t, OccupancyRate(0, 0))
	assert.Equal(t, 0.25, OccupancyRate(4, 3))
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name   string
		prices []int64
		want   Trend
	}{
		{"no samples", nil, TrendStable},
		{"single sample", []int64{500}, TrendStable},
		{"two rising", []int64{600, 500}, TrendRising},
		{"falling", []int64{400, 400, 400, 500, 500}, TrendFalling},
		{"within threshold", []int64{510, 505, 500, 500, 500}, TrendStable},
		{"rising from zero", []int64{100, 0}, TrendRising},
		{"all zero", []int64{0, 0, 0}, TrendStable},
		{"recent group capped at three", []int64{700, 700, 700, 100, 100, 100}, TrendRising},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrendOf(tt.prices))
		})
	}
}
