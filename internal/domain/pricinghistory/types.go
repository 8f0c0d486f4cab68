package pricinghistory

import "time"

// Sample records one price computation for a lot. Rows are never updated.
type Sample struct {
	ID                  int64     `json:"id"`
	LotID               int64     `json:"lot_id"`
	SampledAt           time.Time `json:"sampled_at"`
	BasePriceCents      int64     `json:"base_price_cents"`
	DynamicPriceCents   int64     `json:"dynamic_price_cents"`
	OccupancyRate       float64   `json:"occupancy_rate"`
	TimeMultiplier      float64   `json:"time_multiplier"`
	VelocityMultiplier  float64   `json:"velocity_multiplier"`
	OccupancyMultiplier float64   `json:"occupancy_multiplier"`
}
