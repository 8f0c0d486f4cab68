package lots

import (
	"errors"
	"time"
)

const QueryTimeoutDuration = time.Second * 5

var (
	ErrNotFound   = errors.New("lot not found")
	ErrNoCapacity = errors.New("lot has no available capacity")
)

// Lot is a parking facility with a fixed zone grid and a capacity counter.
type Lot struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	TotalCapacity     int       `json:"total_capacity"`
	AvailableCapacity int       `json:"available_capacity"`
	BasePriceCents    int64     `json:"base_price_cents"`
	Zones             []string  `json:"zones"`
	SlotsPerZone      int       `json:"slots_per_zone"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Occupancy returns the reserved fraction of the lot, 0 for an empty lot.
func (l *Lot) Occupancy() float64 {
	if l.TotalCapacity <= 0 {
		return 0
	}
	return float64(l.TotalCapacity-l.AvailableCapacity) / float64(l.TotalCapacity)
}
