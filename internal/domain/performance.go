package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductPerformance is a per-run aggregate computed from the transaction
// window; it is never persisted.
type ProductPerformance struct {
	ProductID uuid.UUID `json:"product_id"`
	Revenue   float64   `json:"revenue"`
	Units     int       `json:"units"`
	LastSold  time.Time `json:"last_sold"`
}

// ZonePerformance aggregates visits and purchases per zone for the window.
type ZonePerformance struct {
	ZoneID      uuid.UUID `json:"zone_id"`
	Revenue     float64   `json:"revenue"`
	Visits      int       `json:"visits"`
	Conversions int       `json:"conversions"`
}

func (z *ZonePerformance) ConversionRate() float64 {
	if z == nil || z.Visits == 0 {
		return 0
	}
	return float64(z.Conversions) / float64(z.Visits)
}
