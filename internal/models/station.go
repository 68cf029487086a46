package models

// Station is a charging site registered by an owner. Capacity and pricing are
// fixed at creation; only the approval flag changes afterwards (admin action).
type Station struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Location     string  `db:"location" json:"location"`
	Chargers     int     `db:"chargers" json:"chargers"`
	PricePerUnit float64 `db:"price_per_unit" json:"price_per_unit"`
	GreenScore   int     `db:"green_score" json:"green_score"`
	OwnerID      int64   `db:"owner_id" json:"owner_id"`
	Approved     bool    `db:"approved" json:"approved"`
}
