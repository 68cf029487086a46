// Package recommend ranks charging stations for a driver.
package recommend

import "chargehub/internal/models"

// kmPerBatteryPercent is the fixed linear range model: 1% battery ~ 1 km.
const kmPerBatteryPercent = 1.0

// Recommend returns the best reachable station, or nil when the candidate set
// is empty or no station is reachable with the remaining battery.
//
// A station is reachable iff batteryPercent * kmPerBatteryPercent covers
// distanceKm. Among reachable stations the score is greenScore*2 - price;
// the highest score wins and ties go to the first candidate in input order.
// Pure and deterministic, no I/O.
func Recommend(batteryPercent int, distanceKm float64, candidates []models.Station) *models.Station {
	maxDistance := float64(batteryPercent) * kmPerBatteryPercent
	if maxDistance < distanceKm {
		return nil
	}

	best := -1
	var bestScore float64
	for i, s := range candidates {
		score := float64(s.GreenScore)*2 - s.PricePerUnit
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best == -1 {
		return nil
	}

	station := candidates[best]
	return &station
}
