// Package risk tags inventory with its overstock/spoilage risk.
package risk

import "ecostock/internal/model"

// Thresholds of the classification rule. Demand ratios are fractions of
// current stock; day bounds are on days until expiry.
const (
	HighDemandRatio   = 0.7
	MediumDemandRatio = 0.9
	ImminentExpiry    = 5
	SoonExpiry        = 8
)

// Classify returns the risk level of one record. HIGH needs both a demand
// shortfall below 70% of stock and expiry within 5 days; MEDIUM needs either
// a shortfall below 90% of stock or expiry in [5, 8) days.
func Classify(predictedDemand float64, stockQty int, daysToExpire int) model.RiskLevel {
	stock := float64(stockQty)

	high := predictedDemand < HighDemandRatio*stock && daysToExpire < ImminentExpiry
	medium := predictedDemand < MediumDemandRatio*stock ||
		(daysToExpire >= ImminentExpiry && daysToExpire < SoonExpiry)

	switch {
	case high:
		return model.RiskHigh
	case medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Apply sets RiskLevel on every record from its PredictedDemand, StockQty
// and DaysToExpire.
func Apply(records []model.AnnotatedRecord) {
	for i := range records {
		r := &records[i]
		r.RiskLevel = Classify(r.PredictedDemand, r.StockQty, r.DaysToExpire)
	}
}
