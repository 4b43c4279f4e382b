package model

// SuggestionText is the action proposed for every at-risk record.
const SuggestionText = "Consider discounting, bundling, or adjusting reorder volume."

// InventoryRecordRequest is the JSON body for adding or staging a record.
// ExpiryDate uses DateLayout.
type InventoryRecordRequest struct {
	Product     string   `json:"product"`
	Category    Category `json:"category"`
	StockQty    int      `json:"stockQty"`
	WeeklySales float64  `json:"weeklySales"`
	ExpiryDate  string   `json:"expiryDate"`
	StoreID     StoreID  `json:"storeId"`
	Weather     Weather  `json:"weather"`
	HolidayFlag bool     `json:"holidayFlag"`
}

// DashboardRow is one annotated record as rendered by the API.
type DashboardRow struct {
	Product         string    `json:"product"`
	Category        Category  `json:"category"`
	StockQty        int       `json:"stockQty"`
	WeeklySales     float64   `json:"weeklySales"`
	ExpiryDate      string    `json:"expiryDate"`
	StoreID         StoreID   `json:"storeId"`
	Weather         Weather   `json:"weather"`
	HolidayFlag     bool      `json:"holidayFlag"`
	DaysToExpire    int       `json:"daysToExpire"`
	PredictedDemand float64   `json:"predictedDemand"`
	RiskLevel       RiskLevel `json:"riskLevel"`
}

// NewDashboardRow flattens an annotated record.
func NewDashboardRow(r AnnotatedRecord) DashboardRow {
	return DashboardRow{
		Product:         r.Product,
		Category:        r.Category,
		StockQty:        r.StockQty,
		WeeklySales:     r.WeeklySales,
		ExpiryDate:      r.ExpiryDate.Format(DateLayout),
		StoreID:         r.StoreID,
		Weather:         r.Weather,
		HolidayFlag:     r.HolidayFlag,
		DaysToExpire:    r.DaysToExpire,
		PredictedDemand: r.PredictedDemand,
		RiskLevel:       r.RiskLevel,
	}
}

// Suggestion is an at-risk record with the proposed action.
type Suggestion struct {
	DashboardRow
	Suggestion string `json:"suggestion"`
}

// DashboardSummary carries the headline counts of the filtered view.
type DashboardSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// RiskCount is one bar of the risk distribution chart.
type RiskCount struct {
	RiskLevel RiskLevel `json:"riskLevel"`
	Count     int       `json:"count"`
}

// SalesPoint is one group of the sales versus predicted demand chart.
type SalesPoint struct {
	Product         string  `json:"product"`
	WeeklySales     float64 `json:"weeklySales"`
	PredictedDemand float64 `json:"predictedDemand"`
}

// DashboardResponse is the payload of the dashboard endpoints.
type DashboardResponse struct {
	Summary          DashboardSummary `json:"summary"`
	Categories       []Category       `json:"categories"`
	Records          []DashboardRow   `json:"records"`
	HighRisk         []DashboardRow   `json:"highRisk"`
	Suggestions      []Suggestion     `json:"suggestions"`
	RiskDistribution []RiskCount      `json:"riskDistribution"`
	SalesVsPredicted []SalesPoint     `json:"salesVsPredicted"`
	Fallback         bool             `json:"fallback"`
}

// DeleteResponse reports how many stored records a delete removed.
type DeleteResponse struct {
	Removed int `json:"removed"`
}

// SessionResponse describes a staging session.
type SessionResponse struct {
	ID     string `json:"id"`
	Staged int    `json:"staged"`
}
