package model

import (
	"math"
	"time"
)

// DateLayout is the on-disk and on-wire format of ExpiryDate.
const DateLayout = "2006-01-02"

// MaxStockQty is the largest stock count any store can hold.
const MaxStockQty = math.MaxInt32

// Category is a product category.
type Category string

const (
	CategoryDairy      Category = "Dairy"
	CategoryBakery     Category = "Bakery"
	CategoryBeverages  Category = "Beverages"
	CategoryFruits     Category = "Fruits"
	CategoryPackaged   Category = "Packaged"
	CategorySnacks     Category = "Snacks"
	CategoryCondiments Category = "Condiments"
)

// Categories lists every category accepted for new entries, in display order.
var Categories = []Category{
	CategoryDairy,
	CategoryBakery,
	CategoryBeverages,
	CategoryFruits,
	CategoryPackaged,
	CategorySnacks,
	CategoryCondiments,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// StoreID identifies a retail store.
type StoreID string

const (
	StoreS01 StoreID = "S01"
	StoreS02 StoreID = "S02"
	StoreS03 StoreID = "S03"
)

// StoreIDs lists every store accepted for new entries.
var StoreIDs = []StoreID{StoreS01, StoreS02, StoreS03}

// Valid reports whether s is one of the known stores.
func (s StoreID) Valid() bool {
	for _, known := range StoreIDs {
		if s == known {
			return true
		}
	}
	return false
}

// Weather is the weather condition recorded alongside the sales week.
type Weather string

const (
	WeatherSunny  Weather = "Sunny"
	WeatherCloudy Weather = "Cloudy"
	WeatherRainy  Weather = "Rainy"
	WeatherHot    Weather = "Hot"
)

// WeatherConditions lists every weather value accepted for new entries.
var WeatherConditions = []Weather{WeatherSunny, WeatherCloudy, WeatherRainy, WeatherHot}

// Valid reports whether w is one of the known weather conditions.
func (w Weather) Valid() bool {
	for _, known := range WeatherConditions {
		if w == known {
			return true
		}
	}
	return false
}

// InventoryRecord is one stored row: a product held by a store with a given expiry.
type InventoryRecord struct {
	Product     string    `json:"product" db:"product"`
	Category    Category  `json:"category" db:"category"`
	StockQty    int       `json:"stockQty" db:"stock_qty"`
	WeeklySales float64   `json:"weeklySales" db:"weekly_sales"`
	ExpiryDate  time.Time `json:"expiryDate" db:"expiry_date"`
	StoreID     StoreID   `json:"storeId" db:"store_id"`
	Weather     Weather   `json:"weather" db:"weather"`
	HolidayFlag bool      `json:"holidayFlag" db:"holiday_flag"`
}

// Key returns the tuple used to match the record for deletion.
func (r InventoryRecord) Key() IdentityKey {
	return IdentityKey{
		Product:    r.Product,
		Category:   r.Category,
		StoreID:    r.StoreID,
		ExpiryDate: NormalizeDate(r.ExpiryDate),
	}
}

// HolidayValue returns the holiday flag as the numeric 0/1 feature.
func (r InventoryRecord) HolidayValue() float64 {
	if r.HolidayFlag {
		return 1
	}
	return 0
}

// IdentityKey identifies records for deletion. It is not unique: every
// stored row with the same tuple matches.
type IdentityKey struct {
	Product    string
	Category   Category
	StoreID    StoreID
	ExpiryDate time.Time
}

// Matches reports whether the record carries this identity.
func (k IdentityKey) Matches(r InventoryRecord) bool {
	return r.Product == k.Product &&
		r.Category == k.Category &&
		r.StoreID == k.StoreID &&
		NormalizeDate(r.ExpiryDate).Equal(NormalizeDate(k.ExpiryDate))
}

// NormalizeDate truncates t to midnight UTC of its calendar date.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from "from" to "to".
// The result is negative when "to" is earlier.
func DaysBetween(from, to time.Time) int {
	return int(NormalizeDate(to).Sub(NormalizeDate(from)).Hours() / 24)
}

// DaysUntil returns the whole days left from the instant now until the start
// of expiry's calendar date, rounded toward negative infinity. Past midnight
// an item expiring today is at -1 and one expiring in five dates is at 4.
// The expiry date is read as midnight in now's location.
func DaysUntil(now, expiry time.Time) int {
	y, m, d := expiry.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return int(math.Floor(start.Sub(now).Hours() / 24))
}

// RiskLevel is the overstock/spoilage risk tag.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Rank orders levels for display: HIGH sorts first.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskHigh:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

// AtRisk reports whether the level warrants action.
func (l RiskLevel) AtRisk() bool {
	return l == RiskHigh || l == RiskMedium
}

// AnnotatedRecord is a record plus the fields derived by one pipeline run.
// The derived fields are never persisted.
type AnnotatedRecord struct {
	InventoryRecord
	DaysToExpire    int       `json:"daysToExpire"`
	PredictedDemand float64   `json:"predictedDemand"`
	RiskLevel       RiskLevel `json:"riskLevel"`
}
