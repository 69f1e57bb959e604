package models

import "time"

// MonthlyAggregate is one month's worth of rolled-up business activity.
// Monetary values are rounded to two decimals after summation.
type MonthlyAggregate struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	MonthKey         string  `json:"month_key"` // "2006-01"
	Revenue          float64 `json:"revenue"`   // net revenue from machine sales
	GrossRevenue     float64 `json:"gross_revenue"`
	TopUpVolume      float64 `json:"top_up_volume"` // wallet recharges, excluded from revenue
	TransactionCount int     `json:"transaction_count"`
	ServiceCount     int     `json:"service_count"` // machine cycles sold
	WashCount        int     `json:"wash_count"`
	DryCount         int     `json:"dry_count"`
	UniqueCustomers  int     `json:"unique_customers"`
	ActiveDays       int     `json:"active_days"`
	AvgTicket        float64 `json:"avg_ticket"`
	AvgDailyRevenue  float64 `json:"avg_daily_revenue"`
	UtilizationPct   float64 `json:"utilization_pct"`
}

// DailyAggregate is one calendar day's worth of rolled-up activity.
type DailyAggregate struct {
	DayKey           string  `json:"day_key"` // "2006-01-02"
	Weekday          int     `json:"weekday"` // 0 = Sunday
	IsWeekend        bool    `json:"is_weekend"`
	Revenue          float64 `json:"revenue"`
	TransactionCount int     `json:"transaction_count"`
	ServiceCount     int     `json:"service_count"`
	WashCount        int     `json:"wash_count"`
	DryCount         int     `json:"dry_count"`
	UniqueCustomers  int     `json:"unique_customers"`
}

// WeeklyAggregate is one Sunday-to-Saturday week's worth of activity. The
// active-day count covers the observed window inside the week, computed from
// calendar components so it is always an exact integer.
type WeeklyAggregate struct {
	WeekStart        string  `json:"week_start"` // Sunday, "2006-01-02"
	Revenue          float64 `json:"revenue"`
	TransactionCount int     `json:"transaction_count"`
	ServiceCount     int     `json:"service_count"`
	WashCount        int     `json:"wash_count"`
	DryCount         int     `json:"dry_count"`
	UniqueCustomers  int     `json:"unique_customers"`
	ActiveDays       int     `json:"active_days"`
	UtilizationPct   float64 `json:"utilization_pct"`
}

// GrowthEntry carries one month's revenue with its growth rates. A nil rate
// means the reference month is absent from the history, which is distinct
// from a genuine 0% change.
type GrowthEntry struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	MonthKey  string   `json:"month_key"`
	Revenue   float64  `json:"revenue"`
	MoMGrowth *float64 `json:"mom_growth"` // percent vs previous month
	YoYGrowth *float64 `json:"yoy_growth"` // percent vs same month last year
}

// Seasonal performance tiers, assigned from the seasonal index.
const (
	TierStrong  = "strong"  // index > 110
	TierAverage = "average" // 90 <= index <= 110
	TierWeak    = "weak"    // index < 90
)

// SeasonalIndexEntry is one calendar month's average revenue expressed
// relative to the all-months average (index 100 = exactly average).
type SeasonalIndexEntry struct {
	Month       int     `json:"month"` // 1 = January
	MonthName   string  `json:"month_name"`
	AvgRevenue  float64 `json:"avg_revenue"`
	Index       float64 `json:"index"`
	Performance string  `json:"performance"`
	SampleSize  int     `json:"sample_size"` // how many occurrences of this month were averaged
}

// ForecastPoint is one month on the projected revenue path. Historical
// anchor points carry IsForecast=false.
type ForecastPoint struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	MonthKey   string  `json:"month_key"`
	Revenue    float64 `json:"revenue"`
	IsForecast bool    `json:"is_forecast"`
}

// Forecast is the OLS revenue projection with its fit diagnostics.
type Forecast struct {
	Points       []ForecastPoint `json:"points"`
	Slope        float64         `json:"slope"` // currency units per month
	Intercept    float64         `json:"intercept"`
	RSquared     float64         `json:"r_squared"`
	WindowMonths int             `json:"window_months"` // months of history the fit used
	Trend        string          `json:"trend"`         // "growing", "declining" or "flat"
}

// HeatmapCell is one (weekday, hour) slot of the visit heatmap. Band ranks
// the cell's density against the non-empty cells of the same heatmap:
// 0 empty, 1 <= p50, 2 <= p75, 3 <= p90, 4 <= p95, 5 above p95.
type HeatmapCell struct {
	Weekday int `json:"weekday"` // 0 = Sunday
	Hour    int `json:"hour"`
	Visits  int `json:"visits"`
	Band    int `json:"band"`
}

// HeatmapPeak identifies the busiest slot of the heatmap.
type HeatmapPeak struct {
	Weekday int `json:"weekday"`
	Hour    int `json:"hour"`
	Visits  int `json:"visits"`
}

// QuantileThresholds are the visit-count cut points computed over the
// non-empty cells of a heatmap.
type QuantileThresholds struct {
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

// Heatmap is the full weekday-by-hour visit density grid over the
// configured operating window. Every slot is present even when empty.
type Heatmap struct {
	Cells       []HeatmapCell      `json:"cells"`
	Thresholds  QuantileThresholds `json:"thresholds"`
	Peak        HeatmapPeak        `json:"peak"`
	OpeningHour int                `json:"opening_hour"`
	ClosingHour int                `json:"closing_hour"`
	WindowDays  int                `json:"window_days"`
	TotalVisits int                `json:"total_visits"`
}

// PeriodSnapshot is the rolled-up activity of one arbitrary date window.
type PeriodSnapshot struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Days             int       `json:"days"`
	Revenue          float64   `json:"revenue"`
	TransactionCount int       `json:"transaction_count"`
	ServiceCount     int       `json:"service_count"`
	WashCount        int       `json:"wash_count"`
	DryCount         int       `json:"dry_count"`
	UniqueCustomers  int       `json:"unique_customers"`
	AvgTicket        float64   `json:"avg_ticket"`
	AvgDailyRevenue  float64   `json:"avg_daily_revenue"`
}

// PeriodComparison holds two period snapshots with the percentage delta of
// each headline metric (current vs baseline).
type PeriodComparison struct {
	Current  PeriodSnapshot     `json:"current"`
	Baseline PeriodSnapshot     `json:"baseline"`
	Deltas   map[string]float64 `json:"deltas"`
}
