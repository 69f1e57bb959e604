package services

import (
	"errors"
	"io"
	"time"

	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/parsers"
)

var (
	// ErrParsingFailed wraps any failure to read or recognize an uploaded file.
	ErrParsingFailed = errors.New("parsing failed")
	// ErrProcessingFailed wraps failures after parsing, typically storage errors.
	ErrProcessingFailed = errors.New("processing failed")
)

// ImportSummary reports the outcome of one file import. It is returned to the
// uploader and persisted to the upload history.
type ImportSummary struct {
	BatchID        string    `json:"batch_id"`
	FileName       string    `json:"file_name"`
	FileType       string    `json:"file_type"` // "sales" or "customers"
	Source         string    `json:"source"`
	RowCount       int       `json:"row_count"`
	InsertedCount  int       `json:"inserted_count"`
	DuplicateCount int       `json:"duplicate_count"`
	SkippedCount   int       `json:"skipped_count"`
	Errors         []string  `json:"errors,omitempty"` // first few skip reasons
	Status         string    `json:"status"`           // "success" or "partial"
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// MonthlyView pairs a monthly aggregate with its growth rates for the
// monthly endpoint.
type MonthlyView struct {
	models.MonthlyAggregate
	MoMGrowth *float64 `json:"mom_growth"`
	YoYGrowth *float64 `json:"yoy_growth"`
}

// DashboardSummary is the headline KPI payload for the summary endpoint.
type DashboardSummary struct {
	TotalRevenue      float64                  `json:"total_revenue"`
	TotalTransactions int                      `json:"total_transactions"`
	TotalServices     int                      `json:"total_services"`
	TotalCustomers    int                      `json:"total_customers"`
	FirstActivityDay  string                   `json:"first_activity_day,omitempty"`
	LastActivityDay   string                   `json:"last_activity_day,omitempty"`
	CurrentMonth      *MonthlyView             `json:"current_month,omitempty"`
	PreviousMonth     *models.MonthlyAggregate `json:"previous_month,omitempty"`
	ForecastTrend     string                   `json:"forecast_trend,omitempty"`
	HighRiskCustomers int                      `json:"high_risk_customers"`
}

// ImportService ingests uploaded POS CSV exports into the store.
type ImportService interface {
	// ProcessImport parses, normalizes and stores one uploaded file. An empty
	// fileType means the type is sniffed from the file's header line.
	ProcessImport(fileReader io.Reader, fileName string, source string, fileType parsers.FileType) (*ImportSummary, error)
	History(limit int) ([]ImportSummary, error)
}

// AnalyticsService assembles the dashboard views from the stored
// transaction snapshot, caching each assembled payload.
type AnalyticsService interface {
	Summary() (*DashboardSummary, error)
	MonthlyViews() ([]MonthlyView, error)
	WeeklyAggregates() ([]models.WeeklyAggregate, error)
	DailyAggregates() ([]models.DailyAggregate, error)
	SeasonalIndices() ([]models.SeasonalIndexEntry, error)
	RevenueForecast() (models.Forecast, error)
	// CustomerProfiles returns profiles filtered by risk level and segment;
	// empty values mean no filter.
	CustomerProfiles(level models.RiskLevel, segment models.Segment) ([]models.CustomerProfile, error)
	// VisitHeatmap builds the visit grid; windowDays <= 0 selects the
	// configured default window.
	VisitHeatmap(windowDays int, segment models.Segment) (models.Heatmap, error)
	ComparePeriods(currentStart, currentEnd, baselineStart, baselineEnd time.Time) (models.PeriodComparison, error)
	InvalidateCache()
}
