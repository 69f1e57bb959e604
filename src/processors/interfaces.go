package processors

import (
	"time"

	"github.com/username/lavametrics/backend/src/models"
)

// SkippedRow records why one input row was dropped during normalization.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// SalesNormalizeResult carries the normalized transactions plus the rows
// that were dropped, so imports can report data-quality diagnostics.
type SalesNormalizeResult struct {
	Transactions []models.Transaction
	Skipped      []SkippedRow
}

// CustomerNormalizeResult carries the normalized registry entries plus the
// rows that were dropped.
type CustomerNormalizeResult struct {
	Customers []models.CustomerRecord
	Skipped   []SkippedRow
}

// RecordNormalizer converts raw POS rows into canonical records. Malformed
// rows are dropped and reported, never fatal to the batch.
type RecordNormalizer interface {
	NormalizeSales(rows []models.RawSaleRow) SalesNormalizeResult
	NormalizeCustomers(rows []models.RawCustomerRow) CustomerNormalizeResult
}

// TemporalAggregator rolls canonical transactions into calendar buckets.
type TemporalAggregator interface {
	AggregateMonthly(transactions []models.Transaction) []models.MonthlyAggregate
	AggregateWeekly(transactions []models.Transaction) []models.WeeklyAggregate
	AggregateDaily(transactions []models.Transaction) []models.DailyAggregate
}

// GrowthProcessor derives growth series, seasonal indices and the OLS
// revenue forecast from the monthly aggregates.
type GrowthProcessor interface {
	GrowthSeries(monthly []models.MonthlyAggregate) []models.GrowthEntry
	SeasonalIndices(monthly []models.MonthlyAggregate) []models.SeasonalIndexEntry
	Forecast(monthly []models.MonthlyAggregate) models.Forecast
}

// CustomerProcessor computes per-customer lifetime aggregates, loyalty
// segments and churn-risk scores as of a reference time.
type CustomerProcessor interface {
	BuildProfiles(transactions []models.Transaction, registry map[string]models.CustomerRecord, asOf time.Time) []models.CustomerProfile
}

// HeatmapProcessor builds the weekday-by-hour visit density grid over a
// trailing window ending at asOf. segment filters the grid to customers in
// one loyalty tier; empty means all customers.
type HeatmapProcessor interface {
	Build(transactions []models.Transaction, segments map[string]models.Segment, segment models.Segment, asOf time.Time, windowDays int) models.Heatmap
}

// ComparisonProcessor computes independent metric snapshots for two
// arbitrary, possibly overlapping date ranges and the delta between them.
type ComparisonProcessor interface {
	Compare(transactions []models.Transaction, currentStart, currentEnd, baselineStart, baselineEnd time.Time) (models.PeriodComparison, error)
}
