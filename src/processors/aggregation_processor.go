package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/utils"
)

// bucketAccumulator collects one calendar bucket's running totals. Monetary
// sums stay unrounded until the bucket is finalized.
type bucketAccumulator struct {
	revenue     float64
	gross       float64
	topUpVolume float64
	txCount     int
	saleCount   int // transactions that are not wallet top-ups
	washCount   int
	dryCount    int
	customers   map[string]struct{}
	firstSeen   time.Time
	lastSeen    time.Time
}

func newBucketAccumulator() *bucketAccumulator {
	return &bucketAccumulator{customers: make(map[string]struct{})}
}

// add folds one transaction into the bucket. Top-ups count toward activity
// (unique customers, window presence, volume) but never toward revenue or
// services. Service counts are restricted to the operating-hour window;
// out-of-hours sales still contribute revenue.
func (b *bucketAccumulator) add(tx *models.Transaction, openingHour, closingHour int) {
	b.txCount++
	if tx.CustomerID != "" {
		b.customers[tx.CustomerID] = struct{}{}
	}
	if b.firstSeen.IsZero() || tx.Timestamp.Before(b.firstSeen) {
		b.firstSeen = tx.Timestamp
	}
	if tx.Timestamp.After(b.lastSeen) {
		b.lastSeen = tx.Timestamp
	}

	if tx.IsTopUp {
		b.topUpVolume += tx.PaidAmount
		return
	}

	b.saleCount++
	b.revenue += tx.NetAmount
	b.gross += tx.GrossAmount
	if tx.Hour >= openingHour && tx.Hour < closingHour {
		b.washCount += tx.WashUnits
		b.dryCount += tx.DryUnits
	}
}

type aggregationProcessorImpl struct {
	business    config.BusinessConfig
	utilization *UtilizationCalculator
}

func NewAggregationProcessor(business config.BusinessConfig) TemporalAggregator {
	return &aggregationProcessorImpl{
		business:    business,
		utilization: NewUtilizationCalculator(business),
	}
}

// AggregateMonthly returns one aggregate per (year, month) present in the
// input, sorted chronologically. No synthetic empty months are emitted.
func (p *aggregationProcessorImpl) AggregateMonthly(transactions []models.Transaction) []models.MonthlyAggregate {
	buckets := make(map[string]*bucketAccumulator)
	months := make(map[string][2]int)
	for i := range transactions {
		tx := &transactions[i]
		key := fmt.Sprintf("%04d-%02d", tx.Year, tx.Month)
		bucket, ok := buckets[key]
		if !ok {
			bucket = newBucketAccumulator()
			buckets[key] = bucket
			months[key] = [2]int{tx.Year, tx.Month}
		}
		bucket.add(tx, p.business.OpeningHour, p.business.ClosingHour)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	loc := p.business.Location
	aggregates := make([]models.MonthlyAggregate, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		year, month := months[key][0], months[key][1]

		activeDays := utils.InclusiveDays(bucket.firstSeen, bucket.lastSeen, loc)
		serviceCount := bucket.washCount + bucket.dryCount

		aggregates = append(aggregates, models.MonthlyAggregate{
			Year:             year,
			Month:            month,
			MonthKey:         key,
			Revenue:          utils.Round2(bucket.revenue),
			GrossRevenue:     utils.Round2(bucket.gross),
			TopUpVolume:      utils.Round2(bucket.topUpVolume),
			TransactionCount: bucket.txCount,
			ServiceCount:     serviceCount,
			WashCount:        bucket.washCount,
			DryCount:         bucket.dryCount,
			UniqueCustomers:  len(bucket.customers),
			ActiveDays:       activeDays,
			AvgTicket:        safeAvg(bucket.revenue, bucket.saleCount),
			AvgDailyRevenue:  safeAvg(bucket.revenue, activeDays),
			UtilizationPct:   p.utilization.Percent(bucket.washCount, bucket.dryCount, activeDays),
		})
	}
	return aggregates
}

// AggregateWeekly buckets by Sunday-started weeks, sorted chronologically.
func (p *aggregationProcessorImpl) AggregateWeekly(transactions []models.Transaction) []models.WeeklyAggregate {
	loc := p.business.Location
	buckets := make(map[string]*bucketAccumulator)
	for i := range transactions {
		tx := &transactions[i]
		weekStart := utils.CivilDate(tx.Timestamp, loc).AddDate(0, 0, -tx.Weekday)
		key := weekStart.Format(utils.DateOnlyFormat)
		bucket, ok := buckets[key]
		if !ok {
			bucket = newBucketAccumulator()
			buckets[key] = bucket
		}
		bucket.add(tx, p.business.OpeningHour, p.business.ClosingHour)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	aggregates := make([]models.WeeklyAggregate, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		activeDays := utils.InclusiveDays(bucket.firstSeen, bucket.lastSeen, loc)
		aggregates = append(aggregates, models.WeeklyAggregate{
			WeekStart:        key,
			Revenue:          utils.Round2(bucket.revenue),
			TransactionCount: bucket.txCount,
			ServiceCount:     bucket.washCount + bucket.dryCount,
			WashCount:        bucket.washCount,
			DryCount:         bucket.dryCount,
			UniqueCustomers:  len(bucket.customers),
			ActiveDays:       activeDays,
			UtilizationPct:   p.utilization.Percent(bucket.washCount, bucket.dryCount, activeDays),
		})
	}
	return aggregates
}

// AggregateDaily buckets by calendar day, sorted chronologically.
func (p *aggregationProcessorImpl) AggregateDaily(transactions []models.Transaction) []models.DailyAggregate {
	buckets := make(map[string]*bucketAccumulator)
	weekdays := make(map[string]int)
	for i := range transactions {
		tx := &transactions[i]
		bucket, ok := buckets[tx.DayKey]
		if !ok {
			bucket = newBucketAccumulator()
			buckets[tx.DayKey] = bucket
			weekdays[tx.DayKey] = tx.Weekday
		}
		bucket.add(tx, p.business.OpeningHour, p.business.ClosingHour)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	aggregates := make([]models.DailyAggregate, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		weekday := weekdays[key]
		aggregates = append(aggregates, models.DailyAggregate{
			DayKey:           key,
			Weekday:          weekday,
			IsWeekend:        weekday == 0 || weekday == 6,
			Revenue:          utils.Round2(bucket.revenue),
			TransactionCount: bucket.txCount,
			ServiceCount:     bucket.washCount + bucket.dryCount,
			WashCount:        bucket.washCount,
			DryCount:         bucket.dryCount,
			UniqueCustomers:  len(bucket.customers),
		})
	}
	return aggregates
}

// safeAvg divides a monetary sum by a count with a zero guard, rounding the
// result to two decimals.
func safeAvg(sum float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return utils.Round2(sum / float64(count))
}
