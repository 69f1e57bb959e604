package processors

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/utils"
)

// ErrInvalidPeriod flags a comparison window whose start date falls after
// its end date.
var ErrInvalidPeriod = errors.New("period start is after period end")

type comparisonProcessorImpl struct {
	business config.BusinessConfig
}

func NewComparisonProcessor(business config.BusinessConfig) ComparisonProcessor {
	return &comparisonProcessorImpl{business: business}
}

// Compare rolls up two date windows and reports the percentage change of
// each headline metric. Windows include both endpoints and may overlap;
// only their internal ordering is validated.
func (p *comparisonProcessorImpl) Compare(transactions []models.Transaction, currentStart, currentEnd, baselineStart, baselineEnd time.Time) (models.PeriodComparison, error) {
	loc := p.business.Location
	if utils.CivilDate(currentEnd, loc).Before(utils.CivilDate(currentStart, loc)) {
		return models.PeriodComparison{}, fmt.Errorf("current %w", ErrInvalidPeriod)
	}
	if utils.CivilDate(baselineEnd, loc).Before(utils.CivilDate(baselineStart, loc)) {
		return models.PeriodComparison{}, fmt.Errorf("baseline %w", ErrInvalidPeriod)
	}

	current := p.snapshot(transactions, currentStart, currentEnd)
	baseline := p.snapshot(transactions, baselineStart, baselineEnd)

	deltas := map[string]float64{
		"revenue":           periodDelta(current.Revenue, baseline.Revenue),
		"transaction_count": periodDelta(float64(current.TransactionCount), float64(baseline.TransactionCount)),
		"service_count":     periodDelta(float64(current.ServiceCount), float64(baseline.ServiceCount)),
		"unique_customers":  periodDelta(float64(current.UniqueCustomers), float64(baseline.UniqueCustomers)),
		"avg_ticket":        periodDelta(current.AvgTicket, baseline.AvgTicket),
		"avg_daily_revenue": periodDelta(current.AvgDailyRevenue, baseline.AvgDailyRevenue),
	}

	return models.PeriodComparison{Current: current, Baseline: baseline, Deltas: deltas}, nil
}

func (p *comparisonProcessorImpl) snapshot(transactions []models.Transaction, start, end time.Time) models.PeriodSnapshot {
	loc := p.business.Location
	from := utils.CivilDate(start, loc)
	to := utils.CivilDate(end, loc)

	bucket := newBucketAccumulator()
	for i := range transactions {
		tx := &transactions[i]
		day := utils.CivilDate(tx.Timestamp, loc)
		if day.Before(from) || day.After(to) {
			continue
		}
		bucket.add(tx, p.business.OpeningHour, p.business.ClosingHour)
	}

	days := utils.InclusiveDays(start, end, loc)
	return models.PeriodSnapshot{
		Start:            from,
		End:              to,
		Days:             days,
		Revenue:          utils.Round2(bucket.revenue),
		TransactionCount: bucket.txCount,
		ServiceCount:     bucket.washCount + bucket.dryCount,
		WashCount:        bucket.washCount,
		DryCount:         bucket.dryCount,
		UniqueCustomers:  len(bucket.customers),
		AvgTicket:        safeAvg(bucket.revenue, bucket.saleCount),
		AvgDailyRevenue:  safeAvg(bucket.revenue, days),
	}
}

// periodDelta is the percent change from baseline to current. A zero
// baseline cannot anchor a ratio, so the change collapses to plus or minus
// 100 by the direction of the current value, or 0 when both sides are zero.
func periodDelta(current, baseline float64) float64 {
	if baseline == 0 {
		if current > 0 {
			return 100
		}
		if current < 0 {
			return -100
		}
		return 0
	}
	return utils.Round1(100 * (current - baseline) / math.Abs(baseline))
}
