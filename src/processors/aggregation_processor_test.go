package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lavametrics/backend/src/models"
)

// Two January sales and one February sale, the canonical two-bucket case.
func twoMonthFixture() []models.Transaction {
	return []models.Transaction{
		saleTx("11111111111", time.Date(2025, 1, 15, 10, 0, 0, 0, spLoc), 17.90, 1, 0),
		saleTx("22222222222", time.Date(2025, 1, 15, 18, 0, 0, 0, spLoc), 25.50, 1, 1),
		saleTx("11111111111", time.Date(2025, 2, 20, 9, 0, 0, 0, spLoc), 17.90, 0, 1),
	}
}

func TestAggregateMonthly_TwoBuckets(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	monthly := p.AggregateMonthly(twoMonthFixture())
	require.Len(t, monthly, 2)

	jan := monthly[0]
	assert.Equal(t, "2025-01", jan.MonthKey)
	assert.Equal(t, 43.40, jan.Revenue)
	assert.Equal(t, 2, jan.WashCount)
	assert.Equal(t, 1, jan.DryCount)
	assert.Equal(t, 3, jan.ServiceCount)
	assert.Equal(t, 2, jan.TransactionCount)
	assert.Equal(t, 2, jan.UniqueCustomers)
	assert.Equal(t, 1, jan.ActiveDays)
	assert.Equal(t, 21.70, jan.AvgTicket)
	assert.Equal(t, 43.40, jan.AvgDailyRevenue)

	feb := monthly[1]
	assert.Equal(t, "2025-02", feb.MonthKey)
	assert.Equal(t, 17.90, feb.Revenue)
	assert.Equal(t, 0, feb.WashCount)
	assert.Equal(t, 1, feb.DryCount)
	assert.Equal(t, 1, feb.ServiceCount)
	assert.Equal(t, 1, feb.UniqueCustomers)
}

func TestAggregateMonthly_RevenueConservation(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	transactions := twoMonthFixture()
	monthly := p.AggregateMonthly(transactions)

	var bucketSum, recordSum float64
	for _, m := range monthly {
		bucketSum += m.Revenue
	}
	for _, tx := range transactions {
		recordSum += tx.NetAmount
	}
	assert.InDelta(t, recordSum, bucketSum, 0.01*float64(len(monthly)))
}

func TestAggregateMonthly_TopUpsExcludedFromRevenue(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	transactions := []models.Transaction{
		saleTx("11111111111", time.Date(2025, 1, 15, 10, 0, 0, 0, spLoc), 17.90, 1, 0),
		topUpTx("33333333333", time.Date(2025, 1, 16, 11, 0, 0, 0, spLoc), 50),
	}
	monthly := p.AggregateMonthly(transactions)
	require.Len(t, monthly, 1)

	jan := monthly[0]
	assert.Equal(t, 17.90, jan.Revenue)
	assert.Equal(t, 50.0, jan.TopUpVolume)
	assert.Equal(t, 2, jan.TransactionCount)
	assert.Equal(t, 1, jan.ServiceCount)
	// The top-up customer still counts as present, and stretches the window.
	assert.Equal(t, 2, jan.UniqueCustomers)
	assert.Equal(t, 2, jan.ActiveDays)
}

func TestAggregateMonthly_OutOfHoursRevenueButNoServices(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	transactions := []models.Transaction{
		saleTx("11111111111", time.Date(2025, 1, 15, 23, 0, 0, 0, spLoc), 17.90, 1, 0),
	}
	monthly := p.AggregateMonthly(transactions)
	require.Len(t, monthly, 1)

	assert.Equal(t, 17.90, monthly[0].Revenue)
	assert.Equal(t, 0, monthly[0].ServiceCount)
	assert.Equal(t, 0.0, monthly[0].UtilizationPct)
}

func TestAggregateMonthly_UnidentifiedCustomersNotCounted(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	transactions := []models.Transaction{
		saleTx("", time.Date(2025, 1, 15, 10, 0, 0, 0, spLoc), 17.90, 1, 0),
		saleTx("11111111111", time.Date(2025, 1, 15, 11, 0, 0, 0, spLoc), 17.90, 1, 0),
	}
	monthly := p.AggregateMonthly(transactions)
	require.Len(t, monthly, 1)
	assert.Equal(t, 1, monthly[0].UniqueCustomers)
	assert.Equal(t, 35.80, monthly[0].Revenue)
}

func TestAggregateMonthly_Utilization(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	monthly := p.AggregateMonthly(twoMonthFixture())
	require.Len(t, monthly, 2)

	// January: one active day, 4+4 machines over a 15h window gives 7200
	// available minutes; 2 washes and 1 dry consume 2*33+40 = 106.
	assert.Equal(t, 1.47, monthly[0].UtilizationPct)
	// February: a single 40 minute dry cycle.
	assert.Equal(t, 0.56, monthly[1].UtilizationPct)
}

func TestAggregateWeekly_SundayStart(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	transactions := []models.Transaction{
		// Wednesday and Saturday of the same week.
		saleTx("11111111111", time.Date(2025, 1, 15, 10, 0, 0, 0, spLoc), 17.90, 1, 0),
		saleTx("11111111111", time.Date(2025, 1, 18, 10, 0, 0, 0, spLoc), 17.90, 1, 0),
		// Sunday opens the next week.
		saleTx("22222222222", time.Date(2025, 1, 19, 10, 0, 0, 0, spLoc), 25.50, 0, 1),
	}
	weekly := p.AggregateWeekly(transactions)
	require.Len(t, weekly, 2)

	assert.Equal(t, "2025-01-12", weekly[0].WeekStart)
	assert.Equal(t, 35.80, weekly[0].Revenue)
	assert.Equal(t, 2, weekly[0].TransactionCount)
	assert.Equal(t, 4, weekly[0].ActiveDays) // Wednesday through Saturday

	assert.Equal(t, "2025-01-19", weekly[1].WeekStart)
	assert.Equal(t, 25.50, weekly[1].Revenue)
}

func TestAggregateDaily(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())

	daily := p.AggregateDaily(twoMonthFixture())
	require.Len(t, daily, 2)

	assert.Equal(t, "2025-01-15", daily[0].DayKey)
	assert.Equal(t, 3, daily[0].Weekday)
	assert.False(t, daily[0].IsWeekend)
	assert.Equal(t, 43.40, daily[0].Revenue)
	assert.Equal(t, 2, daily[0].TransactionCount)

	assert.Equal(t, "2025-02-20", daily[1].DayKey)
	assert.Equal(t, 17.90, daily[1].Revenue)
}

func TestAggregateMonthly_Empty(t *testing.T) {
	p := NewAggregationProcessor(testBusiness())
	assert.Empty(t, p.AggregateMonthly(nil))
	assert.Empty(t, p.AggregateWeekly(nil))
	assert.Empty(t, p.AggregateDaily(nil))
}

func TestSafeAvg(t *testing.T) {
	assert.Equal(t, 21.70, safeAvg(43.40, 2))
	assert.Equal(t, 0.0, safeAvg(43.40, 0))
	assert.Equal(t, 0.0, safeAvg(0, 0))
}
