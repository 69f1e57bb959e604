package processors

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/utils"
)

// Month display names used in seasonal entries.
var monthNames = [13]string{"",
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Growth returns the percentage change from previous to current, rounded to
// one decimal. A zero base is a defined edge case: +100 when current is
// positive, 0 otherwise, never NaN or an infinity.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return utils.Round1(100 * (current - previous) / previous)
}

type growthProcessorImpl struct {
	analytics config.AnalyticsConfig
}

func NewGrowthProcessor(analytics config.AnalyticsConfig) GrowthProcessor {
	return &growthProcessorImpl{analytics: analytics}
}

// GrowthSeries pairs every monthly bucket with its immediate predecessor
// (MoM) and with the same calendar month one year earlier (YoY). Growth
// against a missing reference month stays nil, which is distinct from 0%.
func (p *growthProcessorImpl) GrowthSeries(monthly []models.MonthlyAggregate) []models.GrowthEntry {
	ordered := make([]models.MonthlyAggregate, len(monthly))
	copy(ordered, monthly)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MonthKey < ordered[j].MonthKey })

	revenueByKey := make(map[string]float64, len(ordered))
	for _, m := range ordered {
		revenueByKey[m.MonthKey] = m.Revenue
	}

	entries := make([]models.GrowthEntry, 0, len(ordered))
	for i, m := range ordered {
		entry := models.GrowthEntry{
			Year:     m.Year,
			Month:    m.Month,
			MonthKey: m.MonthKey,
			Revenue:  m.Revenue,
		}
		if i > 0 {
			g := Growth(m.Revenue, ordered[i-1].Revenue)
			entry.MoMGrowth = &g
		}
		yoyKey := fmt.Sprintf("%04d-%02d", m.Year-1, m.Month)
		if previous, ok := revenueByKey[yoyKey]; ok {
			g := Growth(m.Revenue, previous)
			entry.YoYGrowth = &g
		}
		entries = append(entries, entry)
	}
	return entries
}

// SeasonalIndices averages revenue per calendar month across all observed
// years and expresses each month relative to the overall bucket average
// (index 100 = exactly average). Months with no history are omitted.
// Entries are sorted by average revenue, best month first.
func (p *growthProcessorImpl) SeasonalIndices(monthly []models.MonthlyAggregate) []models.SeasonalIndexEntry {
	if len(monthly) == 0 {
		return nil
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	total := 0.0
	for _, m := range monthly {
		sums[m.Month] += m.Revenue
		counts[m.Month]++
		total += m.Revenue
	}
	overallAvg := total / float64(len(monthly))
	if overallAvg == 0 {
		return nil
	}

	entries := make([]models.SeasonalIndexEntry, 0, len(sums))
	for month, sum := range sums {
		avg := sum / float64(counts[month])
		index := utils.Round1(100 * avg / overallAvg)
		performance := models.TierAverage
		switch {
		case index > 110:
			performance = models.TierStrong
		case index < 90:
			performance = models.TierWeak
		}
		entries = append(entries, models.SeasonalIndexEntry{
			Month:       month,
			MonthName:   monthNames[month],
			AvgRevenue:  utils.Round2(avg),
			Index:       index,
			Performance: performance,
			SampleSize:  counts[month],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AvgRevenue != entries[j].AvgRevenue {
			return entries[i].AvgRevenue > entries[j].AvgRevenue
		}
		return entries[i].Month < entries[j].Month
	})
	return entries
}

// Forecast fits an ordinary least squares line over the trailing window of
// monthly revenue and projects it forward. With less history than the
// configured minimum it returns an empty forecast, which is a valid state,
// not an error. Negative projections clamp to zero.
func (p *growthProcessorImpl) Forecast(monthly []models.MonthlyAggregate) models.Forecast {
	ordered := make([]models.MonthlyAggregate, len(monthly))
	copy(ordered, monthly)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MonthKey < ordered[j].MonthKey })

	if len(ordered) > p.analytics.ForecastWindowMonths {
		ordered = ordered[len(ordered)-p.analytics.ForecastWindowMonths:]
	}

	forecast := models.Forecast{
		Points:       []models.ForecastPoint{},
		WindowMonths: len(ordered),
		Trend:        "flat",
	}
	if len(ordered) < p.analytics.ForecastMinMonths {
		return forecast
	}

	n := float64(len(ordered))
	var sumX, sumY, sumXY, sumXX float64
	for i, m := range ordered {
		x := float64(i)
		sumX += x
		sumY += m.Revenue
		sumXY += x * m.Revenue
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		forecast.Intercept = sumY / n
	} else {
		forecast.Slope = (n*sumXY - sumX*sumY) / denom
		forecast.Intercept = (sumY - forecast.Slope*sumX) / n
	}

	var ssRes, ssTot float64
	meanY := sumY / n
	for i, m := range ordered {
		fit := forecast.Intercept + forecast.Slope*float64(i)
		ssRes += (m.Revenue - fit) * (m.Revenue - fit)
		ssTot += (m.Revenue - meanY) * (m.Revenue - meanY)
	}
	if ssTot == 0 {
		forecast.RSquared = 1
	} else {
		forecast.RSquared = 1 - ssRes/ssTot
	}

	switch {
	case forecast.Slope > 0.01:
		forecast.Trend = "growing"
	case forecast.Slope < -0.01:
		forecast.Trend = "declining"
	}

	last := ordered[len(ordered)-1]
	for h := 1; h <= p.analytics.ForecastHorizonMonths; h++ {
		projected := forecast.Intercept + forecast.Slope*float64(len(ordered)-1+h)
		year, month := utils.AddMonths(last.Year, time.Month(last.Month), h)
		forecast.Points = append(forecast.Points, models.ForecastPoint{
			Year:       year,
			Month:      int(month),
			MonthKey:   fmt.Sprintf("%04d-%02d", year, int(month)),
			Revenue:    utils.Round2(math.Max(0, projected)),
			IsForecast: true,
		})
	}
	return forecast
}
