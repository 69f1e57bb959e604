package processors

import (
	"math"
	"sort"
	"time"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/utils"
)

type heatmapProcessorImpl struct {
	business config.BusinessConfig
}

func NewHeatmapProcessor(business config.BusinessConfig) HeatmapProcessor {
	return &heatmapProcessorImpl{business: business}
}

// Build produces the weekday-by-hour visit grid for the trailing window
// ending on asOf's calendar day. Every slot inside operating hours appears
// in the result even when empty, so renderers never have to fill gaps.
// Wallet top-ups count as visits; they put a customer in the store just
// like a machine cycle does. When segment is non-empty only transactions
// of customers mapped to that segment are counted.
func (p *heatmapProcessorImpl) Build(transactions []models.Transaction, segments map[string]models.Segment, segment models.Segment, asOf time.Time, windowDays int) models.Heatmap {
	if windowDays < 1 {
		windowDays = 1
	}
	loc := p.business.Location
	windowEnd := utils.CivilDate(asOf, loc)
	windowStart := windowEnd.AddDate(0, 0, -(windowDays - 1))

	opening := p.business.OpeningHour
	closing := p.business.ClosingHour

	var counts [7][24]int
	for i := range transactions {
		tx := &transactions[i]
		day := utils.CivilDate(tx.Timestamp, loc)
		if day.Before(windowStart) || day.After(windowEnd) {
			continue
		}
		if segment != "" {
			if tx.CustomerID == "" || segments[tx.CustomerID] != segment {
				continue
			}
		}
		if tx.Hour < opening || tx.Hour >= closing {
			continue
		}
		counts[tx.Weekday][tx.Hour]++
	}

	nonZero := make([]float64, 0, 7*(closing-opening))
	total := 0
	for weekday := 0; weekday < 7; weekday++ {
		for hour := opening; hour < closing; hour++ {
			visits := counts[weekday][hour]
			total += visits
			if visits > 0 {
				nonZero = append(nonZero, float64(visits))
			}
		}
	}
	sort.Float64s(nonZero)

	thresholds := models.QuantileThresholds{
		P50: utils.Round2(quantile(nonZero, 0.50)),
		P75: utils.Round2(quantile(nonZero, 0.75)),
		P90: utils.Round2(quantile(nonZero, 0.90)),
		P95: utils.Round2(quantile(nonZero, 0.95)),
	}

	cells := make([]models.HeatmapCell, 0, 7*(closing-opening))
	peak := models.HeatmapPeak{Weekday: 0, Hour: opening}
	bestVisits := -1
	for weekday := 0; weekday < 7; weekday++ {
		for hour := opening; hour < closing; hour++ {
			visits := counts[weekday][hour]
			cells = append(cells, models.HeatmapCell{
				Weekday: weekday,
				Hour:    hour,
				Visits:  visits,
				Band:    bandFor(visits, thresholds),
			})
			// Strict comparison in scan order keeps the earliest slot on ties.
			if visits > bestVisits {
				bestVisits = visits
				peak = models.HeatmapPeak{Weekday: weekday, Hour: hour, Visits: visits}
			}
		}
	}

	return models.Heatmap{
		Cells:       cells,
		Thresholds:  thresholds,
		Peak:        peak,
		OpeningHour: opening,
		ClosingHour: closing,
		WindowDays:  windowDays,
		TotalVisits: total,
	}
}

func bandFor(visits int, t models.QuantileThresholds) int {
	if visits == 0 {
		return 0
	}
	v := float64(visits)
	switch {
	case v <= t.P50:
		return 1
	case v <= t.P75:
		return 2
	case v <= t.P90:
		return 3
	case v <= t.P95:
		return 4
	default:
		return 5
	}
}

// quantile linearly interpolates the q-quantile of an ascending slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
