package processors

import (
	"math"
	"sort"
	"time"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/utils"
)

type customerProcessorImpl struct {
	analytics config.AnalyticsConfig
	location  *time.Location
}

func NewCustomerProcessor(analytics config.AnalyticsConfig, location *time.Location) CustomerProcessor {
	return &customerProcessorImpl{analytics: analytics, location: location}
}

type customerAccumulator struct {
	visits    int
	saleCount int
	spent     float64
	first     time.Time
	last      time.Time
	days      map[string]struct{}
	lastName  string
	lastPhone string
}

// BuildProfiles recomputes every identified customer's profile wholesale
// from the transaction history; profiles are never patched incrementally.
// Unidentified transactions (empty customer id) are left out entirely.
// Registry data, when present, contributes contact fields and the wallet
// balance; behavioral metrics always come from the transactions themselves.
func (p *customerProcessorImpl) BuildProfiles(transactions []models.Transaction, registry map[string]models.CustomerRecord, asOf time.Time) []models.CustomerProfile {
	accumulators := make(map[string]*customerAccumulator)

	for i := range transactions {
		tx := &transactions[i]
		if tx.CustomerID == "" {
			continue
		}
		acc, ok := accumulators[tx.CustomerID]
		if !ok {
			acc = &customerAccumulator{days: make(map[string]struct{})}
			accumulators[tx.CustomerID] = acc
		}

		// Every transaction kind counts as a visit; only machine sales
		// count toward spend and ticket size.
		acc.visits++
		acc.days[tx.DayKey] = struct{}{}
		if !tx.IsTopUp {
			acc.saleCount++
			acc.spent += tx.NetAmount
		}
		if acc.first.IsZero() || tx.Timestamp.Before(acc.first) {
			acc.first = tx.Timestamp
		}
		if tx.Timestamp.After(acc.last) {
			acc.last = tx.Timestamp
			if tx.CustomerName != "" {
				acc.lastName = tx.CustomerName
			}
			if tx.Phone != "" {
				acc.lastPhone = tx.Phone
			}
		}
	}

	profiles := make([]models.CustomerProfile, 0, len(accumulators))
	for customerID, acc := range accumulators {
		daysSinceLast := utils.DaysBetween(acc.last, asOf, p.location)
		if daysSinceLast < 0 {
			daysSinceLast = 0
		}
		daysSinceFirst := utils.DaysBetween(acc.first, asOf, p.location)
		if daysSinceFirst < 0 {
			daysSinceFirst = 0
		}

		// Visits per week over unique visit days, so two machines on the
		// same afternoon never inflate the frequency.
		frequency := 0.0
		if daysSinceFirst > 0 {
			frequency = utils.Round2(float64(len(acc.days)) / (float64(daysSinceFirst) / 7))
		}

		segment := classifySegment(acc.visits, daysSinceLast, daysSinceFirst)
		score := p.riskScore(daysSinceLast, segment)

		profile := models.CustomerProfile{
			CustomerID:      customerID,
			Name:            acc.lastName,
			Phone:           acc.lastPhone,
			TotalVisits:     acc.visits,
			TotalSpent:      utils.Round2(acc.spent),
			AvgTicket:       safeAvg(acc.spent, acc.saleCount),
			FirstVisit:      acc.first,
			LastVisit:       acc.last,
			DaysSinceLast:   daysSinceLast,
			UniqueVisitDays: len(acc.days),
			VisitsPerWeek:   frequency,
			Segment:         segment,
			RiskScore:       score,
			RiskLevel:       riskLevelFor(score),
			Lifecycle:       lifecycleFor(daysSinceLast, segment),
		}

		if record, ok := registry[customerID]; ok {
			profile.WalletBalance = record.WalletBalance
			if record.Name != "" {
				profile.Name = record.Name
			}
			if record.Phone != "" {
				profile.Phone = record.Phone
			}
		}
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].TotalSpent != profiles[j].TotalSpent {
			return profiles[i].TotalSpent > profiles[j].TotalSpent
		}
		return profiles[i].CustomerID < profiles[j].CustomerID
	})
	return profiles
}

// riskScore turns absence into a 0-100 churn score. The exponential decay
// rises fast in the first month away and saturates after; the segment
// multiplier dampens it for the best tiers and amplifies it for fading
// ones. Unknown segments score neutrally.
func (p *customerProcessorImpl) riskScore(daysSinceLast int, segment models.Segment) int {
	base := 1 - math.Exp(-float64(daysSinceLast)/p.analytics.RiskDecayDays)
	adjusted := math.Min(base*p.multiplier(segment), 1.0)
	return int(math.Round(adjusted * 100))
}

func (p *customerProcessorImpl) multiplier(segment models.Segment) float64 {
	if m, ok := p.analytics.SegmentMultipliers[string(segment)]; ok {
		return m
	}
	return 1.0
}
