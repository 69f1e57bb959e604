package processors

import (
	"strings"

	"github.com/username/lavametrics/backend/src/models"
)

// segmentAliases maps every historical spelling of a loyalty tier (the
// Portuguese dashboard labels and the legacy English keys) to one canonical
// value. Scoring tables are keyed by the canonical value only; display
// naming lives in SegmentLabel.
var segmentAliases = map[string]models.Segment{
	"champion":  models.SegmentChampion,
	"campeao":   models.SegmentChampion,
	"campeão":   models.SegmentChampion,
	"loyal":     models.SegmentLoyal,
	"fiel":      models.SegmentLoyal,
	"regular":   models.SegmentRegular,
	"new":       models.SegmentNew,
	"novo":      models.SegmentNew,
	"cooling":   models.SegmentCooling,
	"esfriando": models.SegmentCooling,
	"inactive":  models.SegmentInactive,
	"inativo":   models.SegmentInactive,
}

var segmentLabels = map[models.Segment]string{
	models.SegmentChampion: "Campeão",
	models.SegmentLoyal:    "Fiel",
	models.SegmentRegular:  "Regular",
	models.SegmentNew:      "Novo",
	models.SegmentCooling:  "Esfriando",
	models.SegmentInactive: "Inativo",
}

// NormalizeSegment resolves a free-form segment name (either language,
// any casing) to the canonical value.
func NormalizeSegment(name string) (models.Segment, bool) {
	segment, ok := segmentAliases[strings.ToLower(strings.TrimSpace(name))]
	return segment, ok
}

// SegmentLabel returns the Portuguese display label for a segment.
func SegmentLabel(segment models.Segment) string {
	if label, ok := segmentLabels[segment]; ok {
		return label
	}
	return string(segment)
}

// segmentRule assigns a loyalty tier from visit recency and frequency.
// Rules are evaluated in order; the first match wins.
type segmentRule struct {
	minVisits      int
	maxRecencyDays int
	segment        models.Segment
}

// Recency cutoffs that push a customer out of the active tiers regardless
// of how often they used to come.
const (
	coolingAfterDays  = 60
	inactiveAfterDays = 120
	newWithinDays     = 45
	newMaxVisits      = 2
)

var activeSegmentRules = []segmentRule{
	{minVisits: 12, maxRecencyDays: 30, segment: models.SegmentChampion},
	{minVisits: 6, maxRecencyDays: 60, segment: models.SegmentLoyal},
}

// classifySegment derives the canonical loyalty tier. Long absence always
// wins over past frequency; genuinely fresh customers are tagged new before
// the frequency tiers apply.
func classifySegment(totalVisits, daysSinceLast, daysSinceFirst int) models.Segment {
	if daysSinceLast > inactiveAfterDays {
		return models.SegmentInactive
	}
	if daysSinceLast > coolingAfterDays {
		return models.SegmentCooling
	}
	if totalVisits <= newMaxVisits && daysSinceFirst <= newWithinDays {
		return models.SegmentNew
	}
	for _, rule := range activeSegmentRules {
		if totalVisits >= rule.minVisits && daysSinceLast <= rule.maxRecencyDays {
			return rule.segment
		}
	}
	return models.SegmentRegular
}

// lifecycleRule maps a recency ceiling to the human-facing customer state.
type lifecycleRule struct {
	maxRecencyDays int
	label          models.LifecycleLabel
}

// lifecycleRules is evaluated top to bottom; recency past the last rule
// means the customer is lost. This table is deliberately separate from the
// continuous risk score: the two are related signals, not one derived from
// the other.
var lifecycleRules = []lifecycleRule{
	{maxRecencyDays: 30, label: models.LifecycleHealthy},
	{maxRecencyDays: 60, label: models.LifecycleMonitor},
	{maxRecencyDays: 90, label: models.LifecycleAtRisk},
	{maxRecencyDays: 180, label: models.LifecycleChurning},
}

func lifecycleFor(daysSinceLast int, segment models.Segment) models.LifecycleLabel {
	if segment == models.SegmentNew {
		return models.LifecycleNew
	}
	for _, rule := range lifecycleRules {
		if daysSinceLast <= rule.maxRecencyDays {
			return rule.label
		}
	}
	return models.LifecycleLost
}

// riskLevelFor buckets the continuous 0-100 score into three tiers.
func riskLevelFor(score int) models.RiskLevel {
	switch {
	case score >= 80:
		return models.RiskHigh
	case score >= 50:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
