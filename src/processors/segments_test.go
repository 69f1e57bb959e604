package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/lavametrics/backend/src/models"
)

func TestClassifySegment(t *testing.T) {
	tests := []struct {
		name           string
		totalVisits    int
		daysSinceLast  int
		daysSinceFirst int
		want           models.Segment
	}{
		{"long absence is inactive", 50, 121, 400, models.SegmentInactive},
		{"inactive boundary stays cooling", 50, 120, 400, models.SegmentCooling},
		{"recent cooling", 10, 61, 200, models.SegmentCooling},
		{"cooling boundary stays active", 12, 60, 200, models.SegmentLoyal},
		{"fresh low-volume is new", 2, 5, 45, models.SegmentNew},
		{"third visit leaves new", 3, 5, 30, models.SegmentRegular},
		{"old low-volume is regular", 2, 5, 46, models.SegmentRegular},
		{"champion", 12, 30, 300, models.SegmentChampion},
		{"champion visits but stale", 12, 31, 300, models.SegmentLoyal},
		{"loyal", 6, 45, 300, models.SegmentLoyal},
		{"not enough visits", 5, 10, 300, models.SegmentRegular},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySegment(tt.totalVisits, tt.daysSinceLast, tt.daysSinceFirst))
		})
	}
}

func TestNormalizeSegment(t *testing.T) {
	tests := []struct {
		input  string
		want   models.Segment
		wantOK bool
	}{
		{"champion", models.SegmentChampion, true},
		{"Campeão", models.SegmentChampion, true},
		{"campeao", models.SegmentChampion, true},
		{"FIEL", models.SegmentLoyal, true},
		{" novo ", models.SegmentNew, true},
		{"esfriando", models.SegmentCooling, true},
		{"Inativo", models.SegmentInactive, true},
		{"vip", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeSegment(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSegmentLabel(t *testing.T) {
	assert.Equal(t, "Campeão", SegmentLabel(models.SegmentChampion))
	assert.Equal(t, "Esfriando", SegmentLabel(models.SegmentCooling))
	// Unmapped segments fall back to the raw value.
	assert.Equal(t, "mystery", SegmentLabel(models.Segment("mystery")))
}

func TestLifecycleFor(t *testing.T) {
	assert.Equal(t, models.LifecycleNew, lifecycleFor(5, models.SegmentNew))
	assert.Equal(t, models.LifecycleHealthy, lifecycleFor(10, models.SegmentRegular))
	assert.Equal(t, models.LifecycleMonitor, lifecycleFor(45, models.SegmentRegular))
	assert.Equal(t, models.LifecycleAtRisk, lifecycleFor(75, models.SegmentCooling))
	assert.Equal(t, models.LifecycleChurning, lifecycleFor(150, models.SegmentInactive))
	assert.Equal(t, models.LifecycleLost, lifecycleFor(181, models.SegmentInactive))
}

func TestRiskLevelFor(t *testing.T) {
	assert.Equal(t, models.RiskLow, riskLevelFor(0))
	assert.Equal(t, models.RiskLow, riskLevelFor(49))
	assert.Equal(t, models.RiskMedium, riskLevelFor(50))
	assert.Equal(t, models.RiskMedium, riskLevelFor(79))
	assert.Equal(t, models.RiskHigh, riskLevelFor(80))
	assert.Equal(t, models.RiskHigh, riskLevelFor(100))
}
