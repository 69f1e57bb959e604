package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig(t *testing.T) *AppConfig {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return &AppConfig{
		Port:               "8080",
		DatabasePath:       "./test.db",
		LogLevel:           "info",
		MaxUploadSizeBytes: 10 * 1024 * 1024,
		Business: BusinessConfig{
			Timezone:          "America/Sao_Paulo",
			Location:          loc,
			WasherCount:       4,
			DryerCount:        4,
			WashCycleMinutes:  33,
			DryCycleMinutes:   40,
			OpeningHour:       7,
			ClosingHour:       22,
			CashbackPercent:   7.5,
			CashbackStartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, loc),
		},
		Analytics: AnalyticsConfig{
			RiskDecayDays:         30,
			SegmentMultipliers:    defaultSegmentMultipliers(),
			ForecastWindowMonths:  6,
			ForecastMinMonths:     6,
			ForecastHorizonMonths: 3,
			HeatmapWindowDays:     90,
		},
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, validTestConfig(t).Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"missing location", func(c *AppConfig) { c.Business.Location = nil }},
		{"negative washers", func(c *AppConfig) { c.Business.WasherCount = -1 }},
		{"negative dryers", func(c *AppConfig) { c.Business.DryerCount = -2 }},
		{"zero wash cycle", func(c *AppConfig) { c.Business.WashCycleMinutes = 0 }},
		{"negative dry cycle", func(c *AppConfig) { c.Business.DryCycleMinutes = -5 }},
		{"opening hour out of range", func(c *AppConfig) { c.Business.OpeningHour = 24 }},
		{"closing before opening", func(c *AppConfig) { c.Business.ClosingHour = c.Business.OpeningHour }},
		{"closing past midnight", func(c *AppConfig) { c.Business.ClosingHour = 25 }},
		{"cashback negative", func(c *AppConfig) { c.Business.CashbackPercent = -1 }},
		{"cashback over 100", func(c *AppConfig) { c.Business.CashbackPercent = 101 }},
		{"risk decay zero", func(c *AppConfig) { c.Analytics.RiskDecayDays = 0 }},
		{"non-positive multiplier", func(c *AppConfig) { c.Analytics.SegmentMultipliers["champion"] = 0 }},
		{"forecast min too small", func(c *AppConfig) { c.Analytics.ForecastMinMonths = 1 }},
		{"window below min", func(c *AppConfig) { c.Analytics.ForecastWindowMonths = 3 }},
		{"horizon zero", func(c *AppConfig) { c.Analytics.ForecastHorizonMonths = 0 }},
		{"heatmap window zero", func(c *AppConfig) { c.Analytics.HeatmapWindowDays = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultSegmentMultipliers_CoverAllTiers(t *testing.T) {
	multipliers := defaultSegmentMultipliers()
	for _, segment := range []string{"champion", "loyal", "new", "regular", "cooling", "inactive"} {
		m, ok := multipliers[segment]
		assert.True(t, ok, "missing multiplier for %s", segment)
		assert.Greater(t, m, 0.0)
	}
	// Best tiers dampen risk, fading tiers amplify it.
	assert.Less(t, multipliers["champion"], 1.0)
	assert.Greater(t, multipliers["inactive"], 1.0)
}

func TestToEnvSuffix(t *testing.T) {
	assert.Equal(t, "CHAMPION", toEnvSuffix("champion"))
	assert.Equal(t, "LOYAL", toEnvSuffix("loyal"))
}

func TestOperatingHoursPerDay(t *testing.T) {
	b := BusinessConfig{OpeningHour: 7, ClosingHour: 22}
	assert.Equal(t, 15, b.OperatingHoursPerDay())
}
