package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// BusinessConfig describes the physical store the analytics run against:
// where it is, what machines it has and when it operates. Every calendar
// decomposition in the engine resolves against Location, never the host zone.
type BusinessConfig struct {
	Timezone          string
	Location          *time.Location
	WasherCount       int
	DryerCount        int
	WashCycleMinutes  int
	DryCycleMinutes   int
	OpeningHour       int // first operating hour, inclusive
	ClosingHour       int // hour the store closes, exclusive
	CashbackPercent   float64
	CashbackStartDate time.Time
}

// OperatingHoursPerDay returns the length of the daily operating window.
func (b *BusinessConfig) OperatingHoursPerDay() int {
	return b.ClosingHour - b.OpeningHour
}

// AnalyticsConfig holds the tunables of the metric and scoring pipeline.
type AnalyticsConfig struct {
	RiskDecayDays         float64
	SegmentMultipliers    map[string]float64
	ForecastWindowMonths  int
	ForecastMinMonths     int
	ForecastHorizonMonths int
	HeatmapWindowDays     int
}

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64
	Business           BusinessConfig
	Analytics          AnalyticsConfig
}

var Cfg *AppConfig

// defaultSegmentMultipliers bias the churn-risk score per loyalty tier:
// the best tiers dampen it, the fading tiers amplify it. Unlisted segments
// resolve to 1.0.
func defaultSegmentMultipliers() map[string]float64 {
	return map[string]float64{
		"champion": 0.5,
		"loyal":    0.7,
		"new":      0.8,
		"regular":  1.0,
		"cooling":  1.5,
		"inactive": 2.0,
	}
}

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	timezone := getEnv("BUSINESS_TIMEZONE", "America/Sao_Paulo")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		log.Fatalf("FATAL: Invalid BUSINESS_TIMEZONE '%s': %v", timezone, err)
	}

	cashbackStartStr := getEnv("CASHBACK_START_DATE", "2024-06-01")
	cashbackStart, err := time.ParseInLocation("2006-01-02", cashbackStartStr, location)
	if err != nil {
		log.Fatalf("FATAL: Invalid CASHBACK_START_DATE '%s', expected YYYY-MM-DD: %v", cashbackStartStr, err)
	}

	multipliers := defaultSegmentMultipliers()
	for segment := range multipliers {
		key := "RISK_MULTIPLIER_" + toEnvSuffix(segment)
		multipliers[segment] = getEnvAsFloat(key, multipliers[segment])
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./lavametrics.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		Business: BusinessConfig{
			Timezone:          timezone,
			Location:          location,
			WasherCount:       getEnvAsInt("WASHER_COUNT", 4),
			DryerCount:        getEnvAsInt("DRYER_COUNT", 4),
			WashCycleMinutes:  getEnvAsInt("WASH_CYCLE_MINUTES", 33),
			DryCycleMinutes:   getEnvAsInt("DRY_CYCLE_MINUTES", 40),
			OpeningHour:       getEnvAsInt("OPENING_HOUR", 7),
			ClosingHour:       getEnvAsInt("CLOSING_HOUR", 22),
			CashbackPercent:   getEnvAsFloat("CASHBACK_PERCENT", 7.5),
			CashbackStartDate: cashbackStart,
		},
		Analytics: AnalyticsConfig{
			RiskDecayDays:         getEnvAsFloat("RISK_DECAY_DAYS", 30),
			SegmentMultipliers:    multipliers,
			ForecastWindowMonths:  getEnvAsInt("FORECAST_WINDOW_MONTHS", 6),
			ForecastMinMonths:     getEnvAsInt("FORECAST_MIN_MONTHS", 6),
			ForecastHorizonMonths: getEnvAsInt("FORECAST_HORIZON_MONTHS", 3),
			HeatmapWindowDays:     getEnvAsInt("HEATMAP_WINDOW_DAYS", 90),
		},
	}

	if err := Cfg.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, Timezone=%s, Machines=%dW/%dD",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.Business.Timezone, Cfg.Business.WasherCount, Cfg.Business.DryerCount)
}

// Validate rejects configurations the engine cannot run on. Bad values must
// fail at load time, not surface later as NaN metrics.
func (c *AppConfig) Validate() error {
	b := c.Business
	if b.Location == nil {
		return fmt.Errorf("business timezone is not resolved")
	}
	if b.WasherCount < 0 || b.DryerCount < 0 {
		return fmt.Errorf("machine counts must not be negative: washers=%d dryers=%d", b.WasherCount, b.DryerCount)
	}
	if b.WashCycleMinutes <= 0 || b.DryCycleMinutes <= 0 {
		return fmt.Errorf("cycle durations must be positive: wash=%dm dry=%dm", b.WashCycleMinutes, b.DryCycleMinutes)
	}
	if b.OpeningHour < 0 || b.OpeningHour > 23 {
		return fmt.Errorf("OPENING_HOUR out of range: %d", b.OpeningHour)
	}
	if b.ClosingHour <= b.OpeningHour || b.ClosingHour > 24 {
		return fmt.Errorf("CLOSING_HOUR must be after OPENING_HOUR and at most 24: opening=%d closing=%d", b.OpeningHour, b.ClosingHour)
	}
	if b.CashbackPercent < 0 || b.CashbackPercent > 100 {
		return fmt.Errorf("CASHBACK_PERCENT out of range: %.2f", b.CashbackPercent)
	}

	a := c.Analytics
	if a.RiskDecayDays <= 0 {
		return fmt.Errorf("RISK_DECAY_DAYS must be positive: %.1f", a.RiskDecayDays)
	}
	for segment, m := range a.SegmentMultipliers {
		if m <= 0 {
			return fmt.Errorf("risk multiplier for segment %q must be positive: %.2f", segment, m)
		}
	}
	if a.ForecastMinMonths < 2 {
		return fmt.Errorf("FORECAST_MIN_MONTHS must be at least 2: %d", a.ForecastMinMonths)
	}
	if a.ForecastWindowMonths < a.ForecastMinMonths {
		return fmt.Errorf("FORECAST_WINDOW_MONTHS (%d) must not be below FORECAST_MIN_MONTHS (%d)", a.ForecastWindowMonths, a.ForecastMinMonths)
	}
	if a.ForecastHorizonMonths < 1 {
		return fmt.Errorf("FORECAST_HORIZON_MONTHS must be at least 1: %d", a.ForecastHorizonMonths)
	}
	if a.HeatmapWindowDays < 1 {
		return fmt.Errorf("HEATMAP_WINDOW_DAYS must be at least 1: %d", a.HeatmapWindowDays)
	}
	return nil
}

func toEnvSuffix(segment string) string {
	out := make([]byte, len(segment))
	for i := 0; i < len(segment); i++ {
		ch := segment[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		out[i] = ch
	}
	return string(out)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Float value for %s not set or empty, using default: %.2f", key, fallback)
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %.2f", key, valueStr, fallback)
	return fallback
}
