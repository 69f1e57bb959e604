package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/database"
	"github.com/username/lavametrics/backend/src/logger"
)

var spLoc *time.Location

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	var err error
	spLoc, err = time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}

	dir, err := os.MkdirTemp("", "lavametrics-services")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(dir, "test.db"))

	code := m.Run()

	database.DB.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func testBusinessCfg() config.BusinessConfig {
	return config.BusinessConfig{
		Timezone:          "America/Sao_Paulo",
		Location:          spLoc,
		WasherCount:       4,
		DryerCount:        4,
		WashCycleMinutes:  33,
		DryCycleMinutes:   40,
		OpeningHour:       7,
		ClosingHour:       22,
		CashbackPercent:   7.5,
		CashbackStartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, spLoc),
	}
}

func testAnalyticsCfg() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		RiskDecayDays: 30,
		SegmentMultipliers: map[string]float64{
			"champion": 0.5,
			"loyal":    0.7,
			"new":      0.8,
			"regular":  1.0,
			"cooling":  1.5,
			"inactive": 2.0,
		},
		ForecastWindowMonths:  6,
		ForecastMinMonths:     6,
		ForecastHorizonMonths: 3,
		HeatmapWindowDays:     90,
	}
}

func clearTables(t *testing.T) {
	t.Helper()
	for _, table := range []string{"transactions", "customers", "upload_history"} {
		_, err := database.DB.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

// seedTransaction inserts one machine sale the way a committed import would
// have stored it, bypassing the CSV pipeline.
func seedTransaction(t *testing.T, ts time.Time, net float64, wash, dry int, customerID, hashID string) {
	t.Helper()
	_, err := database.DB.Exec(`INSERT INTO transactions (occurred_at, gross_amount, paid_amount, cashback_amount, net_amount, discount_amount, wash_units, dry_units, customer_id, customer_name, phone, store, payment_method, machines, kind, used_coupon, coupon_code, hash_id, batch_id) VALUES (?, ?, ?, 0, ?, 0, ?, ?, ?, '', '', '', '', '', 'purchase', 0, '', ?, 'seed')`,
		ts.Format(time.RFC3339), net, net, net, wash, dry, customerID, hashID)
	require.NoError(t, err)
}
