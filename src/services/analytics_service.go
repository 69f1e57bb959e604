package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/database"
	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/processors"
	"github.com/username/lavametrics/backend/src/utils"
)

const (
	// Assembled view caches, flushed wholesale after every import.
	ckSummary          = "view_summary"
	ckMonthlyViews     = "view_monthly"
	ckWeekly           = "view_weekly"
	ckDaily            = "view_daily"
	ckSeasonal         = "view_seasonal"
	ckForecast         = "view_forecast"
	ckCustomerProfiles = "view_customer_profiles"
	ckHeatmap          = "view_heatmap_%d_%s" // window days, segment filter

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type analyticsServiceImpl struct {
	aggregator  processors.TemporalAggregator
	growth      processors.GrowthProcessor
	customers   processors.CustomerProcessor
	heatmap     processors.HeatmapProcessor
	comparison  processors.ComparisonProcessor
	business    config.BusinessConfig
	analytics   config.AnalyticsConfig
	reportCache *cache.Cache
	now         func() time.Time
}

func NewAnalyticsService(
	aggregator processors.TemporalAggregator,
	growth processors.GrowthProcessor,
	customers processors.CustomerProcessor,
	heatmap processors.HeatmapProcessor,
	comparison processors.ComparisonProcessor,
	business config.BusinessConfig,
	analytics config.AnalyticsConfig,
	reportCache *cache.Cache,
) AnalyticsService {
	return &analyticsServiceImpl{
		aggregator:  aggregator,
		growth:      growth,
		customers:   customers,
		heatmap:     heatmap,
		comparison:  comparison,
		business:    business,
		analytics:   analytics,
		reportCache: reportCache,
		now:         time.Now,
	}
}

func (s *analyticsServiceImpl) Summary() (*DashboardSummary, error) {
	if cached, found := s.reportCache.Get(ckSummary); found {
		logger.L.Debug("Cache hit for dashboard summary")
		return cached.(*DashboardSummary), nil
	}
	logger.L.Info("Cache miss for dashboard summary, recalculating from DB")

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return nil, err
	}
	registry, err := fetchCustomerRegistry()
	if err != nil {
		return nil, err
	}

	monthly := s.aggregator.AggregateMonthly(snapshot)
	views := assembleMonthlyViews(monthly, s.growth)
	profiles := s.customers.BuildProfiles(snapshot, registry, s.now())

	summary := &DashboardSummary{
		TotalCustomers: len(profiles),
		HighRiskCustomers: lo.CountBy(profiles, func(p models.CustomerProfile) bool {
			return p.RiskLevel == models.RiskHigh
		}),
	}
	for _, m := range monthly {
		summary.TotalRevenue += m.Revenue
		summary.TotalTransactions += m.TransactionCount
		summary.TotalServices += m.ServiceCount
	}
	summary.TotalRevenue = utils.Round2(summary.TotalRevenue)
	if len(snapshot) > 0 {
		summary.FirstActivityDay = snapshot[0].DayKey
		summary.LastActivityDay = snapshot[len(snapshot)-1].DayKey
	}
	if len(views) > 0 {
		current := views[len(views)-1]
		summary.CurrentMonth = &current
	}
	if len(monthly) > 1 {
		previous := monthly[len(monthly)-2]
		summary.PreviousMonth = &previous
	}
	summary.ForecastTrend = s.growth.Forecast(monthly).Trend

	s.reportCache.Set(ckSummary, summary, DefaultCacheExpiration)
	return summary, nil
}

func (s *analyticsServiceImpl) MonthlyViews() ([]MonthlyView, error) {
	if cached, found := s.reportCache.Get(ckMonthlyViews); found {
		logger.L.Debug("Cache hit for monthly views")
		return cached.([]MonthlyView), nil
	}
	logger.L.Info("Cache miss for monthly views, recalculating from DB")

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return nil, err
	}
	views := assembleMonthlyViews(s.aggregator.AggregateMonthly(snapshot), s.growth)
	s.reportCache.Set(ckMonthlyViews, views, DefaultCacheExpiration)
	return views, nil
}

func (s *analyticsServiceImpl) WeeklyAggregates() ([]models.WeeklyAggregate, error) {
	if cached, found := s.reportCache.Get(ckWeekly); found {
		logger.L.Debug("Cache hit for weekly aggregates")
		return cached.([]models.WeeklyAggregate), nil
	}
	logger.L.Info("Cache miss for weekly aggregates, recalculating from DB")

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return nil, err
	}
	weekly := s.aggregator.AggregateWeekly(snapshot)
	s.reportCache.Set(ckWeekly, weekly, DefaultCacheExpiration)
	return weekly, nil
}

func (s *analyticsServiceImpl) DailyAggregates() ([]models.DailyAggregate, error) {
	if cached, found := s.reportCache.Get(ckDaily); found {
		logger.L.Debug("Cache hit for daily aggregates")
		return cached.([]models.DailyAggregate), nil
	}
	logger.L.Info("Cache miss for daily aggregates, recalculating from DB")

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return nil, err
	}
	daily := s.aggregator.AggregateDaily(snapshot)
	s.reportCache.Set(ckDaily, daily, DefaultCacheExpiration)
	return daily, nil
}

func (s *analyticsServiceImpl) SeasonalIndices() ([]models.SeasonalIndexEntry, error) {
	if cached, found := s.reportCache.Get(ckSeasonal); found {
		logger.L.Debug("Cache hit for seasonal indices")
		return cached.([]models.SeasonalIndexEntry), nil
	}
	logger.L.Info("Cache miss for seasonal indices, recalculating from DB")

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return nil, err
	}
	indices := s.growth.SeasonalIndices(s.aggregator.AggregateMonthly(snapshot))
	s.reportCache.Set(ckSeasonal, indices, DefaultCacheExpiration)
	return indices, nil
}

func (s *analyticsServiceImpl) RevenueForecast() (models.Forecast, error) {
	if cached, found := s.reportCache.Get(ckForecast); found {
		logger.L.Debug("Cache hit for revenue forecast")
		return cached.(models.Forecast), nil
	}
	logger.L.Info("Cache miss for revenue forecast, recalculating from DB")

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return models.Forecast{}, err
	}
	forecast := s.growth.Forecast(s.aggregator.AggregateMonthly(snapshot))
	s.reportCache.Set(ckForecast, forecast, DefaultCacheExpiration)
	return forecast, nil
}

func (s *analyticsServiceImpl) CustomerProfiles(level models.RiskLevel, segment models.Segment) ([]models.CustomerProfile, error) {
	profiles, err := s.allCustomerProfiles()
	if err != nil {
		return nil, err
	}
	if level == "" && segment == "" {
		return profiles, nil
	}
	return lo.Filter(profiles, func(p models.CustomerProfile, _ int) bool {
		if level != "" && p.RiskLevel != level {
			return false
		}
		if segment != "" && p.Segment != segment {
			return false
		}
		return true
	}), nil
}

func (s *analyticsServiceImpl) allCustomerProfiles() ([]models.CustomerProfile, error) {
	if cached, found := s.reportCache.Get(ckCustomerProfiles); found {
		logger.L.Debug("Cache hit for customer profiles")
		return cached.([]models.CustomerProfile), nil
	}
	logger.L.Info("Cache miss for customer profiles, recalculating from DB")

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return nil, err
	}
	registry, err := fetchCustomerRegistry()
	if err != nil {
		return nil, err
	}
	profiles := s.customers.BuildProfiles(snapshot, registry, s.now())
	s.reportCache.Set(ckCustomerProfiles, profiles, DefaultCacheExpiration)
	return profiles, nil
}

func (s *analyticsServiceImpl) VisitHeatmap(windowDays int, segment models.Segment) (models.Heatmap, error) {
	if windowDays <= 0 {
		windowDays = s.analytics.HeatmapWindowDays
	}
	cacheKey := fmt.Sprintf(ckHeatmap, windowDays, segment)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for visit heatmap", "windowDays", windowDays, "segment", segment)
		return cached.(models.Heatmap), nil
	}
	logger.L.Info("Cache miss for visit heatmap, recalculating from DB", "windowDays", windowDays, "segment", segment)

	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return models.Heatmap{}, err
	}

	// The segment filter resolves against current profile segments, so a
	// filtered request runs the profile pass first.
	var segments map[string]models.Segment
	if segment != "" {
		profiles, err := s.allCustomerProfiles()
		if err != nil {
			return models.Heatmap{}, err
		}
		segments = lo.Associate(profiles, func(p models.CustomerProfile) (string, models.Segment) {
			return p.CustomerID, p.Segment
		})
	}

	heatmap := s.heatmap.Build(snapshot, segments, segment, s.now(), windowDays)
	s.reportCache.Set(cacheKey, heatmap, DefaultCacheExpiration)
	return heatmap, nil
}

func (s *analyticsServiceImpl) ComparePeriods(currentStart, currentEnd, baselineStart, baselineEnd time.Time) (models.PeriodComparison, error) {
	// Arbitrary ranges make poor cache keys; the comparison runs fresh.
	snapshot, err := fetchTransactionSnapshot(s.business.Location)
	if err != nil {
		return models.PeriodComparison{}, err
	}
	return s.comparison.Compare(snapshot, currentStart, currentEnd, baselineStart, baselineEnd)
}

// InvalidateCache clears every assembled view, forcing a complete rebuild on
// the next request.
func (s *analyticsServiceImpl) InvalidateCache() {
	s.reportCache.Flush()
	logger.L.Info("Invalidated all analytics caches")
}

// assembleMonthlyViews zips the aggregates with their growth entries. Both
// series come out sorted chronologically with one entry per month.
func assembleMonthlyViews(monthly []models.MonthlyAggregate, growth processors.GrowthProcessor) []MonthlyView {
	series := growth.GrowthSeries(monthly)
	return lo.Map(monthly, func(agg models.MonthlyAggregate, i int) MonthlyView {
		return MonthlyView{MonthlyAggregate: agg, MoMGrowth: series[i].MoMGrowth, YoYGrowth: series[i].YoYGrowth}
	})
}

func fetchTransactionSnapshot(loc *time.Location) ([]models.Transaction, error) {
	logger.L.Debug("Fetching transaction snapshot from DB")
	rows, err := database.DB.Query(`SELECT id, occurred_at, gross_amount, paid_amount, cashback_amount, net_amount, discount_amount, wash_units, dry_units, customer_id, customer_name, phone, store, payment_method, machines, kind, used_coupon, coupon_code, hash_id FROM transactions ORDER BY occurred_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var occurredAt, kind string
		if err := rows.Scan(&tx.ID, &occurredAt, &tx.GrossAmount, &tx.PaidAmount, &tx.CashbackAmount,
			&tx.NetAmount, &tx.DiscountAmount, &tx.WashUnits, &tx.DryUnits, &tx.CustomerID,
			&tx.CustomerName, &tx.Phone, &tx.Store, &tx.PaymentMethod, &tx.Machines,
			&kind, &tx.UsedCoupon, &tx.CouponCode, &tx.HashID); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored timestamp %q: %w", occurredAt, err)
		}
		tx.Timestamp = ts
		tx.Kind = models.TransactionKind(kind)
		tx.IsTopUp = tx.Kind == models.KindTopUp
		tx.DeriveCalendar(loc)
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}
	logger.L.Debug("Snapshot fetch complete", "transactionCount", len(transactions))
	return transactions, nil
}

func fetchCustomerRegistry() (map[string]models.CustomerRecord, error) {
	rows, err := database.DB.Query(`SELECT id, document, name, phone, email, registered_at, wallet_balance, pos_visit_count, pos_total_spent, pos_last_visit FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("error querying customers: %w", err)
	}
	defer rows.Close()

	registry := make(map[string]models.CustomerRecord)
	for rows.Next() {
		var record models.CustomerRecord
		var name, phone, email, registeredAt, lastVisit sql.NullString
		if err := rows.Scan(&record.ID, &record.Document, &name, &phone, &email,
			&registeredAt, &record.WalletBalance, &record.POSVisitCount,
			&record.POSTotalSpent, &lastVisit); err != nil {
			return nil, fmt.Errorf("error scanning customer row: %w", err)
		}
		record.Name = name.String
		record.Phone = phone.String
		record.Email = email.String
		// Registry dates are display data; unreadable values stay zero.
		if registeredAt.Valid && registeredAt.String != "" {
			record.RegisteredAt, _ = time.Parse(time.RFC3339, registeredAt.String)
		}
		if lastVisit.Valid && lastVisit.String != "" {
			record.POSLastVisit, _ = time.Parse(time.RFC3339, lastVisit.String)
		}
		registry[record.Document] = record
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over customer rows: %w", err)
	}
	return registry, nil
}
