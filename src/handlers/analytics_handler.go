package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/processors"
	"github.com/username/lavametrics/backend/src/services"
	"github.com/username/lavametrics/backend/src/utils"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(service services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: service}
}

// HandleSummary serves the headline KPI payload. The summary backs the
// dashboard's landing view, so it carries an ETag to spare re-renders.
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	logger.L.Debug("Handling summary request with ETag support")

	summary, err := h.analyticsService.Summary()
	if err != nil {
		logger.L.Error("Error retrieving dashboard summary", "error", err)
		utils.SendJSONError(w, "Error retrieving dashboard summary.", http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(summary)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for dashboard summary", "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETags := strings.Split(r.Header.Get("If-None-Match"), ",")
		for _, cETag := range clientETags {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for dashboard summary", "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	writeJSON(w, summary)
}

func (h *AnalyticsHandler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	views, err := h.analyticsService.MonthlyViews()
	if err != nil {
		logger.L.Error("Error retrieving monthly aggregates", "error", err)
		utils.SendJSONError(w, "Error retrieving monthly aggregates.", http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []services.MonthlyView{}
	}
	writeJSON(w, views)
}

func (h *AnalyticsHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	weekly, err := h.analyticsService.WeeklyAggregates()
	if err != nil {
		logger.L.Error("Error retrieving weekly aggregates", "error", err)
		utils.SendJSONError(w, "Error retrieving weekly aggregates.", http.StatusInternalServerError)
		return
	}
	if weekly == nil {
		weekly = []models.WeeklyAggregate{}
	}
	writeJSON(w, weekly)
}

func (h *AnalyticsHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	daily, err := h.analyticsService.DailyAggregates()
	if err != nil {
		logger.L.Error("Error retrieving daily aggregates", "error", err)
		utils.SendJSONError(w, "Error retrieving daily aggregates.", http.StatusInternalServerError)
		return
	}
	if daily == nil {
		daily = []models.DailyAggregate{}
	}
	writeJSON(w, daily)
}

func (h *AnalyticsHandler) HandleSeasonal(w http.ResponseWriter, r *http.Request) {
	indices, err := h.analyticsService.SeasonalIndices()
	if err != nil {
		logger.L.Error("Error retrieving seasonal indices", "error", err)
		utils.SendJSONError(w, "Error retrieving seasonal indices.", http.StatusInternalServerError)
		return
	}
	if indices == nil {
		indices = []models.SeasonalIndexEntry{}
	}
	writeJSON(w, indices)
}

func (h *AnalyticsHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.analyticsService.RevenueForecast()
	if err != nil {
		logger.L.Error("Error retrieving revenue forecast", "error", err)
		utils.SendJSONError(w, "Error retrieving revenue forecast.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, forecast)
}

func (h *AnalyticsHandler) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	level, err := riskLevelFromQuery(r.URL.Query().Get("risk"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	segment, err := segmentFromQuery(r.URL.Query().Get("segment"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	profiles, err := h.analyticsService.CustomerProfiles(level, segment)
	if err != nil {
		logger.L.Error("Error retrieving customer profiles", "error", err)
		utils.SendJSONError(w, "Error retrieving customer profiles.", http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []models.CustomerProfile{}
	}
	writeJSON(w, profiles)
}

func (h *AnalyticsHandler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	days := 0
	if raw := query.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.SendJSONError(w, fmt.Sprintf("invalid days %q, expected a positive integer", raw), http.StatusBadRequest)
			return
		}
		days = parsed
	}
	segment, err := segmentFromQuery(query.Get("segment"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	heatmap, err := h.analyticsService.VisitHeatmap(days, segment)
	if err != nil {
		logger.L.Error("Error building visit heatmap", "error", err)
		utils.SendJSONError(w, "Error building visit heatmap.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, heatmap)
}

func (h *AnalyticsHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	currentStart, err := dateParam(query, "aStart")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	currentEnd, err := dateParam(query, "aEnd")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	baselineStart, err := dateParam(query, "bStart")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	baselineEnd, err := dateParam(query, "bEnd")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	comparison, err := h.analyticsService.ComparePeriods(currentStart, currentEnd, baselineStart, baselineEnd)
	if err != nil {
		if errors.Is(err, processors.ErrInvalidPeriod) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error comparing periods", "error", err)
		utils.SendJSONError(w, "Error comparing periods.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, comparison)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}

func riskLevelFromQuery(raw string) (models.RiskLevel, error) {
	switch raw {
	case "":
		return "", nil
	case string(models.RiskLow):
		return models.RiskLow, nil
	case string(models.RiskMedium):
		return models.RiskMedium, nil
	case string(models.RiskHigh):
		return models.RiskHigh, nil
	default:
		return "", fmt.Errorf("unknown risk level %q, expected low, medium or high", raw)
	}
}

func segmentFromQuery(raw string) (models.Segment, error) {
	if raw == "" {
		return "", nil
	}
	segment, ok := processors.NormalizeSegment(raw)
	if !ok {
		return "", fmt.Errorf("unknown segment %q", raw)
	}
	return segment, nil
}

func dateParam(query url.Values, name string) (time.Time, error) {
	raw := query.Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing required date parameter %q", name)
	}
	t, err := time.ParseInLocation(utils.DateOnlyFormat, raw, config.Cfg.Business.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q for %q, expected YYYY-MM-DD", raw, name)
	}
	return t, nil
}
