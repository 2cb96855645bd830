package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/analytics"
)

type AnalyticsHandler struct {
	service *analytics.Service
}

func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// HandleTrends returns daily spending and income totals over the window.
func (h *AnalyticsHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days, err := parseDays(r, 30)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trends, err := h.service.Trends(r.Context(), time.Now(), days)
	if err != nil {
		log.Printf("Error computing spending trends: %v", err)
		http.Error(w, "Failed to compute trends", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"days":   days,
		"trends": trends,
	})
}

// HandleCategories returns per-category spending totals and shares.
func (h *AnalyticsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days, err := parseDays(r, 30)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	breakdown, err := h.service.CategoryBreakdown(r.Context(), time.Now(), days)
	if err != nil {
		log.Printf("Error computing category breakdown: %v", err)
		http.Error(w, "Failed to compute category breakdown", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"days":       days,
		"categories": breakdown,
	})
}

// HandleUnusual returns categories whose spend in the current window exceeds
// the historical mean by the configured multiplier.
func (h *AnalyticsHandler) HandleUnusual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days, err := parseDays(r, 30)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	unusual, err := h.service.UnusualSpending(r.Context(), time.Now(), days)
	if err != nil {
		log.Printf("Error detecting unusual spending: %v", err)
		http.Error(w, "Failed to detect unusual spending", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"days":    days,
		"unusual": unusual,
	})
}

func parseDays(r *http.Request, defaultDays int) (int, error) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return defaultDays, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days <= 0 {
		return 0, errInvalidParam("days")
	}
	return days, nil
}
