package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/sync"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/transaction"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/interfaces/scheduler"
)

// SyncSchedule is the slice of the scheduler the status endpoint reports:
// when the next automatic sync fires and the configured times of day.
type SyncSchedule interface {
	NextScheduledTime() time.Time
	ScheduleTimes() []scheduler.ScheduleTime
}

type TransactionHandler struct {
	entryRepo       transaction.Repository
	institutionRepo institution.Repository
	driver          *sync.Driver
	syncDays        int
	schedule        SyncSchedule
}

func NewTransactionHandler(entryRepo transaction.Repository, institutionRepo institution.Repository, driver *sync.Driver, syncDays int) *TransactionHandler {
	return &TransactionHandler{
		entryRepo:       entryRepo,
		institutionRepo: institutionRepo,
		driver:          driver,
		syncDays:        syncDays,
	}
}

// HandleListTransactions returns a filtered, paginated page of ledger entries.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.entryRepo.Query(r.Context(), filter)
	if err != nil {
		log.Printf("Error listing transactions: %v", err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	total, err := h.entryRepo.Count(r.Context(), filter)
	if err != nil {
		log.Printf("Error counting transactions: %v", err)
		http.Error(w, "Failed to count transactions", http.StatusInternalServerError)
		return
	}

	if entries == nil {
		entries = []*transaction.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": entries,
		"total":        total,
	})
}

// HandleSummary returns grouped spending/income totals for the filter window.
func (h *TransactionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		start := time.Now().AddDate(0, 0, -days)
		filter.StartDate = &start
	}

	summary, err := h.entryRepo.Summarize(r.Context(), filter)
	if err != nil {
		log.Printf("Error summarizing transactions: %v", err)
		http.Error(w, "Failed to summarize transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleSync triggers a sync of all active institutions in the background and
// returns immediately.
func (h *TransactionHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := h.driver.RunForAll(ctx, h.syncDays); err != nil {
			log.Printf("Background sync failed: %v", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"message":   "Sync started",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// SetSchedule attaches the periodic sync plan. Optional; the scheduler can be
// disabled by configuration.
func (h *TransactionHandler) SetSchedule(s SyncSchedule) {
	h.schedule = s
}

// HandleSyncStatus returns the latest run status per institution, plus the
// automatic sync schedule when one is active.
func (h *TransactionHandler) HandleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"runs": h.driver.Registry().Snapshot(),
	}
	if h.schedule != nil {
		times := h.schedule.ScheduleTimes()
		formatted := make([]string, 0, len(times))
		for _, st := range times {
			formatted = append(formatted, st.String())
		}
		resp["schedule"] = map[string]any{
			"times":   formatted,
			"nextRun": h.schedule.NextScheduledTime().Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type institutionHealth struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Healthy    bool      `json:"healthy"`
	LastSynced time.Time `json:"lastSynced"`
}

// HandleHealthCheck reports per-institution sync freshness. An institution is
// healthy when it synced within the last 24 hours.
func (h *TransactionHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	institutions, err := h.institutionRepo.ListActive(r.Context())
	if err != nil {
		log.Printf("Error listing institutions for health check: %v", err)
		http.Error(w, "Failed to check institution health", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	healthy := make([]institutionHealth, 0)
	unhealthy := make([]institutionHealth, 0)
	statuses := make([]institutionHealth, 0, len(institutions))

	for _, inst := range institutions {
		status := institutionHealth{
			ID:         inst.ID,
			Name:       inst.Name,
			Healthy:    inst.Healthy(now),
			LastSynced: inst.UpdatedAt,
		}
		statuses = append(statuses, status)
		if status.Healthy {
			healthy = append(healthy, status)
		} else {
			unhealthy = append(unhealthy, status)
		}
	}

	overall := "healthy"
	if len(unhealthy) > 0 {
		overall = "degraded"
	}
	if len(institutions) == 0 {
		overall = "no_institutions"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"overallHealth":  overall,
		"healthy":        healthy,
		"unhealthy":      unhealthy,
		"healthyCount":   len(healthy),
		"unhealthyCount": len(unhealthy),
		"institutions":   statuses,
	})
}

// HandleRemoveBank removes an institution and all its accounts, transactions
// and holdings in one database transaction.
func (h *TransactionHandler) HandleRemoveBank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/transactions/banks/")
	if idStr == "" {
		http.Error(w, "Institution ID is required", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid institution ID", http.StatusBadRequest)
		return
	}

	inst, err := h.institutionRepo.GetByID(r.Context(), id)
	if err != nil {
		log.Printf("Error getting institution %d for removal: %v", id, err)
		http.Error(w, "Failed to get institution", http.StatusInternalServerError)
		return
	}
	if inst == nil {
		http.Error(w, "Institution not found", http.StatusNotFound)
		return
	}

	if err := h.institutionRepo.RemoveCascade(r.Context(), id); err != nil {
		log.Printf("Error removing institution %d: %v", id, err)
		http.Error(w, "Failed to remove institution", http.StatusInternalServerError)
		return
	}

	log.Printf("Removed institution %d (%s) and all its data", id, inst.Name)
	w.WriteHeader(http.StatusNoContent)
}

// parseFilter builds a ledger query from request query parameters.
func parseFilter(r *http.Request) (transaction.Filter, error) {
	q := r.URL.Query()
	var filter transaction.Filter

	if v := q.Get("institutionId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errInvalidParam("institutionId")
		}
		filter.InstitutionID = &id
	}

	if v := q.Get("accountIds"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.AccountIDs = append(filter.AccountIDs, id)
			}
		}
	}

	filter.Category = q.Get("category")
	filter.Search = q.Get("search")

	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errInvalidParam("startDate (use YYYY-MM-DD)")
		}
		filter.StartDate = &t
	}

	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errInvalidParam("endDate (use YYYY-MM-DD)")
		}
		filter.EndDate = &t
	}

	if v := q.Get("minAmount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errInvalidParam("minAmount")
		}
		filter.MinAmount = &f
	}

	if v := q.Get("maxAmount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errInvalidParam("maxAmount")
		}
		filter.MaxAmount = &f
	}

	if v := q.Get("pending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errInvalidParam("pending")
		}
		filter.Pending = &b
	}

	switch v := q.Get("sortBy"); v {
	case "", transaction.SortByDate, transaction.SortByAmount, transaction.SortByName:
		filter.SortBy = v
	default:
		return filter, errInvalidParam("sortBy (use date, amount or name)")
	}
	switch v := q.Get("order"); v {
	case "", "desc":
	case "asc":
		filter.SortAsc = true
	default:
		return filter, errInvalidParam("order (use asc or desc)")
	}

	filter.Limit = 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	return filter, nil
}

func errInvalidParam(name string) error { return fmt.Errorf("invalid %s", name) }
