package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/budget"
)

type BudgetHandler struct {
	budgetRepo budget.Repository
	service    *budget.Service
}

func NewBudgetHandler(budgetRepo budget.Repository, service *budget.Service) *BudgetHandler {
	return &BudgetHandler{
		budgetRepo: budgetRepo,
		service:    service,
	}
}

type SetBudgetRequest struct {
	Category     string  `json:"category"`
	MonthlyLimit float64 `json:"monthlyLimit"`
}

// HandleBudgets dispatches list, set and delete on /api/budgets.
func (h *BudgetHandler) HandleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listBudgets(w, r)
	case http.MethodPost:
		h.setBudget(w, r)
	case http.MethodDelete:
		h.deleteBudget(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BudgetHandler) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.budgetRepo.List(r.Context())
	if err != nil {
		log.Printf("Error listing budgets: %v", err)
		http.Error(w, "Failed to list budgets", http.StatusInternalServerError)
		return
	}

	if budgets == nil {
		budgets = []*budget.Budget{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budgets)
}

func (h *BudgetHandler) setBudget(w http.ResponseWriter, r *http.Request) {
	var req SetBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding set budget request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}
	if req.MonthlyLimit <= 0 {
		http.Error(w, "monthlyLimit must be positive", http.StatusBadRequest)
		return
	}

	b, err := h.budgetRepo.Set(r.Context(), req.Category, req.MonthlyLimit)
	if err != nil {
		log.Printf("Error setting budget for category %s: %v", req.Category, err)
		http.Error(w, "Failed to set budget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

func (h *BudgetHandler) deleteBudget(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}

	if err := h.budgetRepo.Delete(r.Context(), category); err != nil {
		log.Printf("Error deleting budget for category %s: %v", category, err)
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleInsights returns the current month's progress against each budget.
func (h *BudgetHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	insights, err := h.service.Insights(r.Context(), time.Now())
	if err != nil {
		log.Printf("Error computing budget insights: %v", err)
		http.Error(w, "Failed to compute budget insights", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"insights": insights,
	})
}
