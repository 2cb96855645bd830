package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/investment"
)

type InvestmentHandler struct {
	service *investment.Service
}

func NewInvestmentHandler(service *investment.Service) *InvestmentHandler {
	return &InvestmentHandler{service: service}
}

// HandlePortfolio returns the aggregate portfolio across all institutions.
func (h *InvestmentHandler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.service.PortfolioSummary(r.Context())
	if err != nil {
		log.Printf("Error computing portfolio summary: %v", err)
		http.Error(w, "Failed to compute portfolio summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
