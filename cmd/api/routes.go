package main

import (
	"net/http"

	httphandlers "github.com/MatteoGuidii/MoneyMosaic-sub000/internal/interfaces/http"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Transactions and sync
	mux.HandleFunc("/api/transactions", deps.TransactionHandler.HandleListTransactions)
	mux.HandleFunc("/api/transactions/summary", deps.TransactionHandler.HandleSummary)
	mux.HandleFunc("/api/transactions/sync", deps.TransactionHandler.HandleSync)
	mux.HandleFunc("/api/transactions/sync/status", deps.TransactionHandler.HandleSyncStatus)
	mux.HandleFunc("/api/transactions/health_check", deps.TransactionHandler.HandleHealthCheck)
	mux.HandleFunc("/api/transactions/banks/", deps.TransactionHandler.HandleRemoveBank)

	// Bank linking
	mux.HandleFunc("/api/banks", deps.BankHandler.HandleListBanks)
	mux.HandleFunc("/api/banks/link", deps.BankHandler.HandleLinkBank)
	mux.HandleFunc("/api/banks/link_token", deps.BankHandler.HandleCreateLinkToken)

	// Accounts
	mux.HandleFunc("/api/accounts", deps.AccountHandler.HandleListAccounts)

	// Analytics
	mux.HandleFunc("/api/analytics/trends", deps.AnalyticsHandler.HandleTrends)
	mux.HandleFunc("/api/analytics/categories", deps.AnalyticsHandler.HandleCategories)
	mux.HandleFunc("/api/analytics/unusual", deps.AnalyticsHandler.HandleUnusual)

	// Budgets
	mux.HandleFunc("/api/budgets", deps.BudgetHandler.HandleBudgets)
	mux.HandleFunc("/api/budgets/insights", deps.BudgetHandler.HandleInsights)

	// Investments
	mux.HandleFunc("/api/investments/portfolio", deps.InvestmentHandler.HandlePortfolio)

	// Apply global middleware
	return middleware.Logging(middleware.CORS(mux))
}
