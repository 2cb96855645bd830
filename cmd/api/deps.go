package main

import (
	"log"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/analytics"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/budget"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/investment"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/sync"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/plaid"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/sqlite"
	httphandlers "github.com/MatteoGuidii/MoneyMosaic-sub000/internal/interfaces/http"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *sqlite.DB

	// Handlers
	TransactionHandler *httphandlers.TransactionHandler
	BankHandler        *httphandlers.BankHandler
	AccountHandler     *httphandlers.AccountHandler
	AnalyticsHandler   *httphandlers.AnalyticsHandler
	BudgetHandler      *httphandlers.BudgetHandler
	InvestmentHandler  *httphandlers.InvestmentHandler

	// Sync components (for scheduler)
	Driver            *sync.Driver
	InvestmentService *investment.Service

	// Repositories (for scheduler job provider)
	InstitutionRepo *sqlite.InstitutionRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Open database
	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	institutionRepo := sqlite.NewInstitutionRepository(db)
	accountRepo := sqlite.NewAccountRepository(db)
	transactionRepo := sqlite.NewTransactionRepository(db)
	investmentRepo := sqlite.NewInvestmentRepository(db)
	budgetRepo := sqlite.NewBudgetRepository(db)

	// Initialize provider client and sync components
	client, err := plaid.NewClient(cfg.Plaid.ClientID, cfg.Plaid.Secret, cfg.Plaid.Environment)
	if err != nil {
		db.Close()
		return nil, err
	}
	reconciler := sync.NewReconciler(client, transactionRepo, institutionRepo)
	registry := sync.NewRunRegistry()
	driver := sync.NewDriver(reconciler, client, institutionRepo, accountRepo, registry)

	// Initialize domain services
	investmentService := investment.NewService(client, investmentRepo)
	analyticsService := analytics.NewService(transactionRepo, analytics.Config{
		UnusualMultiplier: cfg.Analytics.UnusualMultiplier,
		LookbackPeriods:   cfg.Analytics.LookbackPeriods,
	})
	budgetService := budget.NewService(budgetRepo, transactionRepo)

	// Initialize handlers
	transactionHandler := httphandlers.NewTransactionHandler(transactionRepo, institutionRepo, driver, cfg.Plaid.SyncDays)
	bankHandler := httphandlers.NewBankHandler(client, institutionRepo, driver, cfg.Plaid.SyncDays)
	accountHandler := httphandlers.NewAccountHandler(accountRepo)
	analyticsHandler := httphandlers.NewAnalyticsHandler(analyticsService)
	budgetHandler := httphandlers.NewBudgetHandler(budgetRepo, budgetService)
	investmentHandler := httphandlers.NewInvestmentHandler(investmentService)

	return &Dependencies{
		DB:                 db,
		TransactionHandler: transactionHandler,
		BankHandler:        bankHandler,
		AccountHandler:     accountHandler,
		AnalyticsHandler:   analyticsHandler,
		BudgetHandler:      budgetHandler,
		InvestmentHandler:  investmentHandler,
		Driver:             driver,
		InvestmentService:  investmentService,
		InstitutionRepo:    institutionRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
