package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/account"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/transaction"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/plaid"
)

var (
	syncTracer      = otel.Tracer("moneymosaic/sync")
	syncMeter       = otel.Meter("moneymosaic/sync")
	syncRunTotal, _ = syncMeter.Int64Counter("sync.run.total", metric.WithDescription("Institution sync runs by status"))
)

// Summary aggregates the signed amounts of a driver run's entries.
type Summary struct {
	TotalExpenses    float64 `json:"totalExpenses"`
	TotalIncome      float64 `json:"totalIncome"`
	NetCashFlow      float64 `json:"netCashFlow"`
	TransactionCount int     `json:"transactionCount"`
}

// Result is the outcome of a multi-institution run. Summary is recomputed
// from the accumulated entries, not read back from storage, so partial
// failures never leak all-time totals into a run's report.
type Result struct {
	Transactions []*transaction.Entry `json:"transactions"`
	Summary      Summary              `json:"summary"`
	Failures     []string             `json:"failures,omitempty"`
}

// Driver reconciles every active institution sequentially, isolating
// per-institution failures so one broken connection never blocks the rest.
type Driver struct {
	reconciler      *Reconciler
	client          plaid.API
	institutionRepo institution.Repository
	accountRepo     account.Repository
	registry        *RunRegistry
}

// NewDriver creates a driver with explicit dependencies.
func NewDriver(reconciler *Reconciler, client plaid.API, institutionRepo institution.Repository, accountRepo account.Repository, registry *RunRegistry) *Driver {
	return &Driver{
		reconciler:      reconciler,
		client:          client,
		institutionRepo: institutionRepo,
		accountRepo:     accountRepo,
		registry:        registry,
	}
}

// Registry exposes run statuses for the sync status endpoint.
func (d *Driver) Registry() *RunRegistry {
	return d.registry
}

// RunForAll reconciles all active institutions and reports the entries dated
// within the last daysWindow days. Zero active institutions short-circuits to
// an explicit empty result without touching the ledger.
func (d *Driver) RunForAll(ctx context.Context, daysWindow int) (*Result, error) {
	institutions, err := d.institutionRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active institutions: %w", err)
	}

	result := &Result{Transactions: []*transaction.Entry{}}
	if len(institutions) == 0 {
		log.Println("Sync driver: no active institutions, nothing to do")
		return result, nil
	}

	since := time.Now().AddDate(0, 0, -daysWindow)

	for _, inst := range institutions {
		runResult, err := d.RunInstitution(ctx, inst, since)
		if err != nil {
			failMsg := fmt.Sprintf("institution %d (%s): %v", inst.ID, inst.Name, err)
			result.Failures = append(result.Failures, failMsg)
			log.Printf("Sync driver: %s", failMsg)
			continue
		}
		if runResult != nil {
			result.Transactions = append(result.Transactions, runResult.Entries...)
		}
	}

	result.Summary = summarizeEntries(result.Transactions)

	log.Printf("Sync driver completed: institutions=%d, failures=%d, transactions=%d, expenses=%.2f, income=%.2f",
		len(institutions), len(result.Failures), result.Summary.TransactionCount,
		result.Summary.TotalExpenses, result.Summary.TotalIncome)

	return result, nil
}

// ErrSyncInFlight is returned when a run for the institution is already running.
var ErrSyncInFlight = errors.New("sync already in flight")

// RunInstitution refreshes one institution's account balances and reconciles
// its transaction feed. The run registry guards against overlapping runs for
// the same institution; a guarded skip returns ErrSyncInFlight.
func (d *Driver) RunInstitution(ctx context.Context, inst *institution.Institution, since time.Time) (*RunResult, error) {
	if !institution.ValidAccessToken(inst.AccessToken) {
		return nil, fmt.Errorf("invalid access token format, skipping before any provider call")
	}

	runID, ok := d.registry.Begin(inst.ID)
	if !ok {
		log.Printf("Sync driver: institution %d already syncing, skipping trigger", inst.ID)
		syncRunTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "skipped")))
		return nil, ErrSyncInFlight
	}
	log.Printf("Sync driver: run %s started for institution %d (%s)", runID, inst.ID, inst.Name)

	ctx, span := syncTracer.Start(ctx, "sync.run",
		trace.WithAttributes(
			attribute.Int64("institution.id", inst.ID),
			attribute.String("sync.run_id", runID),
		),
	)
	defer span.End()

	runResult, err := d.syncInstitution(ctx, inst, since)
	d.registry.End(inst.ID, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		syncRunTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
	} else {
		syncRunTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	}

	return runResult, err
}

func (d *Driver) syncInstitution(ctx context.Context, inst *institution.Institution, since time.Time) (*RunResult, error) {
	if err := d.refreshAccounts(ctx, inst); err != nil {
		return nil, fmt.Errorf("account refresh failed: %w", err)
	}
	return d.reconciler.SyncInstitution(ctx, inst, since)
}

// refreshAccounts upserts the institution's accounts with current balances
// so every ledger entry written afterwards references a known account.
func (d *Driver) refreshAccounts(ctx context.Context, inst *institution.Institution) error {
	accounts, err := d.client.AccountsGet(ctx, inst.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}

	for i := range accounts {
		raw := &accounts[i]
		if raw.AccountID == "" {
			log.Printf("Skipping account record with no id for institution %d", inst.ID)
			continue
		}
		err := d.accountRepo.Upsert(ctx, account.UpsertParams{
			AccountID:        raw.AccountID,
			InstitutionID:    inst.ID,
			Name:             raw.Name,
			OfficialName:     raw.OfficialName,
			Type:             raw.Type,
			Subtype:          raw.Subtype,
			Mask:             raw.Mask,
			CurrentBalance:   raw.Balances.Current,
			AvailableBalance: raw.Balances.Available,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", raw.AccountID, err)
		}
	}

	return nil
}

// summarizeEntries computes run totals with decimal arithmetic to avoid
// float drift over large entry sets. Positive amounts are expenses, negative
// amounts income (absolute value), per the provider convention.
func summarizeEntries(entries []*transaction.Entry) Summary {
	expenses := decimal.Zero
	income := decimal.Zero

	for _, entry := range entries {
		amount := decimal.NewFromFloat(entry.Amount)
		if amount.GreaterThan(decimal.Zero) {
			expenses = expenses.Add(amount)
		} else {
			income = income.Add(amount.Abs())
		}
	}

	totalExpenses, _ := expenses.Float64()
	totalIncome, _ := income.Float64()
	net, _ := income.Sub(expenses).Float64()

	return Summary{
		TotalExpenses:    totalExpenses,
		TotalIncome:      totalIncome,
		NetCashFlow:      net,
		TransactionCount: len(entries),
	}
}
