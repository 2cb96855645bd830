package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/transaction"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/plaid"
)

// RunResult contains the outcome of reconciling one institution's feed.
type RunResult struct {
	InstitutionID int64
	Pages         int
	Added         int
	Modified      int
	Removed       int
	Skipped       int // malformed provider records dropped without aborting a page
	Entries       []*transaction.Entry
	Errors        []string
}

// Reconciler drives the provider's cursor-paginated feed to completion for
// one institution, applying added/modified/removed sets to the ledger.
type Reconciler struct {
	client          plaid.API
	entryRepo       transaction.Repository
	institutionRepo institution.Repository
}

// NewReconciler creates a reconciler with explicit dependencies.
func NewReconciler(client plaid.API, entryRepo transaction.Repository, institutionRepo institution.Repository) *Reconciler {
	return &Reconciler{
		client:          client,
		entryRepo:       entryRepo,
		institutionRepo: institutionRepo,
	}
}

// SyncInstitution reconciles one institution from the provider's earliest
// page (the cursor is never persisted between runs; upserts make re-scans
// idempotent). On a fetch failure the run aborts immediately and entries
// from prior pages stay committed, so a retry is always safe. On success it
// returns the institution's entries dated on or after since.
func (r *Reconciler) SyncInstitution(ctx context.Context, inst *institution.Institution, since time.Time) (*RunResult, error) {
	result := &RunResult{
		InstitutionID: inst.ID,
		Errors:        []string{},
	}

	cursor := ""
	for {
		page, err := r.client.TransactionsSync(ctx, inst.AccessToken, cursor)
		if err != nil {
			return result, fmt.Errorf("failed to fetch sync page for institution %d: %w", inst.ID, err)
		}
		result.Pages++

		// Apply in the provider's reported grouping: added, modified, removed.
		for i := range page.Added {
			r.applyAdded(ctx, &page.Added[i], inst.ID, result)
		}
		for i := range page.Modified {
			r.applyModified(ctx, &page.Modified[i], result)
		}
		for _, removed := range page.Removed {
			r.applyRemoved(ctx, removed.TransactionID, result)
		}

		cursor = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	if err := r.institutionRepo.TouchUpdatedAt(ctx, inst.ID); err != nil {
		log.Printf("Warning: failed to refresh updated_at for institution %d: %v", inst.ID, err)
	}

	entries, err := r.entryRepo.Query(ctx, transaction.Filter{
		InstitutionID: &inst.ID,
		StartDate:     &since,
	})
	if err != nil {
		return result, fmt.Errorf("failed to query entries for institution %d: %w", inst.ID, err)
	}
	result.Entries = entries

	log.Printf("Reconciliation completed for institution %d (%s): pages=%d, added=%d, modified=%d, removed=%d, skipped=%d",
		inst.ID, inst.Name, result.Pages, result.Added, result.Modified, result.Removed, result.Skipped)

	return result, nil
}

func (r *Reconciler) applyAdded(ctx context.Context, raw *plaid.RawTransaction, institutionID int64, result *RunResult) {
	params, err := mapEntry(raw, institutionID)
	if err != nil {
		log.Printf("Skipping added record %q: %v", raw.TransactionID, err)
		result.Skipped++
		return
	}
	if err := r.entryRepo.Upsert(ctx, *params); err != nil {
		errMsg := fmt.Sprintf("failed to upsert transaction %s: %v", raw.TransactionID, err)
		result.Errors = append(result.Errors, errMsg)
		log.Printf("Error: %s", errMsg)
	} else {
		result.Added++
	}
}

func (r *Reconciler) applyModified(ctx context.Context, raw *plaid.RawTransaction, result *RunResult) {
	params, err := mapEntry(raw, 0)
	if err != nil {
		log.Printf("Skipping modified record %q: %v", raw.TransactionID, err)
		result.Skipped++
		return
	}

	update := transaction.UpdateParams{
		Amount:           &params.Amount,
		Date:             &params.Date,
		Name:             &params.Name,
		MerchantName:     params.MerchantName,
		CategoryPrimary:  &params.CategoryPrimary,
		CategoryDetailed: &params.CategoryDetailed,
		Type:             &params.Type,
		Pending:          &params.Pending,
	}
	err = r.entryRepo.Update(ctx, raw.TransactionID, update)
	if errors.Is(err, transaction.ErrNotFound) {
		// The provider reported a modification to a row we never stored.
		log.Printf("Modified record %q not found locally, ignoring", raw.TransactionID)
		return
	}
	if err != nil {
		errMsg := fmt.Sprintf("failed to update transaction %s: %v", raw.TransactionID, err)
		result.Errors = append(result.Errors, errMsg)
		log.Printf("Error: %s", errMsg)
		return
	}
	result.Modified++
}

func (r *Reconciler) applyRemoved(ctx context.Context, transactionID string, result *RunResult) {
	if transactionID == "" {
		result.Skipped++
		return
	}
	if err := r.entryRepo.Delete(ctx, transactionID); err != nil {
		errMsg := fmt.Sprintf("failed to delete transaction %s: %v", transactionID, err)
		result.Errors = append(result.Errors, errMsg)
		log.Printf("Error: %s", errMsg)
		return
	}
	result.Removed++
}

// mapEntry converts a raw provider record into ledger upsert params. A record
// without an id, amount or parseable date is malformed and rejected; callers
// skip it and continue with the rest of the page.
func mapEntry(raw *plaid.RawTransaction, institutionID int64) (*transaction.UpsertParams, error) {
	if raw.TransactionID == "" {
		return nil, fmt.Errorf("missing transaction_id")
	}
	if raw.Amount == nil {
		return nil, fmt.Errorf("missing amount")
	}

	date, err := raw.GetDate()
	if err != nil {
		return nil, err
	}
	if date == nil {
		return nil, fmt.Errorf("missing date")
	}

	cat := NormalizeCategory(raw.PersonalFinanceCategory, raw.Category)

	entryType := "income"
	if *raw.Amount > 0 {
		entryType = "expense"
	}

	var merchant *string
	if raw.MerchantName != "" {
		merchant = &raw.MerchantName
	}

	return &transaction.UpsertParams{
		TransactionID:    raw.TransactionID,
		AccountID:        raw.AccountID,
		InstitutionID:    institutionID,
		Amount:           *raw.Amount,
		Date:             *date,
		Name:             raw.Name,
		MerchantName:     merchant,
		CategoryPrimary:  cat.Primary,
		CategoryDetailed: cat.Detailed,
		Type:             entryType,
		Pending:          raw.Pending,
	}, nil
}
