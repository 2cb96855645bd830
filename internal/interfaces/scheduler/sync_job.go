package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/investment"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/sync"
)

// InstitutionSyncJob implements the Job interface for reconciling one
// institution's transaction feed.
type InstitutionSyncJob struct {
	inst     *institution.Institution
	driver   *sync.Driver
	syncDays int
}

// NewInstitutionSyncJob creates a sync job for one institution.
func NewInstitutionSyncJob(inst *institution.Institution, driver *sync.Driver, syncDays int) *InstitutionSyncJob {
	return &InstitutionSyncJob{
		inst:     inst,
		driver:   driver,
		syncDays: syncDays,
	}
}

// Execute runs the reconciliation for this institution.
func (j *InstitutionSyncJob) Execute(ctx context.Context) error {
	log.Printf("Starting transaction sync for institution %d (%s)", j.inst.ID, j.inst.Name)

	since := time.Now().AddDate(0, 0, -j.syncDays)
	result, err := j.driver.RunInstitution(ctx, j.inst, since)
	if err != nil {
		if errors.Is(err, sync.ErrSyncInFlight) {
			// A manual trigger beat us to it; nothing to retry.
			log.Printf("Transaction sync skipped for institution %d: already in flight", j.inst.ID)
			return nil
		}
		log.Printf("Transaction sync failed for institution %d: %v", j.inst.ID, err)
		return fmt.Errorf("sync failed: %w", err)
	}

	if len(result.Errors) > 0 {
		log.Printf("Transaction sync for institution %d completed with errors: Added=%d, Modified=%d, Removed=%d, Skipped=%d, Errors=%d",
			j.inst.ID, result.Added, result.Modified, result.Removed, result.Skipped, len(result.Errors))
		// Return error to mark for retry
		return fmt.Errorf("sync completed with %d errors", len(result.Errors))
	}

	log.Printf("Transaction sync for institution %d completed successfully: Pages=%d, Added=%d, Modified=%d, Removed=%d, Skipped=%d",
		j.inst.ID, result.Pages, result.Added, result.Modified, result.Removed, result.Skipped)

	return nil
}

// InstitutionID returns the institution this job syncs.
func (j *InstitutionSyncJob) InstitutionID() string {
	return strconv.FormatInt(j.inst.ID, 10)
}

// Description returns a human-readable description of the job.
func (j *InstitutionSyncJob) Description() string {
	return fmt.Sprintf("Transaction sync for institution %d (%s)", j.inst.ID, j.inst.Name)
}

// HoldingsSyncJob implements the Job interface for syncing one institution's
// investment holdings.
type HoldingsSyncJob struct {
	inst        *institution.Institution
	investments *investment.Service
}

// NewHoldingsSyncJob creates a holdings sync job for one institution.
func NewHoldingsSyncJob(inst *institution.Institution, investments *investment.Service) *HoldingsSyncJob {
	return &HoldingsSyncJob{
		inst:        inst,
		investments: investments,
	}
}

// Execute runs the holdings sync for this institution.
func (j *HoldingsSyncJob) Execute(ctx context.Context) error {
	log.Printf("Starting holdings sync for institution %d (%s)", j.inst.ID, j.inst.Name)

	result, err := j.investments.SyncInstitution(ctx, j.inst)
	if err != nil {
		log.Printf("Holdings sync failed for institution %d: %v", j.inst.ID, err)
		return fmt.Errorf("holdings sync failed: %w", err)
	}

	log.Printf("Holdings sync for institution %d completed: Securities=%d, Holdings=%d, Skipped=%d",
		j.inst.ID, result.Securities, result.Holdings, result.Skipped)

	return nil
}

// InstitutionID returns the institution this job syncs.
func (j *HoldingsSyncJob) InstitutionID() string {
	return strconv.FormatInt(j.inst.ID, 10)
}

// Description returns a human-readable description of the job.
func (j *HoldingsSyncJob) Description() string {
	return fmt.Sprintf("Holdings sync for institution %d (%s)", j.inst.ID, j.inst.Name)
}

// InstitutionFullSyncJob is a composite job that runs transaction sync first,
// then holdings sync. Transactions come first so cash flow stays current even
// when the institution has no investment accounts.
type InstitutionFullSyncJob struct {
	inst        *institution.Institution
	driver      *sync.Driver
	investments *investment.Service
	syncDays    int
}

// NewInstitutionFullSyncJob creates a composite sync job for one institution.
func NewInstitutionFullSyncJob(inst *institution.Institution, driver *sync.Driver, investments *investment.Service, syncDays int) *InstitutionFullSyncJob {
	return &InstitutionFullSyncJob{
		inst:        inst,
		driver:      driver,
		investments: investments,
		syncDays:    syncDays,
	}
}

// Execute runs transaction sync, then holdings sync on success.
func (j *InstitutionFullSyncJob) Execute(ctx context.Context) error {
	txJob := NewInstitutionSyncJob(j.inst, j.driver, j.syncDays)
	if err := txJob.Execute(ctx); err != nil {
		return fmt.Errorf("transaction sync failed, skipping holdings sync: %w", err)
	}

	holdingsJob := NewHoldingsSyncJob(j.inst, j.investments)
	if err := holdingsJob.Execute(ctx); err != nil {
		return fmt.Errorf("holdings sync failed: %w", err)
	}

	return nil
}

// InstitutionID returns the institution this job syncs.
func (j *InstitutionFullSyncJob) InstitutionID() string {
	return strconv.FormatInt(j.inst.ID, 10)
}

// Description returns a human-readable description of the job.
func (j *InstitutionFullSyncJob) Description() string {
	return fmt.Sprintf("Full sync (transactions + holdings) for institution %d (%s)", j.inst.ID, j.inst.Name)
}
