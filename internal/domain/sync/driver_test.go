package sync

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/transaction"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/plaid"
)

func newTestDriver(client plaid.API, entryRepo transaction.Repository, instRepo institution.Repository, accountRepo *MockAccountRepo) *Driver {
	reconciler := NewReconciler(client, entryRepo, instRepo)
	return NewDriver(reconciler, client, instRepo, accountRepo, NewRunRegistry())
}

func TestRunForAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Zero active institutions short-circuits without a store query", func(t *testing.T) {
		instRepo := &MockInstitutionRepo{
			ListActiveFunc: func(ctx context.Context) ([]*institution.Institution, error) {
				return []*institution.Institution{}, nil
			},
		}
		entryRepo := &MockEntryRepo{
			QueryFunc: func(ctx context.Context, filter transaction.Filter) ([]*transaction.Entry, error) {
				t.Error("ledger must not be queried when no institutions are active")
				return nil, nil
			},
			SummarizeFunc: func(ctx context.Context, filter transaction.Filter) (*transaction.Summary, error) {
				t.Error("ledger must not be summarized when no institutions are active")
				return nil, nil
			},
		}

		d := newTestDriver(&MockAPI{}, entryRepo, instRepo, &MockAccountRepo{})
		result, err := d.RunForAll(ctx, 30)
		if err != nil {
			t.Fatalf("RunForAll() error = %v", err)
		}

		if len(result.Transactions) != 0 || len(result.Failures) != 0 {
			t.Errorf("result = %+v, want empty", result)
		}
		if result.Summary.TransactionCount != 0 || result.Summary.NetCashFlow != 0 {
			t.Errorf("Summary = %+v, want zeroed", result.Summary)
		}
	})

	t.Run("Isolates per-institution failures", func(t *testing.T) {
		good := &institution.Institution{ID: 1, Name: "Good Bank", AccessToken: "access-sandbox-good", IsActive: true}
		bad := &institution.Institution{ID: 2, Name: "Bad Bank", AccessToken: "access-sandbox-bad", IsActive: true}

		instRepo := &MockInstitutionRepo{
			ListActiveFunc: func(ctx context.Context) ([]*institution.Institution, error) {
				return []*institution.Institution{bad, good}, nil
			},
		}

		client := &MockAPI{
			AccountsGetFunc: func(ctx context.Context, accessToken string) ([]plaid.RawAccount, error) {
				if accessToken == "access-sandbox-bad" {
					return nil, errors.New("item login required")
				}
				return nil, nil
			},
			TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
				return &plaid.SyncResponse{Added: []plaid.RawTransaction{rawTx("t1", 42.50, "2024-01-10")}}, nil
			},
		}

		entryRepo := &MockEntryRepo{
			QueryFunc: func(ctx context.Context, filter transaction.Filter) ([]*transaction.Entry, error) {
				return []*transaction.Entry{
					{TransactionID: "t1", Amount: 42.50, Type: "expense"},
				}, nil
			},
		}

		d := newTestDriver(client, entryRepo, instRepo, &MockAccountRepo{})
		result, err := d.RunForAll(ctx, 30)
		if err != nil {
			t.Fatalf("RunForAll() error = %v", err)
		}

		if len(result.Failures) != 1 {
			t.Fatalf("Failures = %v, want one for Bad Bank", result.Failures)
		}
		if len(result.Transactions) != 1 {
			t.Errorf("Transactions = %d, want 1 from Good Bank", len(result.Transactions))
		}
		if result.Summary.TotalExpenses != 42.50 || result.Summary.TransactionCount != 1 {
			t.Errorf("Summary = %+v, want expenses 42.50 over 1 entry", result.Summary)
		}
	})

	t.Run("Invalid token fails pre-flight without a provider call", func(t *testing.T) {
		inst := &institution.Institution{ID: 3, Name: "Stale Bank", AccessToken: "bogus-token", IsActive: true}
		instRepo := &MockInstitutionRepo{
			ListActiveFunc: func(ctx context.Context) ([]*institution.Institution, error) {
				return []*institution.Institution{inst}, nil
			},
		}
		client := &MockAPI{
			AccountsGetFunc: func(ctx context.Context, accessToken string) ([]plaid.RawAccount, error) {
				t.Error("provider must not be called with a malformed token")
				return nil, nil
			},
			TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
				t.Error("provider must not be called with a malformed token")
				return nil, nil
			},
		}

		d := newTestDriver(client, &MockEntryRepo{}, instRepo, &MockAccountRepo{})
		result, err := d.RunForAll(ctx, 30)
		if err != nil {
			t.Fatalf("RunForAll() error = %v", err)
		}
		if len(result.Failures) != 1 {
			t.Errorf("Failures = %v, want one pre-flight failure", result.Failures)
		}
	})

	t.Run("Summary nets income against expenses", func(t *testing.T) {
		inst := testInstitution()
		instRepo := &MockInstitutionRepo{
			ListActiveFunc: func(ctx context.Context) ([]*institution.Institution, error) {
				return []*institution.Institution{inst}, nil
			},
		}
		client := &MockAPI{}
		entryRepo := &MockEntryRepo{
			QueryFunc: func(ctx context.Context, filter transaction.Filter) ([]*transaction.Entry, error) {
				return []*transaction.Entry{
					{TransactionID: "t1", Amount: 42.50},
					{TransactionID: "t2", Amount: 0.10},
					{TransactionID: "t3", Amount: -1000.00},
				}, nil
			},
		}

		d := newTestDriver(client, entryRepo, instRepo, &MockAccountRepo{})
		result, err := d.RunForAll(ctx, 30)
		if err != nil {
			t.Fatalf("RunForAll() error = %v", err)
		}

		if math.Abs(result.Summary.TotalExpenses-42.60) > 1e-9 {
			t.Errorf("TotalExpenses = %v, want 42.60", result.Summary.TotalExpenses)
		}
		if math.Abs(result.Summary.TotalIncome-1000.00) > 1e-9 {
			t.Errorf("TotalIncome = %v, want 1000.00", result.Summary.TotalIncome)
		}
		if math.Abs(result.Summary.NetCashFlow-957.40) > 1e-9 {
			t.Errorf("NetCashFlow = %v, want 957.40", result.Summary.NetCashFlow)
		}
		if result.Summary.TransactionCount != 3 {
			t.Errorf("TransactionCount = %d, want 3", result.Summary.TransactionCount)
		}
	})
}

func TestRunInstitutionGuard(t *testing.T) {
	ctx := context.Background()
	inst := testInstitution()
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	release := make(chan struct{})
	started := make(chan struct{})

	firstCall := true
	client := &MockAPI{
		TransactionsSyncFunc: func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
			if firstCall {
				firstCall = false
				close(started)
				<-release
			}
			return &plaid.SyncResponse{}, nil
		},
	}

	d := newTestDriver(client, &MockEntryRepo{}, &MockInstitutionRepo{}, &MockAccountRepo{})

	done := make(chan error, 1)
	go func() {
		_, err := d.RunInstitution(ctx, inst, since)
		done <- err
	}()

	<-started
	// Second trigger while the first is blocked inside the provider call.
	_, err := d.RunInstitution(ctx, inst, since)
	if !errors.Is(err, ErrSyncInFlight) {
		t.Errorf("overlapping run error = %v, want ErrSyncInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first run error = %v", err)
	}

	// After the first run finishes, a new run is allowed again.
	if _, err := d.RunInstitution(ctx, inst, since); err != nil {
		t.Errorf("follow-up run error = %v", err)
	}
}
