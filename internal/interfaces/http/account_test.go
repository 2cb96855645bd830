package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/account"
)

// MockAccountRepo implements account.Repository for testing
type MockAccountRepo struct {
	UpsertFunc            func(ctx context.Context, params account.UpsertParams) error
	GetByAccountIDFunc    func(ctx context.Context, accountID string) (*account.Account, error)
	ListByInstitutionFunc func(ctx context.Context, institutionID int64) ([]*account.Account, error)
	ListFunc              func(ctx context.Context) ([]*account.Account, error)
}

func (m *MockAccountRepo) Upsert(ctx context.Context, params account.UpsertParams) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return nil
}

func (m *MockAccountRepo) GetByAccountID(ctx context.Context, accountID string) (*account.Account, error) {
	if m.GetByAccountIDFunc != nil {
		return m.GetByAccountIDFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockAccountRepo) ListByInstitution(ctx context.Context, institutionID int64) ([]*account.Account, error) {
	if m.ListByInstitutionFunc != nil {
		return m.ListByInstitutionFunc(ctx, institutionID)
	}
	return nil, nil
}

func (m *MockAccountRepo) List(ctx context.Context) ([]*account.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func TestHandleListAccounts(t *testing.T) {
	t.Run("All accounts", func(t *testing.T) {
		repo := &MockAccountRepo{
			ListFunc: func(ctx context.Context) ([]*account.Account, error) {
				return []*account.Account{
					{ID: 1, AccountID: "acc-1", Name: "Checking"},
					{ID: 2, AccountID: "acc-2", Name: "Savings"},
				}, nil
			},
		}
		handler := NewAccountHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		w := httptest.NewRecorder()
		handler.HandleListAccounts(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var accounts []*account.Account
		if err := json.NewDecoder(w.Body).Decode(&accounts); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(accounts) != 2 {
			t.Errorf("got %d accounts, want 2", len(accounts))
		}
	})

	t.Run("Scoped to institution", func(t *testing.T) {
		var gotID int64
		repo := &MockAccountRepo{
			ListByInstitutionFunc: func(ctx context.Context, institutionID int64) ([]*account.Account, error) {
				gotID = institutionID
				return []*account.Account{{ID: 1, InstitutionID: institutionID}}, nil
			},
		}
		handler := NewAccountHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/accounts?institutionId=5", nil)
		w := httptest.NewRecorder()
		handler.HandleListAccounts(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if gotID != 5 {
			t.Errorf("institutionID = %d, want 5", gotID)
		}
	})

	t.Run("Invalid institutionId", func(t *testing.T) {
		handler := NewAccountHandler(&MockAccountRepo{})
		req := httptest.NewRequest(http.MethodGet, "/api/accounts?institutionId=abc", nil)
		w := httptest.NewRecorder()
		handler.HandleListAccounts(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("Empty list serializes as array", func(t *testing.T) {
		handler := NewAccountHandler(&MockAccountRepo{})
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		w := httptest.NewRecorder()
		handler.HandleListAccounts(w, req)

		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("body = %q, want []", body)
		}
	})
}
