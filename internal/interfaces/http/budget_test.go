package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/budget"
)

// MockBudgetRepo implements budget.Repository for testing
type MockBudgetRepo struct {
	SetFunc    func(ctx context.Context, category string, monthlyLimit float64) (*budget.Budget, error)
	ListFunc   func(ctx context.Context) ([]*budget.Budget, error)
	DeleteFunc func(ctx context.Context, category string) error
}

func (m *MockBudgetRepo) Set(ctx context.Context, category string, monthlyLimit float64) (*budget.Budget, error) {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, category, monthlyLimit)
	}
	return nil, nil
}

func (m *MockBudgetRepo) List(ctx context.Context) ([]*budget.Budget, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockBudgetRepo) Delete(ctx context.Context, category string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, category)
	}
	return nil
}

func newBudgetHandler(repo budget.Repository) *BudgetHandler {
	return NewBudgetHandler(repo, budget.NewService(repo, &MockEntryRepo{}))
}

func TestHandleBudgets(t *testing.T) {
	t.Run("List empty serializes as array", func(t *testing.T) {
		handler := newBudgetHandler(&MockBudgetRepo{})
		req := httptest.NewRequest(http.MethodGet, "/api/budgets", nil)
		w := httptest.NewRecorder()
		handler.HandleBudgets(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("body = %q, want []", body)
		}
	})

	t.Run("Set budget", func(t *testing.T) {
		repo := &MockBudgetRepo{
			SetFunc: func(ctx context.Context, category string, monthlyLimit float64) (*budget.Budget, error) {
				return &budget.Budget{ID: 1, Category: category, MonthlyLimit: monthlyLimit}, nil
			},
		}
		handler := newBudgetHandler(repo)

		body, _ := json.Marshal(SetBudgetRequest{Category: "FOOD_AND_DRINK", MonthlyLimit: 400})
		req := httptest.NewRequest(http.MethodPost, "/api/budgets", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleBudgets(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
		}
		var b budget.Budget
		if err := json.NewDecoder(w.Body).Decode(&b); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if b.Category != "FOOD_AND_DRINK" || b.MonthlyLimit != 400 {
			t.Errorf("budget = %+v", b)
		}
	})

	t.Run("Set validation", func(t *testing.T) {
		tests := []struct {
			name string
			req  SetBudgetRequest
		}{
			{"Missing category", SetBudgetRequest{MonthlyLimit: 100}},
			{"Zero limit", SetBudgetRequest{Category: "FOOD_AND_DRINK"}},
			{"Negative limit", SetBudgetRequest{Category: "FOOD_AND_DRINK", MonthlyLimit: -10}},
		}
		handler := newBudgetHandler(&MockBudgetRepo{})
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				body, _ := json.Marshal(tt.req)
				req := httptest.NewRequest(http.MethodPost, "/api/budgets", bytes.NewReader(body))
				w := httptest.NewRecorder()
				handler.HandleBudgets(w, req)
				if w.Code != http.StatusBadRequest {
					t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
				}
			})
		}
	})

	t.Run("Delete", func(t *testing.T) {
		var deleted string
		repo := &MockBudgetRepo{
			DeleteFunc: func(ctx context.Context, category string) error {
				deleted = category
				return nil
			},
		}
		handler := newBudgetHandler(repo)

		req := httptest.NewRequest(http.MethodDelete, "/api/budgets?category=TRAVEL", nil)
		w := httptest.NewRecorder()
		handler.HandleBudgets(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
		}
		if deleted != "TRAVEL" {
			t.Errorf("deleted = %q, want TRAVEL", deleted)
		}
	})

	t.Run("Delete missing category", func(t *testing.T) {
		handler := newBudgetHandler(&MockBudgetRepo{})
		req := httptest.NewRequest(http.MethodDelete, "/api/budgets", nil)
		w := httptest.NewRecorder()
		handler.HandleBudgets(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("Delete not found", func(t *testing.T) {
		repo := &MockBudgetRepo{
			DeleteFunc: func(ctx context.Context, category string) error {
				return errors.New("no budget for category GHOST")
			},
		}
		handler := newBudgetHandler(repo)
		req := httptest.NewRequest(http.MethodDelete, "/api/budgets?category=GHOST", nil)
		w := httptest.NewRecorder()
		handler.HandleBudgets(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestHandleInsights(t *testing.T) {
	handler := newBudgetHandler(&MockBudgetRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/budgets/insights", nil)
	w := httptest.NewRecorder()
	handler.HandleInsights(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := resp["insights"]; !ok {
		t.Error("response missing insights key")
	}
}
