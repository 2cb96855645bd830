package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/plaid"
)

// MockPlaidAPI implements plaid.API for testing
type MockPlaidAPI struct {
	TransactionsSyncFunc        func(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error)
	AccountsGetFunc             func(ctx context.Context, accessToken string) ([]plaid.RawAccount, error)
	InvestmentsHoldingsGetFunc  func(ctx context.Context, accessToken string) (*plaid.HoldingsResponse, error)
	LinkTokenCreateFunc         func(ctx context.Context, clientUserID string) (string, error)
	ItemPublicTokenExchangeFunc func(ctx context.Context, publicToken string) (string, string, error)
}

func (m *MockPlaidAPI) TransactionsSync(ctx context.Context, accessToken, cursor string) (*plaid.SyncResponse, error) {
	if m.TransactionsSyncFunc != nil {
		return m.TransactionsSyncFunc(ctx, accessToken, cursor)
	}
	return &plaid.SyncResponse{}, nil
}

func (m *MockPlaidAPI) AccountsGet(ctx context.Context, accessToken string) ([]plaid.RawAccount, error) {
	if m.AccountsGetFunc != nil {
		return m.AccountsGetFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockPlaidAPI) InvestmentsHoldingsGet(ctx context.Context, accessToken string) (*plaid.HoldingsResponse, error) {
	if m.InvestmentsHoldingsGetFunc != nil {
		return m.InvestmentsHoldingsGetFunc(ctx, accessToken)
	}
	return &plaid.HoldingsResponse{}, nil
}

func (m *MockPlaidAPI) LinkTokenCreate(ctx context.Context, clientUserID string) (string, error) {
	if m.LinkTokenCreateFunc != nil {
		return m.LinkTokenCreateFunc(ctx, clientUserID)
	}
	return "link-sandbox-token", nil
}

func (m *MockPlaidAPI) ItemPublicTokenExchange(ctx context.Context, publicToken string) (string, string, error) {
	if m.ItemPublicTokenExchangeFunc != nil {
		return m.ItemPublicTokenExchangeFunc(ctx, publicToken)
	}
	return "access-sandbox-token", "item-1", nil
}

func newBankHandler(client plaid.API, instRepo institution.Repository) *BankHandler {
	return NewBankHandler(client, instRepo, newTestDriver(&MockEntryRepo{}, instRepo), 30)
}

func TestHandleCreateLinkToken(t *testing.T) {
	client := &MockPlaidAPI{
		LinkTokenCreateFunc: func(ctx context.Context, clientUserID string) (string, error) {
			if clientUserID == "" {
				t.Error("clientUserID must not be empty")
			}
			return "link-sandbox-abc", nil
		},
	}
	handler := newBankHandler(client, &MockInstitutionRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/banks/link_token", nil)
	w := httptest.NewRecorder()
	handler.HandleCreateLinkToken(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["linkToken"] != "link-sandbox-abc" {
		t.Errorf("linkToken = %q", resp["linkToken"])
	}
}

func TestHandleLinkBank(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var created institution.CreateParams
		instRepo := &MockInstitutionRepo{
			CreateFunc: func(ctx context.Context, params institution.CreateParams) (*institution.Institution, error) {
				created = params
				return &institution.Institution{ID: 1, InstitutionID: params.InstitutionID, Name: params.Name, AccessToken: params.AccessToken}, nil
			},
		}
		handler := newBankHandler(&MockPlaidAPI{}, instRepo)

		body, _ := json.Marshal(LinkBankRequest{
			PublicToken:   "public-sandbox-123",
			InstitutionID: "ins_1",
			Name:          "Chase",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/banks/link", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleLinkBank(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
		}
		if created.AccessToken != "access-sandbox-token" || created.ItemID != "item-1" {
			t.Errorf("created = %+v, want exchanged token fields", created)
		}

		var resp institution.Institution
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Name != "Chase" {
			t.Errorf("Name = %q, want Chase", resp.Name)
		}
	})

	t.Run("Missing fields", func(t *testing.T) {
		handler := newBankHandler(&MockPlaidAPI{}, &MockInstitutionRepo{})
		body, _ := json.Marshal(LinkBankRequest{PublicToken: "public-sandbox-123"})
		req := httptest.NewRequest(http.MethodPost, "/api/banks/link", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleLinkBank(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("Exchange failure", func(t *testing.T) {
		client := &MockPlaidAPI{
			ItemPublicTokenExchangeFunc: func(ctx context.Context, publicToken string) (string, string, error) {
				return "", "", errors.New("INVALID_PUBLIC_TOKEN")
			},
		}
		handler := newBankHandler(client, &MockInstitutionRepo{})
		body, _ := json.Marshal(LinkBankRequest{PublicToken: "expired", InstitutionID: "ins_1", Name: "Chase"})
		req := httptest.NewRequest(http.MethodPost, "/api/banks/link", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleLinkBank(w, req)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

func TestHandleListBanks(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		instRepo := &MockInstitutionRepo{
			ListFunc: func(ctx context.Context) ([]*institution.Institution, error) {
				return []*institution.Institution{{ID: 1, Name: "Chase", AccessToken: "access-sandbox-secret"}}, nil
			},
		}
		handler := newBankHandler(&MockPlaidAPI{}, instRepo)

		req := httptest.NewRequest(http.MethodGet, "/api/banks", nil)
		w := httptest.NewRecorder()
		handler.HandleListBanks(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("access-sandbox-secret")) {
			t.Error("access token leaked into the response body")
		}
	})

	t.Run("Empty list serializes as array", func(t *testing.T) {
		handler := newBankHandler(&MockPlaidAPI{}, &MockInstitutionRepo{})
		req := httptest.NewRequest(http.MethodGet, "/api/banks", nil)
		w := httptest.NewRecorder()
		handler.HandleListBanks(w, req)
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("body = %q, want []", body)
		}
	})
}
