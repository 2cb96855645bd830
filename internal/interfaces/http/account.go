package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/account"
)

type AccountHandler struct {
	accountRepo account.Repository
}

func NewAccountHandler(accountRepo account.Repository) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo}
}

// HandleListAccounts lists accounts, optionally scoped to one institution.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		accounts []*account.Account
		err      error
	)

	if v := r.URL.Query().Get("institutionId"); v != "" {
		institutionID, parseErr := strconv.ParseInt(v, 10, 64)
		if parseErr != nil {
			http.Error(w, "Invalid institutionId", http.StatusBadRequest)
			return
		}
		accounts, err = h.accountRepo.ListByInstitution(r.Context(), institutionID)
	} else {
		accounts, err = h.accountRepo.List(r.Context())
	}

	if err != nil {
		log.Printf("Error listing accounts: %v", err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	if accounts == nil {
		accounts = []*account.Account{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}
