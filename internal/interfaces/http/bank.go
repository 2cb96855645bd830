package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/institution"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/domain/sync"
	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/infrastructure/plaid"
)

type BankHandler struct {
	client          plaid.API
	institutionRepo institution.Repository
	driver          *sync.Driver
	syncDays        int
}

func NewBankHandler(client plaid.API, institutionRepo institution.Repository, driver *sync.Driver, syncDays int) *BankHandler {
	return &BankHandler{
		client:          client,
		institutionRepo: institutionRepo,
		driver:          driver,
		syncDays:        syncDays,
	}
}

type LinkBankRequest struct {
	PublicToken   string `json:"public_token"`
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

// HandleCreateLinkToken creates a short-lived link token for the client-side
// link flow.
func (h *BankHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Single-tenant deployment, one logical user.
	linkToken, err := h.client.LinkTokenCreate(r.Context(), "moneymosaic-user")
	if err != nil {
		log.Printf("Error creating link token: %v", err)
		http.Error(w, "Failed to create link token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"linkToken": linkToken,
	})
}

// HandleLinkBank exchanges a public token for an access token, stores the new
// institution and kicks off its first sync in the background.
func (h *BankHandler) HandleLinkBank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LinkBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding link bank request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PublicToken == "" || req.InstitutionID == "" || req.Name == "" {
		http.Error(w, "public_token, institution_id, and name are required", http.StatusBadRequest)
		return
	}

	accessToken, itemID, err := h.client.ItemPublicTokenExchange(r.Context(), req.PublicToken)
	if err != nil {
		log.Printf("Error exchanging public token for institution %s: %v", req.InstitutionID, err)
		http.Error(w, "Failed to exchange public token", http.StatusInternalServerError)
		return
	}

	inst, err := h.institutionRepo.Create(r.Context(), institution.CreateParams{
		InstitutionID: req.InstitutionID,
		Name:          req.Name,
		AccessToken:   accessToken,
		ItemID:        itemID,
	})
	if err != nil {
		log.Printf("Error creating institution %s: %v", req.InstitutionID, err)
		http.Error(w, "Failed to save institution", http.StatusInternalServerError)
		return
	}

	log.Printf("Linked institution %d (%s), starting initial sync", inst.ID, inst.Name)

	// Initial sync runs in the background so linking returns immediately.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		since := time.Now().AddDate(0, 0, -h.syncDays)
		if _, err := h.driver.RunInstitution(ctx, inst, since); err != nil {
			log.Printf("Initial sync failed for institution %d: %v", inst.ID, err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inst)
}

// HandleListBanks lists all linked institutions. Access tokens are never
// serialized.
func (h *BankHandler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	institutions, err := h.institutionRepo.List(r.Context())
	if err != nil {
		log.Printf("Error listing institutions: %v", err)
		http.Error(w, "Failed to list institutions", http.StatusInternalServerError)
		return
	}

	if institutions == nil {
		institutions = []*institution.Institution{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(institutions)
}
