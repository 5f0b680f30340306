// backend/src/handlers/bank_handler.go
package handlers

import (
	"net/http"

	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/services"
	"github.com/username/ledgerview/backend/src/utils"
)

type BankHandler struct {
	bankService *services.BankService
}

func NewBankHandler(bankService *services.BankService) *BankHandler {
	return &BankHandler{bankService: bankService}
}

type transactionsResponse struct {
	BankID       string               `json:"bank_id"`
	Transactions []models.Transaction `json:"transactions"`
	SkippedCount int                  `json:"skipped_count"`
}

func (h *BankHandler) HandleGetBanks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !user.HasBankLink() {
		sendServiceError(w, r, services.ErrNoCustomer)
		return
	}

	banks, err := h.bankService.Banks(r.Context(), user.CustomerID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if banks == nil {
		banks = []models.Bank{}
	}
	utils.WriteJSON(w, http.StatusOK, banks)
}

func (h *BankHandler) HandleGetAccounts(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	accounts := snap.Accounts
	if accounts == nil {
		accounts = []models.AccountWithBalance{}
	}
	utils.WriteJSON(w, http.StatusOK, accounts)
}

func (h *BankHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	txs := snap.Transactions
	if txs == nil {
		txs = []models.Transaction{}
	}
	utils.WriteJSON(w, http.StatusOK, transactionsResponse{
		BankID:       snap.BankID,
		Transactions: txs,
		SkippedCount: len(snap.Skipped),
	})
}

// HandleRefresh drops every cached aggregator response for the user's customer.
func (h *BankHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !user.HasBankLink() {
		sendServiceError(w, r, services.ErrNoCustomer)
		return
	}
	evicted := h.bankService.Evict(user.CustomerID)
	utils.WriteJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}

func (h *BankHandler) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	bankID, ok := bankFilter(w, r)
	if !ok {
		return nil, false
	}
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.HasBankLink() {
		sendServiceError(w, r, services.ErrNoCustomer)
		return nil, false
	}
	snap, err := h.bankService.Snapshot(r.Context(), user.CustomerID, bankID)
	if err != nil {
		sendServiceError(w, r, err)
		return nil, false
	}
	return snap, true
}
