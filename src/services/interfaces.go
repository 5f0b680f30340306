// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/processors"
)

// Common service errors
var (
	ErrUpstream       = errors.New("bank aggregator request failed")
	ErrNoCustomer     = errors.New("no bank customer linked to this account")
	ErrStepOutOfOrder = errors.New("onboarding step submitted out of order")
	ErrUnknownStep    = errors.New("unknown onboarding step")
	ErrUnknownReport  = errors.New("unknown report kind")
	ErrUnknownBank    = errors.New("unknown bank")
)

// BankAPI is the open-banking aggregator as seen by the application.
type BankAPI interface {
	ListBanks(ctx context.Context, customerID string) ([]models.Bank, error)
	ListAccounts(ctx context.Context, entityID string) ([]models.Account, error)
	GetBalance(ctx context.Context, accountID, entityID string) (models.Balance, error)
	ListTransactions(ctx context.Context, accountID, entityID string) ([]models.RawTransaction, error)
}

// Snapshot is everything fetched for one customer, filtered by bank.
type Snapshot struct {
	CustomerID   string                          `json:"-"`
	BankID       string                          `json:"bank_id"`
	Banks        []models.Bank                   `json:"banks"`
	Accounts     []models.AccountWithBalance     `json:"accounts"`
	Transactions []models.Transaction            `json:"transactions"`
	Skipped      []processors.SkippedTransaction `json:"skipped,omitempty"`
}

// BankDataSource provides memoized bank data snapshots.
type BankDataSource interface {
	Snapshot(ctx context.Context, customerID, bankID string) (*Snapshot, error)
	Evict(customerID string) int
}

// ReportArchiver stores a copy of every exported PDF.
type ReportArchiver interface {
	Archive(ctx context.Context, userID int64, kind string, data []byte, at time.Time) (string, error)
}
