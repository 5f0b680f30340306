// backend/src/processors/normalizer.go
package processors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
)

// Reasons a raw transaction is rejected by the normalizer.
var (
	ErrMissingAmount     = errors.New("missing amount")
	ErrMalformedAmount   = errors.New("malformed amount")
	ErrUnknownDirection  = errors.New("unknown credit/debit indicator")
	ErrInvalidBookingDay = errors.New("invalid booking date")
)

var bookingLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// SkippedTransaction records a raw transaction dropped by the normalizer.
type SkippedTransaction struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Reason        string `json:"reason"`
}

// NormalizeResult is the outcome of normalizing one batch.
type NormalizeResult struct {
	Transactions []models.Transaction
	Skipped      []SkippedTransaction
}

// NormalizeTransactions converts raw aggregator transactions of one bank.
// Malformed records are skipped and logged, never fatal.
func NormalizeTransactions(raw []models.RawTransaction, bank models.Bank) NormalizeResult {
	var result NormalizeResult
	for _, r := range raw {
		tx, err := NormalizeTransaction(r, bank)
		if err != nil {
			logger.L.Warn("Skipping malformed bank transaction",
				"transactionID", r.TransactionID, "accountID", r.AccountID, "bankID", bank.ID, "error", err)
			result.Skipped = append(result.Skipped, SkippedTransaction{
				TransactionID: r.TransactionID,
				AccountID:     r.AccountID,
				Reason:        err.Error(),
			})
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result
}

// NormalizeTransaction converts a single raw transaction. The amount is taken
// by magnitude since the direction is carried by the indicator.
func NormalizeTransaction(r models.RawTransaction, bank models.Bank) (models.Transaction, error) {
	amount, err := parseRawAmount(r.Amount)
	if err != nil {
		return models.Transaction{}, err
	}

	var dir models.Direction
	switch strings.ToUpper(strings.TrimSpace(r.CreditDebitIndicator)) {
	case string(models.Credit):
		dir = models.Credit
	case string(models.Debit):
		dir = models.Debit
	default:
		return models.Transaction{}, fmt.Errorf("%w: %q", ErrUnknownDirection, r.CreditDebitIndicator)
	}

	booked, err := parseBookingTime(r.BookingDateTime)
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		ID:              r.TransactionID,
		AccountID:       r.AccountID,
		Amount:          models.Money{Amount: amount, Currency: strings.ToUpper(r.Amount.Currency)},
		Direction:       dir,
		Description:     strings.TrimSpace(r.TransactionInformation),
		Status:          strings.ToUpper(strings.TrimSpace(r.Status)),
		BookingDateTime: booked,
		BankID:          bank.ID,
		BankName:        bank.Name,
	}, nil
}

func parseRawAmount(a *models.RawAmount) (decimal.Decimal, error) {
	if a == nil || len(a.Amount) == 0 || string(a.Amount) == "null" {
		return decimal.Zero, ErrMissingAmount
	}
	s := strings.Trim(strings.TrimSpace(string(a.Amount)), `"`)
	if s == "" {
		return decimal.Zero, ErrMissingAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	return d.Abs(), nil
}

func parseBookingTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range bookingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBookingDay, s)
}
