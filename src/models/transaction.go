// backend/src/models/transaction.go
package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Direction says whether a transaction moved money into (CREDIT) or out of (DEBIT) an account.
type Direction string

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

// Status values reported by the aggregator. Only PENDING changes how a transaction is treated;
// anything else is considered booked.
const (
	StatusPending   = "PENDING"
	StatusBooked    = "BOOKED"
	StatusCompleted = "COMPLETED"
)

// AllBanks is the bank filter value meaning "no filter".
const AllBanks = "all"

// Money is a non-negative magnitude with its ISO currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Transaction is a normalized bank transaction. It is immutable once built by the normalizer.
type Transaction struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	Amount          Money     `json:"amount"`
	Direction       Direction `json:"direction"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	BookingDateTime time.Time `json:"booking_date_time"`
	BankID          string    `json:"bank_id"`
	BankName        string    `json:"bank_name"`
}

// IsPending reports whether the transaction is an accrual rather than a settled movement.
func (t Transaction) IsPending() bool {
	return t.Status == StatusPending
}

// Signed returns +amount for credits and -amount for debits.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == Credit {
		return t.Amount.Amount
	}
	return t.Amount.Amount.Neg()
}

// Bank is a connection to one institution, as returned by the aggregator.
type Bank struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BankIdentifier string `json:"bank_identifier"`
}

// Account is a single account held at a connected bank.
type Account struct {
	ID       string `json:"account_id"`
	Type     string `json:"account_type"`
	Nickname string `json:"nickname"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	BankID   string `json:"bank_id"`
	BankName string `json:"bank_name"`
}

// Balance is the current balance of an account.
type Balance struct {
	Amount   decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Type     string          `json:"type"`
}

// AccountWithBalance pairs an account with its latest balance for dashboards.
type AccountWithBalance struct {
	Account
	Balance Balance `json:"balance"`
}

// MatchesBank reports whether a bank id passes the given filter ("" or "all" match everything).
func MatchesBank(filter, bankID string) bool {
	return filter == "" || filter == AllBanks || filter == bankID
}

// RawAmount is the amount object of an aggregator transaction. The value is
// kept raw so one malformed record cannot fail the whole response.
type RawAmount struct {
	Amount   json.RawMessage `json:"amount"`
	Currency string          `json:"currency"`
}

// RawTransaction is a transaction exactly as the aggregator returns it.
type RawTransaction struct {
	TransactionID          string     `json:"transaction_id"`
	AccountID              string     `json:"account_id"`
	Amount                 *RawAmount `json:"amount"`
	CreditDebitIndicator   string     `json:"credit_debit_indicator"`
	Status                 string     `json:"status"`
	BookingDateTime        string     `json:"booking_date_time"`
	TransactionInformation string     `json:"transaction_information"`
}
