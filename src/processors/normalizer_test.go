package processors

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/models"
)

func decodeRaw(t *testing.T, payload string) []models.RawTransaction {
	t.Helper()
	var body struct {
		Transactions []models.RawTransaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &body))
	return body.Transactions
}

func TestNormalizeTransactions_SkipsMalformed(t *testing.T) {
	raw := decodeRaw(t, `{"transactions": [
		{"transaction_id": "ok-string", "account_id": "a1", "amount": {"amount": "12.50", "currency": "gbp"},
		 "credit_debit_indicator": "Credit", "status": "BOOKED", "booking_date_time": "2026-03-01T10:00:00Z",
		 "transaction_information": " Salary payment "},
		{"transaction_id": "ok-number", "account_id": "a1", "amount": {"amount": -7, "currency": "GBP"},
		 "credit_debit_indicator": "DEBIT", "status": "pending", "booking_date_time": "2026-03-02",
		 "transaction_information": ""},
		{"transaction_id": "no-amount", "account_id": "a1",
		 "credit_debit_indicator": "DEBIT", "status": "BOOKED", "booking_date_time": "2026-03-02"},
		{"transaction_id": "null-amount", "account_id": "a1", "amount": {"amount": null},
		 "credit_debit_indicator": "DEBIT", "status": "BOOKED", "booking_date_time": "2026-03-02"},
		{"transaction_id": "nan-amount", "account_id": "a1", "amount": {"amount": "twelve"},
		 "credit_debit_indicator": "DEBIT", "status": "BOOKED", "booking_date_time": "2026-03-02"},
		{"transaction_id": "bad-indicator", "account_id": "a1", "amount": {"amount": "1"},
		 "credit_debit_indicator": "SIDEWAYS", "status": "BOOKED", "booking_date_time": "2026-03-02"},
		{"transaction_id": "bad-date", "account_id": "a1", "amount": {"amount": "1"},
		 "credit_debit_indicator": "CREDIT", "status": "BOOKED", "booking_date_time": "yesterday"}
	]}`)

	bank := models.Bank{ID: "bank-1", Name: "First Bank"}
	res := NormalizeTransactions(raw, bank)

	require.Len(t, res.Transactions, 2)
	first := res.Transactions[0]
	assert.Equal(t, "ok-string", first.ID)
	assert.Equal(t, models.Credit, first.Direction)
	assert.Equal(t, "GBP", first.Amount.Currency)
	assert.Equal(t, "Salary payment", first.Description)
	assert.Equal(t, "bank-1", first.BankID)
	assert.Equal(t, "First Bank", first.BankName)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), first.BookingDateTime)
	assertDecimal(t, "12.50", first.Amount.Amount)

	second := res.Transactions[1]
	assertDecimal(t, "7", second.Amount.Amount, "negative amounts are taken by magnitude")
	assert.True(t, second.IsPending())

	require.Len(t, res.Skipped, 5)
	ids := make([]string, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		ids = append(ids, s.TransactionID)
		assert.NotEmpty(t, s.Reason)
	}
	assert.Equal(t, []string{"no-amount", "null-amount", "nan-amount", "bad-indicator", "bad-date"}, ids)
}

func TestNormalizeTransaction_Errors(t *testing.T) {
	bank := models.Bank{ID: "b"}
	base := func() models.RawTransaction {
		return models.RawTransaction{
			TransactionID:        "t",
			Amount:               &models.RawAmount{Amount: json.RawMessage(`"1.00"`), Currency: "EUR"},
			CreditDebitIndicator: "CREDIT",
			BookingDateTime:      "2026-01-01T00:00:00Z",
		}
	}

	r := base()
	r.Amount = nil
	_, err := NormalizeTransaction(r, bank)
	assert.ErrorIs(t, err, ErrMissingAmount)

	r = base()
	r.Amount.Amount = json.RawMessage(`"1,00"`)
	_, err = NormalizeTransaction(r, bank)
	assert.ErrorIs(t, err, ErrMalformedAmount)

	r = base()
	r.CreditDebitIndicator = ""
	_, err = NormalizeTransaction(r, bank)
	assert.ErrorIs(t, err, ErrUnknownDirection)

	r = base()
	r.BookingDateTime = "01/02/2026"
	_, err = NormalizeTransaction(r, bank)
	assert.ErrorIs(t, err, ErrInvalidBookingDay)

	_, err = NormalizeTransaction(base(), bank)
	assert.NoError(t, err)
}
