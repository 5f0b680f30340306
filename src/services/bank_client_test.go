package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	authCalls   int32
	tokenSeq    int32
	rejectFirst int32 // number of data calls answered with 401
	server      *httptest.Server
}

func newFakeAggregator(t *testing.T) *fakeAggregator {
	t.Helper()
	f := &fakeAggregator{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		atomic.AddInt32(&f.authCalls, 1)
		n := atomic.AddInt32(&f.tokenSeq, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": tokenFor(n)})
	})
	mux.HandleFunc("/accounts", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("customer_id") != "cust-1" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"unknown customer"}`))
			return
		}
		w.Write([]byte(`[{"id":"bank-1","name":"First Bank","bank_identifier":"FB"}]`))
	}))
	mux.HandleFunc("/fetch-accounts", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"account_id":"acc-1","account_type":"CURRENT","nickname":"Main","currency":"GBP","status":"ACTIVE"}]`))
	}))
	mux.HandleFunc("/balance", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":"1234.56","currency":"GBP","type":"CLOSING"}`))
	}))
	mux.HandleFunc("/transactions", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transactions":[{"transaction_id":"t1","account_id":"acc-1","amount":{"amount":"10.00","currency":"GBP"},"credit_debit_indicator":"CREDIT","status":"BOOKED","booking_date_time":"2026-03-01T10:00:00Z","transaction_information":"Salary"}]}`))
	}))
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func tokenFor(n int32) string {
	return "token-" + string(rune('0'+n))
}

func (f *fakeAggregator) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&f.rejectFirst, -1) >= 0 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		want := "Bearer " + tokenFor(atomic.LoadInt32(&f.tokenSeq))
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (f *fakeAggregator) client(secret string) *BankClient {
	return NewBankClient(BankClientConfig{BaseURL: f.server.URL + "/", ClientID: "client", ClientSecret: secret})
}

func TestBankClient_FetchesAllEndpoints(t *testing.T) {
	f := newFakeAggregator(t)
	c := f.client("secret")
	ctx := context.Background()

	banks, err := c.ListBanks(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "FB", banks[0].BankIdentifier)

	accounts, err := c.ListAccounts(ctx, "bank-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-1", accounts[0].ID)

	balance, err := c.GetBalance(ctx, "acc-1", "bank-1")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", balance.Amount.StringFixed(2))

	txs, err := c.ListTransactions(ctx, "acc-1", "bank-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "t1", txs[0].TransactionID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.authCalls), "token is reused across calls")
}

func TestBankClient_RefreshesTokenOnceOn401(t *testing.T) {
	f := newFakeAggregator(t)
	f.rejectFirst = 1
	c := f.client("secret")

	_, err := c.ListBanks(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.authCalls))
}

func TestBankClient_GivesUpAfterSecond401(t *testing.T) {
	f := newFakeAggregator(t)
	f.rejectFirst = 2
	c := f.client("secret")

	_, err := c.ListBanks(context.Background(), "cust-1")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestBankClient_UpstreamErrors(t *testing.T) {
	f := newFakeAggregator(t)

	_, err := f.client("secret").ListBanks(context.Background(), "nobody")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "/accounts", upstream.Endpoint)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "unknown customer")

	_, err = f.client("wrong").ListBanks(context.Background(), "cust-1")
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "/auth", upstream.Endpoint)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
}

func TestBankClient_TransportFailure(t *testing.T) {
	c := NewBankClient(BankClientConfig{BaseURL: "http://127.0.0.1:1", ClientID: "client", ClientSecret: "secret"})
	_, err := c.ListBanks(context.Background(), "cust-1")
	assert.ErrorIs(t, err, ErrUpstream)
}
