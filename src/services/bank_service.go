// backend/src/services/bank_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/processors"
)

// BankService memoizes aggregator responses per customer. Entries never
// expire on their own; Evict drops everything cached for a customer.
type BankService struct {
	api   BankAPI
	cache *cache.Cache
}

func NewBankService(api BankAPI, c *cache.Cache) *BankService {
	if c == nil {
		c = cache.New(cache.NoExpiration, 0)
	}
	return &BankService{api: api, cache: c}
}

func customerPrefix(customerID string) string {
	return "bank|" + customerID + "|"
}

func cacheKey(customerID string, parts ...string) string {
	return customerPrefix(customerID) + strings.Join(parts, "|")
}

// cached returns the value stored under key or loads and stores it. Errors are not cached.
func cached[T any](s *BankService, key string, load func() (T, error)) (T, error) {
	if v, found := s.cache.Get(key); found {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(key, v, cache.NoExpiration)
	return v, nil
}

// Banks lists the banks connected for a customer.
func (s *BankService) Banks(ctx context.Context, customerID string) ([]models.Bank, error) {
	if customerID == "" {
		return nil, ErrNoCustomer
	}
	return cached(s, cacheKey(customerID, "banks"), func() ([]models.Bank, error) {
		banks, err := s.api.ListBanks(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("listing banks: %w", err)
		}
		return banks, nil
	})
}

func (s *BankService) accounts(ctx context.Context, customerID string, bank models.Bank) ([]models.Account, error) {
	return cached(s, cacheKey(customerID, "accounts", bank.ID), func() ([]models.Account, error) {
		accounts, err := s.api.ListAccounts(ctx, bank.ID)
		if err != nil {
			return nil, fmt.Errorf("listing accounts of bank %s: %w", bank.ID, err)
		}
		for i := range accounts {
			accounts[i].BankID = bank.ID
			accounts[i].BankName = bank.Name
		}
		return accounts, nil
	})
}

func (s *BankService) balance(ctx context.Context, customerID string, bank models.Bank, accountID string) (models.Balance, error) {
	return cached(s, cacheKey(customerID, "balance", bank.ID, accountID), func() (models.Balance, error) {
		balance, err := s.api.GetBalance(ctx, accountID, bank.ID)
		if err != nil {
			return models.Balance{}, fmt.Errorf("fetching balance of account %s: %w", accountID, err)
		}
		return balance, nil
	})
}

func (s *BankService) transactions(ctx context.Context, customerID string, bank models.Bank, accountID string) (processors.NormalizeResult, error) {
	return cached(s, cacheKey(customerID, "transactions", bank.ID, accountID), func() (processors.NormalizeResult, error) {
		raw, err := s.api.ListTransactions(ctx, accountID, bank.ID)
		if err != nil {
			return processors.NormalizeResult{}, fmt.Errorf("fetching transactions of account %s: %w", accountID, err)
		}
		return processors.NormalizeTransactions(raw, bank), nil
	})
}

// Snapshot fetches banks, accounts with balances and transactions for a
// customer, one bank and account at a time. bankID "" or "all" selects every
// bank. Transactions are returned newest first.
func (s *BankService) Snapshot(ctx context.Context, customerID, bankID string) (*Snapshot, error) {
	banks, err := s.Banks(ctx, customerID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{CustomerID: customerID, BankID: bankID, Banks: banks}
	if snap.BankID == "" {
		snap.BankID = models.AllBanks
	}
	if snap.BankID != models.AllBanks && !hasBank(banks, bankID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBank, bankID)
	}

	for _, bank := range banks {
		if !models.MatchesBank(bankID, bank.ID) {
			continue
		}
		accounts, err := s.accounts(ctx, customerID, bank)
		if err != nil {
			return nil, err
		}
		for _, acc := range accounts {
			balance, err := s.balance(ctx, customerID, bank, acc.ID)
			if err != nil {
				return nil, err
			}
			snap.Accounts = append(snap.Accounts, models.AccountWithBalance{Account: acc, Balance: balance})

			res, err := s.transactions(ctx, customerID, bank, acc.ID)
			if err != nil {
				return nil, err
			}
			snap.Transactions = append(snap.Transactions, res.Transactions...)
			snap.Skipped = append(snap.Skipped, res.Skipped...)
		}
	}

	sort.SliceStable(snap.Transactions, func(i, j int) bool {
		return snap.Transactions[i].BookingDateTime.After(snap.Transactions[j].BookingDateTime)
	})

	logger.FromContext(ctx).Debug("Bank snapshot assembled",
		"bankID", snap.BankID, "banks", len(banks), "accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions), "skipped", len(snap.Skipped))
	return snap, nil
}

// Evict removes every cached response of the customer and returns how many entries were dropped.
func (s *BankService) Evict(customerID string) int {
	prefix := customerPrefix(customerID)
	evicted := 0
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
			evicted++
		}
	}
	logger.L.Info("Evicted bank data cache", "customerID", customerID, "entries", evicted)
	return evicted
}

func hasBank(banks []models.Bank, bankID string) bool {
	for _, b := range banks {
		if b.ID == bankID {
			return true
		}
	}
	return false
}
