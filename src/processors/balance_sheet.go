// backend/src/processors/balance_sheet.go
package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/models"
)

// StatementInput is everything a statement builder needs. Transactions and
// accounts are filtered by BankID inside the builders.
type StatementInput struct {
	Transactions []models.Transaction
	Accounts     []models.AccountWithBalance
	BankID       string
	Now          time.Time
}

func (in StatementInput) transactions() []models.Transaction {
	var out []models.Transaction
	for _, tx := range in.Transactions {
		if models.MatchesBank(in.BankID, tx.BankID) {
			out = append(out, tx)
		}
	}
	return out
}

// Currencies lists the distinct currencies of the selected accounts and
// transactions, sorted. Amounts are summed without conversion, so more than
// one entry means the totals mix currencies.
func (in StatementInput) Currencies() []string {
	seen := map[string]struct{}{}
	for _, acc := range in.Accounts {
		if models.MatchesBank(in.BankID, acc.BankID) && acc.Balance.Currency != "" {
			seen[acc.Balance.Currency] = struct{}{}
		}
	}
	for _, tx := range in.transactions() {
		if tx.Amount.Currency != "" {
			seen[tx.Amount.Currency] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (in StatementInput) bankLabel() string {
	if in.BankID == "" {
		return models.AllBanks
	}
	return in.BankID
}

// StatementBuilder turns transactions into the derived statements.
type StatementBuilder struct {
	classifier *Classifier
	aggregator *Aggregator
	ratios     AllocationRatios
}

// NewStatementBuilder wires the builder with its classifier, aggregator and ratios.
func NewStatementBuilder(classifier *Classifier, aggregator *Aggregator, ratios AllocationRatios) *StatementBuilder {
	return &StatementBuilder{classifier: classifier, aggregator: aggregator, ratios: ratios}
}

// Ratios returns the allocation ratios in use.
func (b *StatementBuilder) Ratios() AllocationRatios {
	return b.ratios
}

// recognized sums booked (non-pending) credits and debits.
func recognized(txs []models.Transaction) (credits, debits decimal.Decimal) {
	credits, debits = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.IsPending() {
			continue
		}
		if tx.Direction == models.Credit {
			credits = credits.Add(tx.Amount.Amount)
		} else {
			debits = debits.Add(tx.Amount.Amount)
		}
	}
	return credits, debits
}

// BalanceSheet builds the heuristic balance sheet. It does not force
// assets to equal liabilities plus equity.
func (b *StatementBuilder) BalanceSheet(in StatementInput) models.BalanceSheet {
	txs := in.transactions()
	r := b.ratios

	cash := decimal.Zero
	for _, acc := range in.Accounts {
		if models.MatchesBank(in.BankID, acc.BankID) {
			cash = cash.Add(acc.Balance.Amount)
		}
	}

	receivable, payable, retained := decimal.Zero, decimal.Zero, decimal.Zero
	for _, tx := range txs {
		retained = retained.Add(tx.Signed())
		if !tx.IsPending() {
			continue
		}
		if tx.Direction == models.Credit {
			receivable = receivable.Add(tx.Amount.Amount)
		} else {
			payable = payable.Add(tx.Amount.Amount)
		}
	}

	credits, debits := recognized(txs)
	vatOnSales := credits.Mul(r.VATRate)
	vatOnPurchases := debits.Mul(r.VATRate)
	vatReceivable := decimal.Max(decimal.Zero, vatOnPurchases.Sub(vatOnSales))
	vatPayable := decimal.Max(decimal.Zero, vatOnSales.Sub(vatOnPurchases))

	bs := models.BalanceSheet{
		AsOf:               in.Now,
		BankID:             in.bankLabel(),
		Cash:               cash,
		AccountsReceivable: receivable,
		Inventory:          cash.Add(receivable).Mul(r.Inventory),
		VATReceivable:      vatReceivable,
		AccountsPayable:    payable,
		VATPayable:         vatPayable,
		RetainedEarnings:   retained,
	}
	bs.CurrentAssets = bs.Cash.Add(bs.AccountsReceivable).Add(bs.Inventory).Add(bs.VATReceivable)
	bs.PropertyPlantEquipment, bs.RightOfUse, bs.Intangibles, bs.NonCurrentAssets = r.NonCurrentAssets(bs.CurrentAssets)
	bs.TotalAssets = bs.CurrentAssets.Add(bs.NonCurrentAssets)

	bs.OwnersCapital = bs.TotalAssets.Mul(r.OwnersCapital)
	bs.TotalEquity = bs.OwnersCapital.Add(bs.RetainedEarnings)

	bs.LongTermLoans = bs.TotalAssets.Mul(r.LongTermLoans)
	bs.NonCurrentLease = bs.TotalAssets.Mul(r.NonCurrentLease)
	bs.NonCurrentLiabilities = bs.LongTermLoans.Add(bs.NonCurrentLease)
	bs.ShortTermLoans = bs.TotalAssets.Mul(r.ShortTermLoans)
	bs.CurrentLease = bs.TotalAssets.Mul(r.CurrentLease)
	bs.CurrentLiabilities = bs.ShortTermLoans.Add(bs.CurrentLease).Add(bs.AccountsPayable).Add(bs.VATPayable)
	bs.TotalLiabilities = bs.NonCurrentLiabilities.Add(bs.CurrentLiabilities)

	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.Imbalance = bs.TotalAssets.Sub(bs.TotalLiabilitiesAndEquity)

	bs.Lines = balanceSheetLines(bs)
	return bs
}

func balanceSheetLines(bs models.BalanceSheet) []models.LineItem {
	return []models.LineItem{
		{Description: "Assets", Amount: decimal.Zero},
		{Description: "Cash & Cash Equivalents", Amount: bs.Cash, Indent: 1},
		{Description: "Accounts Receivable", Amount: bs.AccountsReceivable, Indent: 1},
		{Description: "Inventory", Amount: bs.Inventory, Indent: 1},
		{Description: "VAT Receivable", Amount: bs.VATReceivable, Indent: 1},
		{Description: "Total Current Assets", Amount: bs.CurrentAssets, IsSubTotal: true},
		{Description: "Property, Plant & Equipment", Amount: bs.PropertyPlantEquipment, Indent: 1},
		{Description: "Right-of-Use Assets", Amount: bs.RightOfUse, Indent: 1},
		{Description: "Intangible Assets", Amount: bs.Intangibles, Indent: 1},
		{Description: "Total Non-Current Assets", Amount: bs.NonCurrentAssets, IsSubTotal: true},
		{Description: "Total Assets", Amount: bs.TotalAssets, IsTotal: true},
		{Description: "Equity", Amount: decimal.Zero},
		{Description: "Owner's Capital", Amount: bs.OwnersCapital, Indent: 1},
		{Description: "Retained Earnings", Amount: bs.RetainedEarnings, Indent: 1},
		{Description: "Total Equity", Amount: bs.TotalEquity, IsSubTotal: true},
		{Description: "Liabilities", Amount: decimal.Zero},
		{Description: "Long-Term Loans", Amount: bs.LongTermLoans, Indent: 1},
		{Description: "Lease Liabilities (Non-Current)", Amount: bs.NonCurrentLease, Indent: 1},
		{Description: "Total Non-Current Liabilities", Amount: bs.NonCurrentLiabilities, IsSubTotal: true},
		{Description: "Short-Term Loans", Amount: bs.ShortTermLoans, Indent: 1},
		{Description: "Lease Liabilities (Current)", Amount: bs.CurrentLease, Indent: 1},
		{Description: "Accounts Payable", Amount: bs.AccountsPayable, Indent: 1},
		{Description: "VAT Payable", Amount: bs.VATPayable, Indent: 1},
		{Description: "Total Current Liabilities", Amount: bs.CurrentLiabilities, IsSubTotal: true},
		{Description: "Total Liabilities", Amount: bs.TotalLiabilities, IsSubTotal: true},
		{Description: "Total Liabilities & Equity", Amount: bs.TotalLiabilitiesAndEquity, IsTotal: true},
	}
}
