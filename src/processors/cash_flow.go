// backend/src/processors/cash_flow.go
package processors

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/models"
)

// CashFlow builds the direct-method sections for the current and prior
// calendar years and the indirect reconciliation for both.
func (b *StatementBuilder) CashFlow(in StatementInput) models.CashFlow {
	txs := in.transactions()
	now := in.Now.UTC()
	year := now.Year()

	currentStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	priorStart := currentStart.AddDate(-1, 0, 0)
	nextStart := currentStart.AddDate(1, 0, 0)

	currentTxs := bookedBetween(txs, currentStart, nextStart)
	priorTxs := bookedBetween(txs, priorStart, currentStart)
	current := b.classifier.Totals(currentTxs)
	prior := b.classifier.Totals(priorTxs)

	cf := models.CashFlow{
		AsOf:        in.Now,
		BankID:      in.bankLabel(),
		CurrentYear: year,
		PriorYear:   year - 1,
		Operating:   section("Operating Activities", current, prior, models.OperatingIncome, models.OperatingExpense),
		Investing:   section("Investing Activities", current, prior, models.InvestingIncome, models.InvestingExpense),
		Financing:   section("Financing Activities", current, prior, models.FinancingIncome, models.FinancingExpense),
	}
	cf.NetChange = models.YearPair{
		CurrentYear: cf.Operating.Subtotal.CurrentYear.Add(cf.Investing.Subtotal.CurrentYear).Add(cf.Financing.Subtotal.CurrentYear),
		PriorYear:   cf.Operating.Subtotal.PriorYear.Add(cf.Investing.Subtotal.PriorYear).Add(cf.Financing.Subtotal.PriorYear),
	}
	cf.NetChangeDelta = Delta(cf.NetChange.CurrentYear, cf.NetChange.PriorYear)

	cf.Indirect = indirect(currentTxs, current)
	cf.IndirectPrior = indirect(priorTxs, prior)
	cf.Lines = cashFlowLines(cf)
	return cf
}

func section(name string, current, prior models.CategoryTotals, income, expense models.Category) models.CashFlowSection {
	s := models.CashFlowSection{
		Name:     name,
		Inflows:  models.YearPair{CurrentYear: current.Get(income), PriorYear: prior.Get(income)},
		Outflows: models.YearPair{CurrentYear: current.Get(expense), PriorYear: prior.Get(expense)},
	}
	s.Subtotal = models.YearPair{
		CurrentYear: s.Inflows.CurrentYear.Sub(s.Outflows.CurrentYear),
		PriorYear:   s.Inflows.PriorYear.Sub(s.Outflows.PriorYear),
	}
	s.Delta = Delta(s.Subtotal.CurrentYear, s.Subtotal.PriorYear)
	return s
}

// indirect adjusts net profit by the non-cash items and the working capital
// movements taken from the same category totals.
func indirect(txs []models.Transaction, totals models.CategoryTotals) models.IndirectCashFlow {
	credits, debits := recognized(txs)
	ic := models.IndirectCashFlow{
		NetProfit:           credits.Sub(debits),
		Depreciation:        totals.Get(models.Depreciation),
		Amortization:        totals.Get(models.Amortization),
		InterestExpense:     totals.Get(models.InterestExpense),
		ChangeInReceivables: totals.Get(models.AccountsReceivable).Neg(),
		ChangeInInventory:   totals.Get(models.Inventory).Neg(),
		ChangeInPayables:    totals.Get(models.AccountsPayable),
		ChangeInVATPayable:  totals.Get(models.VATPayable),
	}
	ic.NetCashFromOperations = decimal.Sum(
		ic.NetProfit,
		ic.Depreciation,
		ic.Amortization,
		ic.InterestExpense,
		ic.ChangeInReceivables,
		ic.ChangeInInventory,
		ic.ChangeInPayables,
		ic.ChangeInVATPayable,
	)
	return ic
}

func cashFlowLines(cf models.CashFlow) []models.LineItem {
	var lines []models.LineItem
	for _, s := range []models.CashFlowSection{cf.Operating, cf.Investing, cf.Financing} {
		lines = append(lines,
			models.LineItem{Description: s.Name, Amount: decimal.Zero},
			models.LineItem{Description: "Cash Received", Amount: s.Inflows.CurrentYear, Indent: 1},
			models.LineItem{Description: "Cash Paid", Amount: s.Outflows.CurrentYear.Neg(), Indent: 1},
			models.LineItem{Description: "Net Cash from " + s.Name, Amount: s.Subtotal.CurrentYear, IsSubTotal: true},
		)
	}
	lines = append(lines, models.LineItem{Description: "Net Change in Cash", Amount: cf.NetChange.CurrentYear, IsTotal: true})

	ic := cf.Indirect
	lines = append(lines,
		models.LineItem{Description: "Reconciliation (Indirect Method)", Amount: decimal.Zero},
		models.LineItem{Description: "Net Profit", Amount: ic.NetProfit, Indent: 1},
		models.LineItem{Description: "Depreciation", Amount: ic.Depreciation, Indent: 1},
		models.LineItem{Description: "Amortization", Amount: ic.Amortization, Indent: 1},
		models.LineItem{Description: "Interest Expense", Amount: ic.InterestExpense, Indent: 1},
		models.LineItem{Description: "Change in Accounts Receivable", Amount: ic.ChangeInReceivables, Indent: 1},
		models.LineItem{Description: "Change in Inventory", Amount: ic.ChangeInInventory, Indent: 1},
		models.LineItem{Description: "Change in Accounts Payable", Amount: ic.ChangeInPayables, Indent: 1},
		models.LineItem{Description: "Change in VAT Payable", Amount: ic.ChangeInVATPayable, Indent: 1},
		models.LineItem{Description: "Net Cash from Operations", Amount: ic.NetCashFromOperations, IsTotal: true},
	)
	return lines
}
