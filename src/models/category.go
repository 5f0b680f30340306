package models

import "github.com/shopspring/decimal"

// Category is the classification tag assigned to every transaction.
type Category string

const (
	Depreciation       Category = "depreciation"
	Amortization       Category = "amortization"
	InterestExpense    Category = "interestExpense"
	AccountsReceivable Category = "accountsReceivable"
	Inventory          Category = "inventory"
	AccountsPayable    Category = "accountsPayable"
	VATPayable         Category = "vatPayable"
	OperatingIncome    Category = "operatingIncome"
	OperatingExpense   Category = "operatingExpense"
	InvestingIncome    Category = "investingIncome"
	InvestingExpense   Category = "investingExpense"
	FinancingIncome    Category = "financingIncome"
	FinancingExpense   Category = "financingExpense"
)

// AllCategories lists the taxonomy in classification priority order.
var AllCategories = []Category{
	Depreciation,
	Amortization,
	InterestExpense,
	AccountsReceivable,
	Inventory,
	AccountsPayable,
	VATPayable,
	OperatingIncome,
	OperatingExpense,
	InvestingIncome,
	InvestingExpense,
	FinancingIncome,
	FinancingExpense,
}

// IsWorkingCapital reports whether the category is a balance-sheet working capital item.
func (c Category) IsWorkingCapital() bool {
	switch c {
	case AccountsReceivable, Inventory, AccountsPayable, VATPayable:
		return true
	}
	return false
}

// CategoryTotals maps each category to its accumulated signed contribution.
// It is always derived from a transaction list and never persisted.
type CategoryTotals map[Category]decimal.Decimal

// NewCategoryTotals returns totals with every category present and set to zero.
func NewCategoryTotals() CategoryTotals {
	totals := make(CategoryTotals, len(AllCategories))
	for _, c := range AllCategories {
		totals[c] = decimal.Zero
	}
	return totals
}

// Add accumulates an amount into a category.
func (ct CategoryTotals) Add(c Category, amount decimal.Decimal) {
	ct[c] = ct.Get(c).Add(amount)
}

// Get returns the total for a category, zero when absent.
func (ct CategoryTotals) Get(c Category) decimal.Decimal {
	if v, ok := ct[c]; ok {
		return v
	}
	return decimal.Zero
}

// PeriodTotals is one zero-filled bucket produced by the period aggregator.
type PeriodTotals struct {
	PeriodKey string         `json:"period_key"`
	Totals    CategoryTotals `json:"totals"`
}
