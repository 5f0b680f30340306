package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a presentation row of a statement.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Indent      int             `json:"indent,omitempty"`
	IsSubTotal  bool            `json:"is_sub_total,omitempty"`
	IsTotal     bool            `json:"is_total,omitempty"`
}

// BalanceSheet is the heuristic balance sheet. Total assets need not equal
// total liabilities plus equity; Imbalance records the difference.
type BalanceSheet struct {
	AsOf   time.Time `json:"as_of"`
	BankID string    `json:"bank_id"`

	Cash               decimal.Decimal `json:"cash"`
	AccountsReceivable decimal.Decimal `json:"accounts_receivable"`
	Inventory          decimal.Decimal `json:"inventory"`
	VATReceivable      decimal.Decimal `json:"vat_receivable"`
	CurrentAssets      decimal.Decimal `json:"current_assets"`

	PropertyPlantEquipment decimal.Decimal `json:"property_plant_equipment"`
	RightOfUse             decimal.Decimal `json:"right_of_use"`
	Intangibles            decimal.Decimal `json:"intangibles"`
	NonCurrentAssets       decimal.Decimal `json:"non_current_assets"`
	TotalAssets            decimal.Decimal `json:"total_assets"`

	OwnersCapital    decimal.Decimal `json:"owners_capital"`
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	TotalEquity      decimal.Decimal `json:"total_equity"`

	LongTermLoans         decimal.Decimal `json:"long_term_loans"`
	NonCurrentLease       decimal.Decimal `json:"non_current_lease"`
	NonCurrentLiabilities decimal.Decimal `json:"non_current_liabilities"`
	ShortTermLoans        decimal.Decimal `json:"short_term_loans"`
	CurrentLease          decimal.Decimal `json:"current_lease"`
	AccountsPayable       decimal.Decimal `json:"accounts_payable"`
	VATPayable            decimal.Decimal `json:"vat_payable"`
	CurrentLiabilities    decimal.Decimal `json:"current_liabilities"`
	TotalLiabilities      decimal.Decimal `json:"total_liabilities"`

	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	Imbalance                 decimal.Decimal `json:"imbalance"`

	Lines []LineItem `json:"lines"`
}

// MonthlyResult is one point of the profit & loss trend.
type MonthlyResult struct {
	PeriodKey string          `json:"period_key"`
	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	NetProfit decimal.Decimal `json:"net_profit"`
	Growth    decimal.Decimal `json:"growth"`
}

// ProfitAndLoss summarizes recognized revenue and expenses.
type ProfitAndLoss struct {
	AsOf   time.Time `json:"as_of"`
	BankID string    `json:"bank_id"`

	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	NetProfit decimal.Decimal `json:"net_profit"`
	NetMargin decimal.Decimal `json:"net_margin"`

	RevenueThisMonth        decimal.Decimal `json:"revenue_this_month"`
	ExpensesThisMonth       decimal.Decimal `json:"expenses_this_month"`
	RevenueThisMonthPercent decimal.Decimal `json:"revenue_this_month_percent"`
	ExpenseThisMonthPercent decimal.Decimal `json:"expense_this_month_percent"`

	Trend []MonthlyResult `json:"trend"`
	Lines []LineItem      `json:"lines"`
}

// YearPair holds a figure for the current and the prior calendar year.
type YearPair struct {
	CurrentYear decimal.Decimal `json:"current_year"`
	PriorYear   decimal.Decimal `json:"prior_year"`
}

// CashFlowSection is one section (operating, investing, financing) of the direct method.
type CashFlowSection struct {
	Name     string          `json:"name"`
	Inflows  YearPair        `json:"inflows"`
	Outflows YearPair        `json:"outflows"`
	Subtotal YearPair        `json:"subtotal"`
	Delta    decimal.Decimal `json:"delta"`
}

// IndirectCashFlow reconciles net profit to operating cash flow for one year.
type IndirectCashFlow struct {
	NetProfit             decimal.Decimal `json:"net_profit"`
	Depreciation          decimal.Decimal `json:"depreciation"`
	Amortization          decimal.Decimal `json:"amortization"`
	InterestExpense       decimal.Decimal `json:"interest_expense"`
	ChangeInReceivables   decimal.Decimal `json:"change_in_receivables"`
	ChangeInInventory     decimal.Decimal `json:"change_in_inventory"`
	ChangeInPayables      decimal.Decimal `json:"change_in_payables"`
	ChangeInVATPayable    decimal.Decimal `json:"change_in_vat_payable"`
	NetCashFromOperations decimal.Decimal `json:"net_cash_from_operations"`
}

// CashFlow holds both the direct sections and the indirect reconciliation.
type CashFlow struct {
	AsOf        time.Time `json:"as_of"`
	BankID      string    `json:"bank_id"`
	CurrentYear int       `json:"current_year"`
	PriorYear   int       `json:"prior_year"`

	Operating      CashFlowSection `json:"operating"`
	Investing      CashFlowSection `json:"investing"`
	Financing      CashFlowSection `json:"financing"`
	NetChange      YearPair        `json:"net_change"`
	NetChangeDelta decimal.Decimal `json:"net_change_delta"`

	Indirect      IndirectCashFlow `json:"indirect"`
	IndirectPrior IndirectCashFlow `json:"indirect_prior"`

	Lines []LineItem `json:"lines"`
}

// PeriodSeries is the trailing per-period category breakdown used by charts.
type PeriodSeries struct {
	Granularity string         `json:"granularity"`
	BankID      string         `json:"bank_id"`
	Periods     []PeriodTotals `json:"periods"`
}
