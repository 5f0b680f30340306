// backend/src/processors/profit_loss.go
package processors

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/models"
)

var twelve = decimal.NewFromInt(12)

// ProfitAndLoss builds the profit & loss statement from recognized (booked) transactions.
func (b *StatementBuilder) ProfitAndLoss(in StatementInput) models.ProfitAndLoss {
	txs := in.transactions()
	now := in.Now.UTC()

	revenue, expenses := recognized(txs)
	netProfit := revenue.Sub(expenses)
	margin := decimal.Zero
	if !revenue.IsZero() {
		margin = Percent(netProfit, revenue)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	nextYear := yearStart.AddDate(1, 0, 0)

	mtdRevenue, mtdExpenses := recognized(bookedBetween(txs, monthStart, nextMonth))
	ytdRevenue, ytdExpenses := recognized(bookedBetween(txs, yearStart, nextYear))

	pl := models.ProfitAndLoss{
		AsOf:                    in.Now,
		BankID:                  in.bankLabel(),
		Revenue:                 revenue,
		Expenses:                expenses,
		NetProfit:               netProfit,
		NetMargin:               margin,
		RevenueThisMonth:        mtdRevenue,
		ExpensesThisMonth:       mtdExpenses,
		RevenueThisMonthPercent: monthProgress(mtdRevenue, ytdRevenue),
		ExpenseThisMonthPercent: monthProgress(mtdExpenses, ytdExpenses),
		Trend:                   b.monthlyTrend(txs, now),
	}
	pl.Lines = []models.LineItem{
		{Description: "Revenue", Amount: pl.Revenue},
		{Description: "Expenses", Amount: pl.Expenses},
		{Description: "Net Profit", Amount: pl.NetProfit, IsTotal: true},
		{Description: "Revenue This Month", Amount: pl.RevenueThisMonth, Indent: 1},
		{Description: "Expenses This Month", Amount: pl.ExpensesThisMonth, Indent: 1},
	}
	return pl
}

// monthProgress is month-to-date against an average month of the year, capped at 100%.
func monthProgress(monthToDate, yearTotal decimal.Decimal) decimal.Decimal {
	pct := Percent(monthToDate, yearTotal.Div(twelve))
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

func (b *StatementBuilder) monthlyTrend(txs []models.Transaction, now time.Time) []models.MonthlyResult {
	keys := TrailingPeriodKeys(now, Monthly, b.aggregator.Periods())
	index := make(map[string]int, len(keys))
	trend := make([]models.MonthlyResult, len(keys))
	for i, k := range keys {
		index[k] = i
		trend[i] = models.MonthlyResult{PeriodKey: k, Revenue: decimal.Zero, Expenses: decimal.Zero}
	}

	for _, tx := range txs {
		if tx.IsPending() {
			continue
		}
		i, ok := index[PeriodKey(tx.BookingDateTime, Monthly)]
		if !ok {
			continue
		}
		if tx.Direction == models.Credit {
			trend[i].Revenue = trend[i].Revenue.Add(tx.Amount.Amount)
		} else {
			trend[i].Expenses = trend[i].Expenses.Add(tx.Amount.Amount)
		}
	}

	for i := range trend {
		trend[i].NetProfit = trend[i].Revenue.Sub(trend[i].Expenses)
		trend[i].Growth = decimal.Zero
		if i > 0 {
			trend[i].Growth = Delta(trend[i].Revenue, trend[i-1].Revenue)
		}
	}
	return trend
}
