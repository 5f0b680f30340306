package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/processors"
)

var fixedNow = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func newStatementService(api BankAPI) *StatementService {
	c := processors.NewClassifier(nil)
	agg := processors.NewAggregator(c, processors.DefaultTrailingPeriods)
	svc := NewStatementService(NewBankService(api, nil), processors.NewStatementBuilder(c, agg, processors.DefaultRatios()), agg)
	svc.nowFn = func() time.Time { return fixedNow }
	return svc
}

func TestStatementService_Statements(t *testing.T) {
	svc := newStatementService(newStubBankAPI())
	ctx := context.Background()

	bs, err := svc.BalanceSheet(ctx, "cust-1", "")
	require.NoError(t, err)
	assert.Equal(t, "150", bs.Cash.String())
	assert.Equal(t, fixedNow, bs.AsOf)

	pl, err := svc.ProfitAndLoss(ctx, "cust-1", "bank-1")
	require.NoError(t, err)
	assert.Equal(t, "10", pl.Revenue.String())
	assert.Equal(t, "bank-1", pl.BankID)

	cf, err := svc.CashFlow(ctx, "cust-1", "all")
	require.NoError(t, err)
	assert.Equal(t, 2026, cf.CurrentYear)
	assert.Equal(t, "-10", cf.NetChange.CurrentYear.String())
}

func TestStatementService_Periods(t *testing.T) {
	svc := newStatementService(newStubBankAPI())

	series, err := svc.Periods(context.Background(), "cust-1", "", processors.Monthly)
	require.NoError(t, err)
	assert.Equal(t, "monthly", series.Granularity)
	assert.Equal(t, models.AllBanks, series.BankID)
	require.Len(t, series.Periods, processors.DefaultTrailingPeriods)
	assert.Equal(t, "2026-02", series.Periods[5].PeriodKey)
	assert.Equal(t, "20", series.Periods[5].Totals.Get(models.OperatingExpense).String())
	assert.Equal(t, "10", series.Periods[4].Totals.Get(models.OperatingIncome).String())
}

func TestStatementService_NoCustomer(t *testing.T) {
	svc := newStatementService(newStubBankAPI())
	_, err := svc.BalanceSheet(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoCustomer)
}

func TestStatementService_RenderAndPDF(t *testing.T) {
	svc := newStatementService(newStubBankAPI())

	for _, kind := range []ReportKind{ReportBalanceSheet, ReportProfitLoss, ReportCashFlow} {
		st, err := svc.Render(context.Background(), kind, "cust-1", "")
		require.NoError(t, err)
		assert.NotEmpty(t, st.Lines)

		data, err := RenderStatementPDF(st, "Acme Ltd", fixedNow)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), kind)
		assert.Equal(t, string(kind)+"-all-20260215.pdf", ExportFilename(st))
	}

	_, err := svc.Render(context.Background(), ReportKind("ledger"), "cust-1", "")
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestParseReportKind(t *testing.T) {
	k, err := ParseReportKind("cash-flow")
	require.NoError(t, err)
	assert.Equal(t, ReportCashFlow, k)
	assert.Equal(t, "Cash Flow Statement", k.Title())

	_, err = ParseReportKind("CASH-FLOW")
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestStatementService_WarnsOnMixedCurrencies(t *testing.T) {
	api := newStubBankAPI()
	svc := newStatementService(api)

	var buf bytes.Buffer
	ctx := logger.ToContext(context.Background(), logger.New(&buf, "debug"))

	_, err := svc.BalanceSheet(ctx, "cust-1", "")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "mixes currencies")

	api.balances["acc-2"] = models.Balance{Amount: decimal.NewFromInt(50), Currency: "EUR"}
	svc = newStatementService(api)
	_, err = svc.BalanceSheet(ctx, "cust-1", "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "mixes currencies")
	assert.Contains(t, buf.String(), "EUR")

	buf.Reset()
	_, err = svc.BalanceSheet(ctx, "cust-1", "bank-1")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "mixes currencies", "the bank filter narrows the check")
}

func TestStatementService_UnknownBank(t *testing.T) {
	svc := newStatementService(newStubBankAPI())
	_, err := svc.ProfitAndLoss(context.Background(), "cust-1", "bank-9")
	assert.ErrorIs(t, err, ErrUnknownBank)
}
