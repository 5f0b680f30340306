// backend/src/services/statement_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/processors"
)

// ReportKind identifies one of the derived statements.
type ReportKind string

const (
	ReportBalanceSheet ReportKind = "balance-sheet"
	ReportProfitLoss   ReportKind = "profit-loss"
	ReportCashFlow     ReportKind = "cash-flow"
)

// Title is the heading printed on exports.
func (k ReportKind) Title() string {
	switch k {
	case ReportBalanceSheet:
		return "Balance Sheet"
	case ReportProfitLoss:
		return "Profit & Loss"
	case ReportCashFlow:
		return "Cash Flow Statement"
	}
	return string(k)
}

func ParseReportKind(s string) (ReportKind, error) {
	switch k := ReportKind(s); k {
	case ReportBalanceSheet, ReportProfitLoss, ReportCashFlow:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReport, s)
}

// RenderedStatement is a statement reduced to what an export needs.
type RenderedStatement struct {
	Kind   ReportKind
	BankID string
	AsOf   time.Time
	Lines  []models.LineItem
}

// StatementService computes statements from a fresh bank snapshot on every
// call. Only the raw bank responses are cached, never the statements.
type StatementService struct {
	data       BankDataSource
	builder    *processors.StatementBuilder
	aggregator *processors.Aggregator
	nowFn      func() time.Time
}

func NewStatementService(data BankDataSource, builder *processors.StatementBuilder, aggregator *processors.Aggregator) *StatementService {
	return &StatementService{data: data, builder: builder, aggregator: aggregator, nowFn: time.Now}
}

func (s *StatementService) input(ctx context.Context, customerID, bankID string) (processors.StatementInput, error) {
	if customerID == "" {
		return processors.StatementInput{}, ErrNoCustomer
	}
	snap, err := s.data.Snapshot(ctx, customerID, bankID)
	if err != nil {
		return processors.StatementInput{}, err
	}
	in := processors.StatementInput{
		Transactions: snap.Transactions,
		Accounts:     snap.Accounts,
		BankID:       bankID,
		Now:          s.nowFn().UTC(),
	}
	if currencies := in.Currencies(); len(currencies) > 1 {
		logger.FromContext(ctx).Warn("Statement mixes currencies; amounts are summed without conversion",
			"bankID", snap.BankID, "currencies", currencies)
	}
	return in, nil
}

func (s *StatementService) BalanceSheet(ctx context.Context, customerID, bankID string) (models.BalanceSheet, error) {
	in, err := s.input(ctx, customerID, bankID)
	if err != nil {
		return models.BalanceSheet{}, err
	}
	return s.builder.BalanceSheet(in), nil
}

func (s *StatementService) ProfitAndLoss(ctx context.Context, customerID, bankID string) (models.ProfitAndLoss, error) {
	in, err := s.input(ctx, customerID, bankID)
	if err != nil {
		return models.ProfitAndLoss{}, err
	}
	return s.builder.ProfitAndLoss(in), nil
}

func (s *StatementService) CashFlow(ctx context.Context, customerID, bankID string) (models.CashFlow, error) {
	in, err := s.input(ctx, customerID, bankID)
	if err != nil {
		return models.CashFlow{}, err
	}
	return s.builder.CashFlow(in), nil
}

// Periods returns the trailing category totals at the given granularity.
func (s *StatementService) Periods(ctx context.Context, customerID, bankID string, g processors.Granularity) (models.PeriodSeries, error) {
	in, err := s.input(ctx, customerID, bankID)
	if err != nil {
		return models.PeriodSeries{}, err
	}
	label := bankID
	if label == "" {
		label = models.AllBanks
	}
	return models.PeriodSeries{
		Granularity: string(g),
		BankID:      label,
		Periods:     s.aggregator.Aggregate(in.Transactions, g, in.Now),
	}, nil
}

// Render builds the statement of the given kind for export.
func (s *StatementService) Render(ctx context.Context, kind ReportKind, customerID, bankID string) (RenderedStatement, error) {
	out := RenderedStatement{Kind: kind}
	switch kind {
	case ReportBalanceSheet:
		bs, err := s.BalanceSheet(ctx, customerID, bankID)
		if err != nil {
			return out, err
		}
		out.BankID, out.AsOf, out.Lines = bs.BankID, bs.AsOf, bs.Lines
	case ReportProfitLoss:
		pl, err := s.ProfitAndLoss(ctx, customerID, bankID)
		if err != nil {
			return out, err
		}
		out.BankID, out.AsOf, out.Lines = pl.BankID, pl.AsOf, pl.Lines
	case ReportCashFlow:
		cf, err := s.CashFlow(ctx, customerID, bankID)
		if err != nil {
			return out, err
		}
		out.BankID, out.AsOf, out.Lines = cf.BankID, cf.AsOf, cf.Lines
	default:
		return out, fmt.Errorf("%w: %q", ErrUnknownReport, kind)
	}
	return out, nil
}
