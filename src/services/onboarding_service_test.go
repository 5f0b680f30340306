package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/database"
	"github.com/username/ledgerview/backend/src/model"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/security/validation"
)

func newServiceDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, filepath.Join("..", "..", "db", "migrations")))
	return db
}

func newServiceUser(t *testing.T, db *sql.DB) *model.User {
	t.Helper()
	u := &model.User{Email: "owner@acme.io", Password: "hash", CompanyName: "Acme"}
	require.NoError(t, u.CreateUser(db))
	return u
}

type verifierFunc func(ctx context.Context, customerID string) ([]models.Bank, error)

func (f verifierFunc) Banks(ctx context.Context, customerID string) ([]models.Bank, error) {
	return f(ctx, customerID)
}

func TestOnboarding_LinearFlow(t *testing.T) {
	db := newServiceDB(t)
	user := newServiceUser(t, db)
	svc := NewOnboardingService(db, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, user, model.StepFinancials, []byte(`{"base_currency":"GBP","fiscal_year_start_month":4}`))
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	state, err := svc.Submit(ctx, user, model.StepBusiness, []byte(`{"company_name":"<i>Acme Trading</i>","industry":"Retail","country_code":"gb"}`))
	require.NoError(t, err)
	assert.Equal(t, model.StepFinancials, state.CurrentStep)
	assert.JSONEq(t, `{"company_name":"Acme Trading","industry":"Retail","country_code":"GB"}`, string(state.Answers[model.StepBusiness]))
	assert.Equal(t, "Acme Trading", user.CompanyName)

	state, err = svc.Submit(ctx, user, model.StepFinancials, []byte(`{"base_currency":"gbp","fiscal_year_start_month":4,"vat_registered":true}`))
	require.NoError(t, err)
	assert.Equal(t, model.StepBanking, state.CurrentStep)

	// Revisiting an earlier page keeps the cursor where it is.
	state, err = svc.Submit(ctx, user, model.StepBusiness, []byte(`{"company_name":"Acme","industry":"Retail","country_code":"GB"}`))
	require.NoError(t, err)
	assert.Equal(t, model.StepBanking, state.CurrentStep)

	state, err = svc.Submit(ctx, user, model.StepBanking, []byte(`{"customer_id":"cust-1"}`))
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, model.StepCompleted, state.CurrentStep)

	stored, err := model.GetUserByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", stored.CustomerID)

	loaded, err := svc.Get(user.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Completed)
	assert.Len(t, loaded.Answers, 3)
}

func TestOnboarding_ValidationErrors(t *testing.T) {
	db := newServiceDB(t)
	user := newServiceUser(t, db)
	svc := NewOnboardingService(db, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, user, model.StepBusiness, []byte(`{"company_name":"","industry":"Retail","country_code":"GBR"}`))
	require.ErrorIs(t, err, validation.ErrValidationFailed)
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "company_name")
	assert.Contains(t, fe, "country_code")
	assert.NotContains(t, fe, "industry")

	_, err = svc.Submit(ctx, user, model.StepBusiness, []byte(`{"company":"x"}`))
	assert.ErrorIs(t, err, validation.ErrValidationFailed, "unknown fields are rejected")

	_, err = svc.Submit(ctx, user, model.OnboardingStep("billing"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownStep)

	state, err := svc.Get(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepBusiness, state.CurrentStep, "failed submissions do not advance")
}

func TestOnboarding_BankingVerifiesCustomer(t *testing.T) {
	db := newServiceDB(t)
	user := newServiceUser(t, db)
	ctx := context.Background()

	state, err := model.GetOnboarding(db, user.ID)
	require.NoError(t, err)
	state.CurrentStep = model.StepBanking
	require.NoError(t, state.Save(db))

	var asked string
	svc := NewOnboardingService(db, verifierFunc(func(ctx context.Context, customerID string) ([]models.Bank, error) {
		asked = customerID
		return nil, &UpstreamError{Endpoint: "/accounts", StatusCode: 404}
	}))

	_, err = svc.Submit(ctx, user, model.StepBanking, []byte(`{"customer_id":" cust-9 "}`))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "cust-9", asked)

	stored, err := model.GetUserByID(db, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasBankLink())

	_, err = svc.Submit(ctx, user, model.StepBanking, []byte(`{"customer_id":"../x"}`))
	assert.ErrorIs(t, err, validation.ErrValidationFailed)
}

func TestOnboarding_BankingRejectsCustomerOfAnotherUser(t *testing.T) {
	db := newServiceDB(t)
	owner := newServiceUser(t, db)
	require.NoError(t, owner.SetCustomerID(db, "cust-owner"))

	intruder := &model.User{Email: "intruder@acme.io", Password: "hash", CompanyName: "Intruder"}
	require.NoError(t, intruder.CreateUser(db))
	state, err := model.GetOnboarding(db, intruder.ID)
	require.NoError(t, err)
	state.CurrentStep = model.StepBanking
	require.NoError(t, state.Save(db))

	verified := 0
	svc := NewOnboardingService(db, verifierFunc(func(ctx context.Context, customerID string) ([]models.Bank, error) {
		verified++
		return []models.Bank{{ID: "bank-1"}}, nil
	}))

	_, err = svc.Submit(context.Background(), intruder, model.StepBanking, []byte(`{"customer_id":"cust-owner"}`))
	assert.ErrorIs(t, err, model.ErrCustomerTaken)
	assert.Zero(t, verified, "the aggregator is not asked about a customer the caller does not own")

	stored, err := model.GetUserByID(db, intruder.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CustomerID)

	state, err = svc.Get(intruder.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepBanking, state.CurrentStep)
	assert.False(t, state.Completed)

	// The owner may resubmit its own customer.
	ownerState, err := model.GetOnboarding(db, owner.ID)
	require.NoError(t, err)
	ownerState.CurrentStep = model.StepBanking
	require.NoError(t, ownerState.Save(db))
	ownerState, err = svc.Submit(context.Background(), owner, model.StepBanking, []byte(`{"customer_id":"cust-owner"}`))
	require.NoError(t, err)
	assert.True(t, ownerState.Completed)
}

func TestExportService_RecordsAndArchives(t *testing.T) {
	db := newServiceDB(t)
	user := newServiceUser(t, db)
	require.NoError(t, user.SetCustomerID(db, "cust-1"))

	archiver := &recordingArchiver{}
	svc := NewExportService(db, newStatementService(newStubBankAPI()), archiver)
	svc.nowFn = func() time.Time { return fixedNow }

	res, err := svc.Export(context.Background(), user, ReportProfitLoss, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, "profit-loss-bank-1-20260215.pdf", res.Filename)
	assert.NotZero(t, res.Record.ID)
	assert.Equal(t, "gs://test/"+ArchiveObjectName(user.ID, "profit-loss", fixedNow), res.Record.ArchiveURI)
	assert.Equal(t, 1, archiver.calls)

	list, err := svc.List(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(len(res.Data)), list[0].SizeBytes)
}

func TestExportService_ArchiveFailureDoesNotBlock(t *testing.T) {
	db := newServiceDB(t)
	user := newServiceUser(t, db)
	require.NoError(t, user.SetCustomerID(db, "cust-1"))

	svc := NewExportService(db, newStatementService(newStubBankAPI()), &recordingArchiver{err: errors.New("bucket gone")})
	res, err := svc.Export(context.Background(), user, ReportBalanceSheet, "")
	require.NoError(t, err)
	assert.Empty(t, res.Record.ArchiveURI)
}

func TestExportService_RequiresBankLink(t *testing.T) {
	db := newServiceDB(t)
	user := newServiceUser(t, db)
	svc := NewExportService(db, newStatementService(newStubBankAPI()), nil)

	_, err := svc.Export(context.Background(), user, ReportCashFlow, "")
	assert.ErrorIs(t, err, ErrNoCustomer)
}

func TestArchiveObjectName(t *testing.T) {
	at := time.Date(2026, 3, 10, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "reports/7/20260310T080509Z-cash-flow.pdf", ArchiveObjectName(7, "cash-flow", at))
}

type recordingArchiver struct {
	calls int
	err   error
}

func (a *recordingArchiver) Archive(ctx context.Context, userID int64, kind string, data []byte, at time.Time) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return "gs://test/" + ArchiveObjectName(userID, kind, at), nil
}
