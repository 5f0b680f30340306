package model

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "model.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, filepath.Join("..", "..", "db", "migrations")))
	return db
}

func createUser(t *testing.T, db *sql.DB, email string) *User {
	t.Helper()
	u := &User{Email: email, CompanyName: "Acme Ltd"}
	require.NoError(t, u.HashPassword("correct horse"))
	require.NoError(t, u.CreateUser(db))
	return u
}

func TestUser_CreateAndLoad(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "  Owner@Acme.io ")

	assert.NotZero(t, u.ID)
	assert.Equal(t, "owner@acme.io", u.Email)

	byEmail, err := GetUserByEmail(db, "OWNER@acme.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.NoError(t, byEmail.CheckPassword("correct horse"))
	assert.Error(t, byEmail.CheckPassword("wrong"))
	assert.False(t, byEmail.HasBankLink())

	_, err = GetUserByID(db, 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	dup := &User{Email: "owner@acme.io", Password: "x", CompanyName: "Other"}
	assert.ErrorIs(t, dup.CreateUser(db), ErrEmailTaken)
}

func TestUser_UpdatesPersist(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "a@b.io")

	require.NoError(t, u.SetCustomerID(db, "cust-123"))
	require.NoError(t, u.UpdateCompanyName(db, "Beta Ltd"))
	require.NoError(t, u.RecordLogin(db))

	got, err := GetUserByID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "cust-123", got.CustomerID)
	assert.True(t, got.HasBankLink())
	assert.Equal(t, "Beta Ltd", got.CompanyName)
	assert.Equal(t, 1, got.LoginCount)
	assert.True(t, got.LastLoginAt.Valid)
}

func TestUser_CustomerBelongsToOneUser(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@acme.io")
	other := createUser(t, db, "other@acme.io")

	require.NoError(t, owner.SetCustomerID(db, "cust-1"))
	require.NoError(t, owner.SetCustomerID(db, "cust-1"), "relinking the same customer is allowed")

	err := other.SetCustomerID(db, "cust-1")
	assert.ErrorIs(t, err, ErrCustomerTaken)
	assert.False(t, other.HasBankLink())

	stored, err := GetUserByID(db, other.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CustomerID)

	inUse, err := CustomerIDInUse(db, "cust-1", other.ID)
	require.NoError(t, err)
	assert.True(t, inUse)
	inUse, err = CustomerIDInUse(db, "cust-1", owner.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	// The unique index backs the check for writes that bypass it.
	_, err = db.Exec(`UPDATE users SET customer_id = ? WHERE id = ?`, "cust-1", other.ID)
	assert.Error(t, err)

	// Unlinked users do not collide with each other.
	require.NoError(t, owner.SetCustomerID(db, ""))
	require.NoError(t, other.SetCustomerID(db, "cust-1"))
}

func TestOnboarding_DefaultAndSave(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "c@d.io")

	o, err := GetOnboarding(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, StepBusiness, o.CurrentStep)
	assert.False(t, o.Completed)
	assert.Empty(t, o.Answers)

	o.Answers[StepBusiness] = json.RawMessage(`{"company_name":"Acme"}`)
	o.CurrentStep = StepFinancials
	require.NoError(t, o.Save(db))

	o.CurrentStep = StepCompleted
	o.Completed = true
	require.NoError(t, o.Save(db))

	got, err := GetOnboarding(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, got.CurrentStep)
	assert.True(t, got.Completed)
	assert.JSONEq(t, `{"company_name":"Acme"}`, string(got.Answers[StepBusiness]))
}

func TestOnboardingStep_Order(t *testing.T) {
	assert.Equal(t, 0, StepBusiness.Index())
	assert.Equal(t, 2, StepBanking.Index())
	assert.Equal(t, 3, StepCompleted.Index())
	assert.Equal(t, -1, OnboardingStep("nope").Index())
	assert.Equal(t, StepFinancials, StepBusiness.Next())
	assert.Equal(t, StepCompleted, StepBanking.Next())
}

func TestReportExports(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "e@f.io")
	other := createUser(t, db, "g@h.io")

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, kind := range []string{"balance-sheet", "profit-loss"} {
		e := &ReportExport{UserID: u.ID, Kind: kind, BankID: "all", Filename: kind + ".pdf", SizeBytes: 100, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, e.Create(db))
		assert.NotZero(t, e.ID)
	}
	require.NoError(t, (&ReportExport{UserID: other.ID, Kind: "cash-flow", BankID: "all", Filename: "x.pdf", ArchiveURI: "gs://b/x.pdf"}).Create(db))

	list, err := ListReportExports(db, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "profit-loss", list[0].Kind)
	assert.Empty(t, list[0].ArchiveURI)

	list, err = ListReportExports(db, other.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "gs://b/x.pdf", list[0].ArchiveURI)
}
