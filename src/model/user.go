package model

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrCustomerTaken is returned when the aggregator customer is linked to another user.
	ErrCustomerTaken = errors.New("bank customer already linked to another account")
)

// User is one tenant of the system. CustomerID links the tenant to its
// bank aggregator customer and stays empty until onboarding finishes.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	CompanyName string    `json:"company_name"`
	CustomerID  string    `json:"customer_id,omitempty"`
	LoginCount  int       `json:"login_count"`
	LastLoginAt NullTime  `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NullTime is an alias for sql.NullTime for better JSON handling.
type NullTime sql.NullTime

func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return nt.Time.MarshalJSON()
}

func (nt *NullTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*nt = NullTime{}
		return nil
	}
	if err := nt.Time.UnmarshalJSON(data); err != nil {
		return err
	}
	nt.Valid = true
	return nil
}

// HasBankLink reports whether the user has linked an aggregator customer.
func (u *User) HasBankLink() bool {
	return strings.TrimSpace(u.CustomerID) != ""
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) CreateUser(db *sql.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := GetUserByEmail(db, u.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
	INSERT INTO users (email, password, company_name, customer_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(u.Email, u.Password, u.CompanyName, nullString(u.CustomerID), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

const userColumns = `id, email, password, company_name, customer_id, login_count, last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var customerID sql.NullString
	var lastLoginAt sql.NullTime

	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.CompanyName, &customerID,
		&user.LoginCount, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	user.CustomerID = customerID.String
	user.LastLoginAt = NullTime(lastLoginAt)
	return &user, nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
}

// RecordLogin bumps the login counter and last login timestamp.
func (u *User) RecordLogin(db *sql.DB) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE users SET login_count = login_count + 1, last_login_at = ?, updated_at = ? WHERE id = ?`, now, now, u.ID)
	if err != nil {
		return err
	}
	u.LoginCount++
	u.LastLoginAt = NullTime{Time: now, Valid: true}
	u.UpdatedAt = now
	return nil
}

// UpdateCompanyName stores the company name captured during onboarding.
func (u *User) UpdateCompanyName(db *sql.DB, name string) error {
	u.CompanyName = name
	u.UpdatedAt = time.Now().UTC()
	_, err := db.Exec(`UPDATE users SET company_name = ?, updated_at = ? WHERE id = ?`, u.CompanyName, u.UpdatedAt, u.ID)
	return err
}

// CustomerIDInUse reports whether a user other than exceptUserID holds the customer id.
func CustomerIDInUse(db *sql.DB, customerID string, exceptUserID int64) (bool, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM users WHERE customer_id = ? AND id != ? LIMIT 1`, customerID, exceptUserID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetCustomerID links the user to an aggregator customer. A customer belongs
// to at most one user.
func (u *User) SetCustomerID(db *sql.DB, customerID string) error {
	if customerID != "" {
		taken, err := CustomerIDInUse(db, customerID, u.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrCustomerTaken
		}
	}

	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE users SET customer_id = ?, updated_at = ? WHERE id = ?`, nullString(customerID), now, u.ID)
	if err != nil {
		// idx_users_customer_id catches a concurrent link.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrCustomerTaken
		}
		return err
	}
	u.CustomerID = customerID
	u.UpdatedAt = now
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
