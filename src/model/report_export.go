package model

import (
	"database/sql"
	"time"
)

// ReportExport records one generated statement PDF.
type ReportExport struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	Kind       string    `json:"kind"`
	BankID     string    `json:"bank_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	ArchiveURI string    `json:"archive_uri,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e *ReportExport) Create(db *sql.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := `
	INSERT INTO report_exports (user_id, kind, bank_id, filename, size_bytes, archive_uri, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(e.UserID, e.Kind, e.BankID, e.Filename, e.SizeBytes, nullString(e.ArchiveURI), e.CreatedAt)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

// ListReportExports returns the user's most recent exports first.
func ListReportExports(db *sql.DB, userID int64, limit int) ([]ReportExport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
	SELECT id, user_id, kind, bank_id, filename, size_bytes, archive_uri, created_at
	FROM report_exports
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exports := []ReportExport{}
	for rows.Next() {
		var e ReportExport
		var archiveURI sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.BankID, &e.Filename, &e.SizeBytes, &archiveURI, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ArchiveURI = archiveURI.String
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
