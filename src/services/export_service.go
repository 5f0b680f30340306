// backend/src/services/export_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/model"
)

// ExportResult is a rendered PDF plus its export record.
type ExportResult struct {
	Filename string
	Data     []byte
	Record   model.ReportExport
}

// ExportService renders statements to PDF, archives them and records each export.
type ExportService struct {
	db         *sql.DB
	statements *StatementService
	archiver   ReportArchiver
	nowFn      func() time.Time
}

func NewExportService(db *sql.DB, statements *StatementService, archiver ReportArchiver) *ExportService {
	if archiver == nil {
		archiver = NoopArchiver{}
	}
	return &ExportService{db: db, statements: statements, archiver: archiver, nowFn: time.Now}
}

func (s *ExportService) Export(ctx context.Context, user *model.User, kind ReportKind, bankID string) (*ExportResult, error) {
	if !user.HasBankLink() {
		return nil, ErrNoCustomer
	}
	st, err := s.statements.Render(ctx, kind, user.CustomerID, bankID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn().UTC()
	data, err := RenderStatementPDF(st, user.CompanyName, now)
	if err != nil {
		return nil, err
	}

	// An archive failure must not block the download.
	uri, err := s.archiver.Archive(ctx, user.ID, string(kind), data, now)
	if err != nil {
		logger.FromContext(ctx).Error("Report archive failed", "kind", kind, "error", err)
		uri = ""
	}

	res := &ExportResult{
		Filename: ExportFilename(st),
		Data:     data,
		Record: model.ReportExport{
			UserID:     user.ID,
			Kind:       string(kind),
			BankID:     st.BankID,
			SizeBytes:  int64(len(data)),
			ArchiveURI: uri,
			CreatedAt:  now,
		},
	}
	res.Record.Filename = res.Filename
	if err := res.Record.Create(s.db); err != nil {
		return nil, fmt.Errorf("recording export: %w", err)
	}
	return res, nil
}

func (s *ExportService) List(userID int64, limit int) ([]model.ReportExport, error) {
	return model.ListReportExports(s.db, userID, limit)
}
