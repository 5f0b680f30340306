// backend/src/services/report_archive.go
package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/username/ledgerview/backend/src/logger"
)

// NoopArchiver is used when no archive bucket is configured.
type NoopArchiver struct{}

func (NoopArchiver) Archive(ctx context.Context, userID int64, kind string, data []byte, at time.Time) (string, error) {
	return "", nil
}

// GCSArchiver uploads exported PDFs to a Google Cloud Storage bucket.
// It relies on Application Default Credentials.
type GCSArchiver struct {
	client *storage.Client
	bucket string
}

func NewGCSArchiver(ctx context.Context, bucket string) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket}, nil
}

// ArchiveObjectName is reports/<userID>/<timestamp>-<kind>.pdf.
func ArchiveObjectName(userID int64, kind string, at time.Time) string {
	return fmt.Sprintf("reports/%d/%s-%s.pdf", userID, at.UTC().Format("20060102T150405Z"), kind)
}

func (a *GCSArchiver) Archive(ctx context.Context, userID int64, kind string, data []byte, at time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	name := ArchiveObjectName(userID, kind, at)
	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write report to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize report upload: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, name)
	logger.FromContext(ctx).Info("Archived report", "uri", uri, "bytes", len(data))
	return uri, nil
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
