package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sistema-orcamento/orcamento/internal/document"
	"github.com/sistema-orcamento/orcamento/internal/sales/quotes"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskArchiveQuoteDocument renders an approved quote to PDF and stores it.
	TaskArchiveQuoteDocument = "quote:archive_document"
)

// ArchiveQuotePayload identifies the quote to archive.
type ArchiveQuotePayload struct {
	QuoteID int64 `json:"quote_id"`
}

// NewArchiveQuoteTask constructs an Asynq task for archiving a quote document.
func NewArchiveQuoteTask(quoteID int64) (*asynq.Task, error) {
	body, err := json.Marshal(ArchiveQuotePayload{QuoteID: quoteID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArchiveQuoteDocument, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	), nil
}

// PDFSource renders a quote to PDF and returns the quote it was built from.
type PDFSource interface {
	PDF(ctx context.Context, id int64) ([]byte, *quotes.Quote, error)
}

// ObjectWriter stores archived documents.
type ObjectWriter interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// ArchiveRecorder counts archive outcomes.
type ArchiveRecorder interface {
	ArchiveJob(ok bool)
}

// ArchiveQuoteJob handles TaskArchiveQuoteDocument.
type ArchiveQuoteJob struct {
	Documents PDFSource
	Store     ObjectWriter
	Logger    *slog.Logger
	Metrics   ArchiveRecorder
}

// NewArchiveQuoteJob constructs the job handler.
func NewArchiveQuoteJob(documents PDFSource, store ObjectWriter, logger *slog.Logger, metrics ArchiveRecorder) *ArchiveQuoteJob {
	return &ArchiveQuoteJob{Documents: documents, Store: store, Logger: logger, Metrics: metrics}
}

// Handle renders the quote and uploads it under quotes/<number>/rev-<n>.pdf.
func (j *ArchiveQuoteJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.Documents == nil || j.Store == nil {
		return errors.New("archive quote: dependencies not configured")
	}
	var payload ArchiveQuotePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.QuoteID <= 0 {
		return fmt.Errorf("archive quote: bad payload: %w", asynq.SkipRetry)
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.ArchiveJob(err == nil)
		}
	}()

	pdf, q, err := j.Documents.PDF(ctx, payload.QuoteID)
	if errors.Is(err, shared.ErrNotFound) {
		j.log().Warn("archive quote: quote gone", slog.Int64("quote_id", payload.QuoteID))
		return fmt.Errorf("archive quote %d: %v: %w", payload.QuoteID, err, asynq.SkipRetry)
	}
	if err != nil {
		j.log().Error("archive quote: render", slog.Int64("quote_id", payload.QuoteID), slog.Any("error", err))
		return err
	}

	key := document.ArchiveKey(q.ID, q.Revision)
	if err := j.Store.Put(ctx, key, "application/pdf", pdf); err != nil {
		j.log().Error("archive quote: upload", slog.String("key", key), slog.Any("error", err))
		return err
	}
	j.log().Info("quote archived", slog.Int64("quote_id", q.ID), slog.Int("revision", q.Revision), slog.String("key", key))
	return nil
}

func (j *ArchiveQuoteJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
