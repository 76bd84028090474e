package documents

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nexliaai/corretor/pkg/pagination"
	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
	"github.com/nexliaai/corretor/pkg/storage"
)

const batchConcurrency = 4

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
	presignTTL time.Duration
	clock      *keyClock
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
	presignTTL time.Duration,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
		presignTTL: presignTTL,
		clock:      &keyClock{now: time.Now},
	}
}

func (r *repo) Handler(maxUploadSize int64, dispatcher Dispatcher) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize, dispatcher)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "Category", "PartyName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

// Create writes the blob first and the row second. A failed blob write leaves
// no row behind; a failed insert removes the blob it just wrote.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if !ValidCategory(cmd.Category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, cmd.Category)
	}
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}

	id := uuid.New()
	key := StorageKey(cmd.Category, r.clock.next(), cmd.Filename)

	err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), int64(len(cmd.Data)), cmd.ContentType)
	if err != nil {
		r.logger.Error("document blob write failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	q := `
		INSERT INTO documents(id, category, filename, content_type, size_bytes, page_count, storage_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')`

	_, err = r.db.ExecContext(ctx, q,
		id,
		cmd.Category,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
	)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created", "id", id, "category", cmd.Category, "filename", cmd.Filename)
	return r.Find(ctx, id)
}

func (r *repo) CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult {
	results := make([]BatchResult, len(cmds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, cmd := range cmds {
		g.Go(func() error {
			results[i].Filename = cmd.Filename

			doc, err := r.Create(gctx, cmd)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Document = doc
			return nil
		})
	}

	g.Wait()
	return results
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	err = repository.ExecExpectOne(ctx, r.db, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, doc.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", doc.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

func (r *repo) PresignedURL(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return "", err
	}

	if ttl <= 0 {
		ttl = r.presignTTL
	}

	url, err := r.storage.PresignedURL(ctx, doc.StorageKey, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return url, nil
}

func (r *repo) MarkProcessing(ctx context.Context, id uuid.UUID, jobRef *string) (bool, error) {
	return r.transition(ctx, id, StatusPending, StatusProcessing, `
		UPDATE documents
		SET status = 'processing',
			job_ref = COALESCE($2, job_ref),
			processing_started_at = now(),
			status_changed_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, jobRef,
	)
}

func (r *repo) SetJobRef(ctx context.Context, id uuid.UUID, jobRef string) (bool, error) {
	ok, err := repository.ExecAffected(ctx, r.db, `
		UPDATE documents SET job_ref = $2
		WHERE id = $1 AND status = 'processing'`,
		id, jobRef,
	)
	if err != nil {
		return false, fmt.Errorf("set job ref: %w", err)
	}
	return ok, nil
}

func (r *repo) MarkExtracted(ctx context.Context, id uuid.UUID, ext Extraction) (bool, error) {
	return r.transition(ctx, id, StatusProcessing, StatusPendingReview, `
		UPDATE documents
		SET status = 'pending_review',
			extracted_payload = $2::jsonb,
			raw_response = $3,
			identity_hint = COALESCE($4, identity_hint),
			error_message = NULL,
			status_changed_at = now()
		WHERE id = $1 AND status = 'processing'`,
		id, string(ext.Payload), ext.Raw, ext.IdentityHint,
	)
}

// MarkFailed moves a document from processing or pending_review to error.
// The extracted payload is left untouched, so a review-stage failure keeps it
// for a manual retry while a processing-stage failure never had one.
func (r *repo) MarkFailed(ctx context.Context, id uuid.UUID, from Status, message string, raw *string) (bool, error) {
	if from != StatusProcessing && from != StatusPendingReview {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StatusError)
	}

	return r.transition(ctx, id, from, StatusError, `
		UPDATE documents
		SET status = 'error',
			error_message = $3,
			raw_response = COALESCE($4, raw_response),
			status_changed_at = now(),
			completed_at = now()
		WHERE id = $1 AND status = $2`,
		id, string(from), message, raw,
	)
}

// MarkCompleted records the owning party and completes the document.
// Re-confirming an already completed document is accepted.
func (r *repo) MarkCompleted(ctx context.Context, id uuid.UUID, partyID uuid.UUID) (bool, error) {
	return r.transition(ctx, id, StatusPendingReview, StatusCompleted, `
		UPDATE documents
		SET status = 'completed',
			party_id = $2,
			completed_at = COALESCE(completed_at, now()),
			status_changed_at = now()
		WHERE id = $1 AND status IN ('pending_review', 'completed')`,
		id, partyID,
	)
}

func (r *repo) transition(ctx context.Context, id uuid.UUID, from, to Status, q string, args ...any) (bool, error) {
	ok, err := repository.ExecAffected(ctx, r.db, q, args...)
	if err != nil {
		return false, fmt.Errorf("transition %s -> %s: %w", from, to, err)
	}

	if ok {
		r.logger.Info("document transitioned", "id", id, "from", from, "to", to)
	} else {
		r.logger.Debug("document transition skipped", "id", id, "from", from, "to", to)
	}
	return ok, nil
}
