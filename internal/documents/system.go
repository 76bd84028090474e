package documents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/pkg/pagination"
)

// System defines the public contract for document intake and record operations.
// The Mark* transitions report false, without error, when the document was not
// in the required source state.
type System interface {
	Handler(maxUploadSize int64, dispatcher Dispatcher) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult
	Delete(ctx context.Context, id uuid.UUID) error

	// PresignedURL returns a time-bounded retrieval URL for the document blob.
	// A zero ttl uses the configured default.
	PresignedURL(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error)

	MarkProcessing(ctx context.Context, id uuid.UUID, jobRef *string) (bool, error)
	SetJobRef(ctx context.Context, id uuid.UUID, jobRef string) (bool, error)
	MarkExtracted(ctx context.Context, id uuid.UUID, ext Extraction) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, from Status, message string, raw *string) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, partyID uuid.UUID) (bool, error)
}

// Dispatcher hands a newly stored document to the extraction pipeline.
type Dispatcher interface {
	Dispatch(id uuid.UUID)
}
