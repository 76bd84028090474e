package policies

import (
	"context"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/pkg/pagination"
)

// System defines the public contract for policy record operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Policy], error)

	Find(ctx context.Context, id uuid.UUID) (*Policy, error)
	FindByDocument(ctx context.Context, documentID uuid.UUID) (*Policy, error)

	// Upsert writes the record for cmd.DocumentID, replacing every mapped
	// column when one already exists.
	Upsert(ctx context.Context, cmd UpsertCommand) (*Policy, error)

	// Export renders the records matching filters as an XLSX workbook.
	Export(ctx context.Context, filters Filters) ([]byte, error)
}
