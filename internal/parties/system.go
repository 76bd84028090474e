package parties

import (
	"context"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/pkg/pagination"
)

// System defines the public contract for the party directory.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Party], error)

	// ListWithStats is List with the document and policy record counts of
	// each party on the page.
	ListWithStats(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[PartyStats], error)

	Find(ctx context.Context, id uuid.UUID) (*Party, error)

	Stats(ctx context.Context, id uuid.UUID) (*Stats, error)

	// FindByTaxID looks up a party by normalized tax id. The placeholder
	// party is never returned.
	FindByTaxID(ctx context.Context, taxID string) (*Party, error)

	// Create inserts a new party and returns ErrDuplicate when the tax id
	// is already registered.
	Create(ctx context.Context, cmd CreateCommand) (*Party, error)

	// MergeContact fills contact fields from c, keeping the stored value
	// wherever c leaves a field empty.
	MergeContact(ctx context.Context, id uuid.UUID, c Contact) (*Party, error)

	// Delete removes a party that owns no documents or policy records.
	// The placeholder party and owning parties return ErrInUse.
	Delete(ctx context.Context, id uuid.UUID) error

	// Placeholder returns the sentinel party, creating it on first use.
	Placeholder(ctx context.Context) (*Party, error)
}
