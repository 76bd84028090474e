package parties

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/pkg/pagination"
	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a party repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "parties"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Party], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "DisplayName", "TaxID", "Email")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count parties: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanParty)
	if err != nil {
		return nil, fmt.Errorf("query parties: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) ListWithStats(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[PartyStats], error) {
	listed, err := r.List(ctx, page, filters)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(listed.Data))
	for i, p := range listed.Data {
		ids[i] = p.ID.String()
	}

	counts := make(map[uuid.UUID]Stats, len(ids))
	if len(ids) > 0 {
		rows, err := repository.QueryMany(ctx, r.db, statsSQL, []any{"{" + strings.Join(ids, ",") + "}"}, scanStats)
		if err != nil {
			return nil, fmt.Errorf("count party ownership: %w", err)
		}
		for _, row := range rows {
			counts[row.id] = row.Stats
		}
	}

	items := make([]PartyStats, len(listed.Data))
	for i, p := range listed.Data {
		items[i] = PartyStats{Party: p, Stats: counts[p.ID]}
	}

	result := pagination.NewPageResult(items, listed.Total, listed.Page, listed.PageSize)
	return &result, nil
}

func (r *repo) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	row, err := repository.QueryOne(ctx, r.db, statsSQL, []any{"{" + id.String() + "}"}, scanStats)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &row.Stats, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := `
		DELETE FROM parties p
		WHERE p.id = $1
			AND p.kind <> 'placeholder'
			AND NOT EXISTS (SELECT 1 FROM documents d WHERE d.party_id = p.id)
			AND NOT EXISTS (SELECT 1 FROM auto_policies a WHERE a.party_id = p.id)`

	deleted, err := repository.ExecAffected(ctx, r.db, q, id)
	switch {
	case repository.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %w", ErrInUse, err)
	case err != nil:
		return fmt.Errorf("delete party: %w", err)
	case deleted:
		r.logger.Info("party deleted", "id", id)
		return nil
	}

	p, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	if p.Kind == KindPlaceholder {
		return fmt.Errorf("%w: the placeholder party cannot be deleted", ErrInUse)
	}

	stats, err := r.Stats(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %d documents, %d policy records", ErrInUse, stats.Documents, stats.Policies)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Party, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanParty)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) FindByTaxID(ctx context.Context, taxID string) (*Party, error) {
	normalized := NormalizeTaxID(taxID)
	if normalized == "" {
		return nil, ErrInvalidTaxID
	}

	q, args := query.
		NewBuilder(projection).
		WhereEquals("TaxID", normalized).
		WhereNotEquals("Kind", string(KindPlaceholder)).
		BuildSingleOrNull()

	p, err := repository.QueryOne(ctx, r.db, q, args, scanParty)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Party, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	taxID := NormalizeTaxID(cmd.TaxID)
	kind, ok := KindForTaxID(taxID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTaxID, cmd.TaxID)
	}
	if cmd.Kind != "" && cmd.Kind != kind {
		return nil, fmt.Errorf("%w: %d digits is not a valid %s tax id", ErrInvalidTaxID, len(taxID), cmd.Kind)
	}

	c := cmd.Contact.withoutPlaceholderEmail()

	q := `
		INSERT INTO parties(
			kind, tax_id, display_name, email, phone, address,
			address_number, address_extra, postal_code, city, country
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + returning

	args := []any{
		string(kind), taxID, cmd.DisplayName,
		c.Email, c.Phone, c.Address, c.Number, c.Extra, c.PostalCode, c.City, c.Country,
	}

	args[2] = strings.TrimSpace(cmd.DisplayName)

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Party, error) {
		return repository.QueryOne(ctx, tx, q, args, scanParty)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("party created", "id", p.ID, "kind", p.Kind)
	return &p, nil
}

func (r *repo) MergeContact(ctx context.Context, id uuid.UUID, c Contact) (*Party, error) {
	c = c.withoutPlaceholderEmail()
	if c.Empty() {
		return r.Find(ctx, id)
	}

	q := `
		UPDATE parties SET
			email = COALESCE(NULLIF($2, ''), email),
			phone = COALESCE(NULLIF($3, ''), phone),
			address = COALESCE(NULLIF($4, ''), address),
			address_number = COALESCE(NULLIF($5, ''), address_number),
			address_extra = COALESCE(NULLIF($6, ''), address_extra),
			postal_code = COALESCE(NULLIF($7, ''), postal_code),
			city = COALESCE(NULLIF($8, ''), city),
			country = COALESCE(NULLIF($9, ''), country),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + returning

	args := []any{id, c.Email, c.Phone, c.Address, c.Number, c.Extra, c.PostalCode, c.City, c.Country}

	p, err := repository.QueryOne(ctx, r.db, q, args, scanParty)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("party contact merged", "id", id)
	return &p, nil
}

func (r *repo) Placeholder(ctx context.Context) (*Party, error) {
	sel := `SELECT ` + returning + ` FROM parties WHERE kind = 'placeholder'`

	existing, err := repository.QueryOptional(ctx, r.db, sel, nil, scanParty)
	if err != nil {
		return nil, fmt.Errorf("find placeholder party: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	ins := `
		INSERT INTO parties(kind, display_name)
		VALUES ('placeholder', $1)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, ins, PlaceholderName); err != nil {
		return nil, fmt.Errorf("create placeholder party: %w", err)
	}

	p, err := repository.QueryOne(ctx, r.db, sel, nil, scanParty)
	if err != nil {
		return nil, fmt.Errorf("find placeholder party: %w", err)
	}

	r.logger.Info("placeholder party created", "id", p.ID)
	return &p, nil
}

const returning = `id, kind, tax_id, display_name, email, phone, address,
			address_number, address_extra, postal_code, city, country,
			created_at, updated_at`

// statsSQL counts ownership for the parties whose ids are listed in $1, a
// uuid array literal.
const statsSQL = `
	SELECT p.id,
		(SELECT COUNT(*) FROM documents d WHERE d.party_id = p.id),
		(SELECT COUNT(*) FROM auto_policies a WHERE a.party_id = p.id)
	FROM parties p
	WHERE p.id = ANY($1::uuid[])`
