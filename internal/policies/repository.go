package policies

import (
	"context"
	"database/sql"
	"encoding/json"
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

// New creates a policy repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "policies"),
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
) (*pagination.PageResult[Policy], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "numero_apolice", "segurado_nome", "seguradora_nome", "veiculo_placa")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count policies: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Policy, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrPersistenceConflict)
	}
	return &p, nil
}

func (r *repo) FindByDocument(ctx context.Context, documentID uuid.UUID) (*Policy, error) {
	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", documentID)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrPersistenceConflict)
	}
	return &p, nil
}

func (r *repo) Upsert(ctx context.Context, cmd UpsertCommand) (*Policy, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}

	extra, err := json.Marshal(cmd.Extra)
	if err != nil {
		return nil, fmt.Errorf("%w: extra: %w", ErrValidation, err)
	}
	if len(cmd.Extra) == 0 {
		extra = []byte("{}")
	}

	args := []any{cmd.DocumentID, cmd.PartyID, cmd.PartyKind, cmd.Category, string(extra)}
	args = append(args, fieldValues(cmd.Fields)...)

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (uuid.UUID, error) {
		var id uuid.UUID
		if err := tx.QueryRowContext(ctx, upsertSQL, args...).Scan(&id); err != nil {
			return uuid.Nil, err
		}
		return id, nil
	})

	switch {
	case err == nil:
	case repository.IsForeignKeyViolation(err):
		return nil, fmt.Errorf("%w (%s): %w", ErrPersistenceConflict, repository.Constraint(err), err)
	case repository.IsConstraintViolation(err):
		return nil, fmt.Errorf("%w (%s): %w", ErrValidation, repository.Constraint(err), err)
	default:
		return nil, fmt.Errorf("upsert policy: %w", repository.MapError(err, ErrNotFound, ErrPersistenceConflict))
	}

	r.logger.Info("policy record upserted",
		"id", id,
		"document_id", cmd.DocumentID,
		"party_id", cmd.PartyID,
		"numero_apolice", *cmd.Fields.NumeroApolice,
	)
	return r.Find(ctx, id)
}

func validate(cmd UpsertCommand) error {
	if cmd.DocumentID == uuid.Nil || cmd.PartyID == uuid.Nil {
		return fmt.Errorf("%w: document and party are required", ErrValidation)
	}
	if !cmd.Category.RecordBearing() {
		return fmt.Errorf("%w: category %q does not produce policy records", ErrValidation, cmd.Category)
	}
	if cmd.Fields == nil || cmd.Fields.NumeroApolice == nil || strings.TrimSpace(*cmd.Fields.NumeroApolice) == "" {
		return fmt.Errorf("%w: numero_apolice is required", ErrValidation)
	}
	return nil
}

var upsertSQL = buildUpsert()

// buildUpsert renders the insert-or-replace statement keyed on document_id.
// Every mapped column is overwritten on conflict, so fields absent from a
// repeat confirmation become NULL.
func buildUpsert() string {
	fixed := []string{"document_id", "party_id", "party_kind", "category", "extra"}
	cols := append(fixed, Columns()...)

	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	params[4] = "$5::jsonb"

	set := make([]string, 0, len(cols))
	for _, c := range cols[1:] {
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	set = append(set, "updated_at = NOW()")

	return fmt.Sprintf(`
		INSERT INTO auto_policies (%s)
		VALUES (%s)
		ON CONFLICT (document_id) DO UPDATE SET
			%s
		RETURNING id`,
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
		strings.Join(set, ",\n\t\t\t"),
	)
}
