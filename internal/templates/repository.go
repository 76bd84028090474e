package templates

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/pkg/pagination"
	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a template repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "templates"),
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
) (*pagination.PageResult[Template], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count templates: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	templates, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}

	result := pagination.NewPageResult(templates, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Template, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTemplate)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) Active(ctx context.Context, category extraction.Category) (*Template, error) {
	active := true
	q, args := query.
		NewBuilder(projection).
		WhereEquals("Category", category).
		WhereEquals("Active", &active).
		BuildSingleOrNull()

	t, err := repository.QueryOptional(ctx, r.db, q, args, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("query active template: %w", err)
	}
	return t, nil
}

// Instructions satisfies extraction.Overrides.
func (r *repo) Instructions(ctx context.Context, category string) (string, bool, error) {
	t, err := r.Active(ctx, extraction.Category(category))
	if err != nil {
		return "", false, err
	}
	if t == nil {
		return "", false, nil
	}
	return t.Instructions, true, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Template, error) {
	if err := validate(cmd.Name, cmd.Category, cmd.Instructions); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO templates(name, category, instructions, description)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + returning

	args := []any{cmd.Name, cmd.Category, cmd.Instructions, cmd.Description}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		return repository.QueryOne(ctx, tx, q, args, scanTemplate)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("template created", "id", t.ID, "name", t.Name, "category", t.Category)
	return &t, nil
}

// Update replaces a template's fields. Moving an active template to another
// category deactivates it, since the target category may already have an
// active template.
func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Template, error) {
	if err := validate(cmd.Name, cmd.Category, cmd.Instructions); err != nil {
		return nil, err
	}

	q := `
		UPDATE templates
		SET name = $1, category = $2, instructions = $3, description = $4,
			active = active AND category = $2
		WHERE id = $5
		RETURNING ` + returning

	args := []any{cmd.Name, cmd.Category, cmd.Instructions, cmd.Description, id}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		return repository.QueryOne(ctx, tx, q, args, scanTemplate)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("template updated", "id", t.ID, "name", t.Name)
	return &t, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM templates WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("template deleted", "id", id)
	return nil
}

func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		findQ, findArgs := query.NewBuilder(projection).BuildSingle("ID", id)
		target, err := repository.QueryOne(ctx, tx, findQ, findArgs, scanTemplate)
		if err != nil {
			return Template{}, err
		}

		_, err = tx.ExecContext(
			ctx,
			"UPDATE templates SET active = false WHERE category = $1 AND active = true AND id <> $2",
			target.Category, id,
		)
		if err != nil {
			return Template{}, fmt.Errorf("deactivate current: %w", err)
		}

		activateQ := `
			UPDATE templates SET active = true
			WHERE id = $1
			RETURNING ` + returning

		return repository.QueryOne(ctx, tx, activateQ, []any{id}, scanTemplate)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("template activated", "id", t.ID, "name", t.Name, "category", t.Category)
	return &t, nil
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Template, error) {
	q := `
		UPDATE templates SET active = false
		WHERE id = $1
		RETURNING ` + returning

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		return repository.QueryOne(ctx, tx, q, []any{id}, scanTemplate)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("template deactivated", "id", t.ID, "name", t.Name, "category", t.Category)
	return &t, nil
}
