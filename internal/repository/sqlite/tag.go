package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.TagRepository = (*DB)(nil)

// CreateTag inserts a tag. Duplicate names or slugs are rejected by the
// schema and reported as validation errors on the matching field.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (name, slug) VALUES (?, ?)`, tag.Name, tag.Slug,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "tags.slug") {
				return apperror.ValidationFailed("slug", "a tag with that slug already exists")
			}
			return apperror.ValidationFailed("name", "a tag with that name already exists")
		}
		return fmt.Errorf("sqlite: creating tag %q: %w", tag.Slug, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new tag id: %w", err)
	}
	tag.ID = id
	return nil
}

func (db *DB) GetTag(ctx context.Context, id int64) (*model.Tag, error) {
	var t model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %d: %w", id, err)
	}
	return &t, nil
}

// ListTags returns every tag ordered by name. Tags are a small reference
// table, so the list is not paginated.
func (db *DB) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tag rows: %w", err)
	}
	return tags, nil
}

func (db *DB) MissingTagIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, db.conn, "tags", ids)
}

// missingIDs returns the ids from the input that have no row in table,
// sorted ascending and without duplicates. table is always a constant
// supplied by this package.
func missingIDs(ctx context.Context, q querier, table string, ids []int64) ([]int64, error) {
	wanted := slices.Clone(ids)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)
	if len(wanted) == 0 {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id IN (%s)`, table, placeholders(len(wanted))),
		int64Args(wanted)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking %s ids: %w", table, err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(wanted))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s id: %w", table, err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s ids: %w", table, err)
	}

	var missing []int64
	for _, id := range wanted {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
