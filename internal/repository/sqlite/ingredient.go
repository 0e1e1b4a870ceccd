package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.IngredientRepository = (*DB)(nil)

// CreateIngredient works like get-or-create: it looks the (name,
// measurement_unit) pair up and inserts only when no row matches, inside one
// transaction. The pair is not unique in the schema, so rows written by
// other means may repeat it; the lookup then picks the lowest id.
// In both cases ingredient.ID ends up pointing at a stored row.
func (db *DB) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) (bool, error) {
	created := false
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM ingredients WHERE name = ? AND measurement_unit = ?
			 ORDER BY id LIMIT 1`,
			ingredient.Name, ingredient.MeasurementUnit,
		).Scan(&ingredient.ID)
		if err == nil {
			return nil
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("sqlite: looking up ingredient %q: %w", ingredient.Name, err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)`,
			ingredient.Name, ingredient.MeasurementUnit,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating ingredient %q: %w", ingredient.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new ingredient id: %w", err)
		}
		ingredient.ID = id
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (db *DB) GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error) {
	var i model.Ingredient
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id,
	).Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %d: %w", id, err)
	}
	return &i, nil
}

// ListIngredients returns ingredients whose name starts with namePrefix,
// ordered by name. An empty prefix returns the whole catalog.
func (db *DB) ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients
		 WHERE name LIKE ? ESCAPE '\'
		 ORDER BY name, measurement_unit`,
		escapeLike(namePrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := make([]model.Ingredient, 0)
	for rows.Next() {
		var i model.Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		ingredients = append(ingredients, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredient rows: %w", err)
	}
	return ingredients, nil
}

func (db *DB) MissingIngredientIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, db.conn, "ingredients", ids)
}

// DeleteIngredient removes an ingredient that no recipe references.
// The ON DELETE RESTRICT foreign key blocks deletion of ingredients in use.
func (db *DB) DeleteIngredient(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("ingredient is used by at least one recipe")
		}
		return fmt.Errorf("sqlite: deleting ingredient %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("ingredient", id)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
