package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.RecipeRepository = (*DB)(nil)

const (
	defaultPageSize = 6
	maxPageSize     = 100
)

// normalize clamps pagination options the same way for every list query.
func normalize(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// CreateRecipe writes the recipe row, its ingredient amounts and its tag
// links in one transaction and sets recipe.ID and recipe.CreatedAt.
//
// Callers validate references beforehand; the foreign keys are the backstop
// for an ingredient or tag deleted between that check and this write. Any
// failure rolls back the recipe row along with everything else.
func (db *DB) CreateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []int64, items []model.IngredientAmount) error {
	createdAt := time.Now().UTC()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (author_id, name, text, cooking_time, image, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			recipe.AuthorID,
			recipe.Name,
			recipe.Text,
			recipe.CookingTime,
			recipe.Image,
			createdAt,
		)
		if err != nil {
			return recipeWriteError("inserting recipe", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new recipe id: %w", err)
		}

		if err := insertRecipeLinks(ctx, tx, id, tagIDs, items); err != nil {
			return err
		}

		recipe.ID = id
		return nil
	})
	if err != nil {
		return err
	}

	recipe.CreatedAt = createdAt
	return nil
}

// UpdateRecipe overwrites the recipe columns and replaces the full
// ingredient and tag sets. Entries missing from the new lists are removed.
func (db *DB) UpdateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []int64, items []model.IngredientAmount) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, text = ?, cooking_time = ?, image = ?
			 WHERE id = ?`,
			recipe.Name,
			recipe.Text,
			recipe.CookingTime,
			recipe.Image,
			recipe.ID,
		)
		if err != nil {
			return recipeWriteError(fmt.Sprintf("updating recipe %d", recipe.ID), err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("recipe", recipe.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
			return fmt.Errorf("sqlite: clearing ingredients of recipe %d: %w", recipe.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
			return fmt.Errorf("sqlite: clearing tags of recipe %d: %w", recipe.ID, err)
		}

		return insertRecipeLinks(ctx, tx, recipe.ID, tagIDs, items)
	})
}

// insertRecipeLinks bulk-inserts the ingredient amounts and tag links of
// one recipe using multi-row VALUES lists.
func insertRecipeLinks(ctx context.Context, tx *sql.Tx, recipeID int64, tagIDs []int64, items []model.IngredientAmount) error {
	if len(items) > 0 {
		values := make([]string, 0, len(items))
		args := make([]any, 0, 3*len(items))
		for _, item := range items {
			values = append(values, "(?, ?, ?)")
			args = append(args, recipeID, item.IngredientID, item.Amount)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES `+strings.Join(values, ", "),
			args...,
		)
		if err != nil {
			return recipeWriteError("inserting recipe ingredients", err)
		}
	}

	if len(tagIDs) > 0 {
		values := make([]string, 0, len(tagIDs))
		args := make([]any, 0, 2*len(tagIDs))
		for _, tagID := range tagIDs {
			values = append(values, "(?, ?)")
			args = append(args, recipeID, tagID)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES `+strings.Join(values, ", "),
			args...,
		)
		if err != nil {
			return recipeWriteError("inserting recipe tags", err)
		}
	}
	return nil
}

// recipeWriteError turns constraint failures during a recipe write into
// validation errors and wraps everything else.
func recipeWriteError(op string, err error) error {
	switch classifyConstraint(err) {
	case constraintForeignKey:
		return apperror.ValidationFailed("", "recipe references a user, tag or ingredient that does not exist")
	case constraintUnique:
		return apperror.ValidationFailed("", "recipe contains duplicate ingredients or tags")
	case constraintCheck:
		return apperror.ValidationFailed("", "recipe contains an out-of-range value")
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

// GetRecipe returns the bare recipe row. Used for ownership checks.
func (db *DB) GetRecipe(ctx context.Context, id int64) (*model.Recipe, error) {
	var r model.Recipe
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, author_id, name, text, cooking_time, image, created_at
		 FROM recipes WHERE id = ?`, id,
	).Scan(&r.ID, &r.AuthorID, &r.Name, &r.Text, &r.CookingTime, &r.Image, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %d: %w", id, err)
	}
	return &r, nil
}

// recipeViewSelect selects one recipe row joined with its author plus the
// three viewer-relative flags. The first three placeholders are the viewer id.
const recipeViewSelect = `
	SELECT r.id, r.name, r.text, r.image, r.cooking_time,
	       ` + userColumns + `,
	       EXISTS (SELECT 1 FROM follows f WHERE f.user_id = ? AND f.author_id = u.id),
	       EXISTS (SELECT 1 FROM favorites fv WHERE fv.user_id = ? AND fv.recipe_id = r.id),
	       EXISTS (SELECT 1 FROM shopping_cart sc WHERE sc.user_id = ? AND sc.recipe_id = r.id)
	FROM recipes r
	JOIN users u ON u.id = r.author_id`

func scanRecipeView(scan func(dest ...any) error) (model.RecipeView, error) {
	var v model.RecipeView
	dest := []any{&v.ID, &v.Name, &v.Text, &v.Image, &v.CookingTime}
	dest = append(dest, userScanTargets(&v.Author.User)...)
	dest = append(dest, &v.Author.IsSubscribed, &v.IsFavorited, &v.IsInShoppingCart)
	err := scan(dest...)
	return v, err
}

// GetRecipeView returns the fully materialized recipe as seen by viewerID.
func (db *DB) GetRecipeView(ctx context.Context, id, viewerID int64) (*model.RecipeView, error) {
	row := db.conn.QueryRowContext(ctx,
		recipeViewSelect+` WHERE r.id = ?`,
		viewerID, viewerID, viewerID, id,
	)
	v, err := scanRecipeView(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe view %d: %w", id, err)
	}

	views := []model.RecipeView{v}
	if err := db.attachRecipeDetails(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipeViews returns one page of recipes, newest first, and the total
// number of recipes matching the filter.
func (db *DB) ListRecipeViews(ctx context.Context, filter repository.RecipeFilter) ([]model.RecipeView, int, error) {
	limit, offset := normalize(filter.ListOptions)

	var (
		where []string
		args  []any
	)
	if filter.AuthorID != 0 {
		where = append(where, "r.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.ViewerID != 0 && filter.FavoritedOnly {
		where = append(where, "EXISTS (SELECT 1 FROM favorites w WHERE w.user_id = ? AND w.recipe_id = r.id)")
		args = append(args, filter.ViewerID)
	}
	if filter.ViewerID != 0 && filter.InShoppingCartOnly {
		where = append(where, "EXISTS (SELECT 1 FROM shopping_cart w WHERE w.user_id = ? AND w.recipe_id = r.id)")
		args = append(args, filter.ViewerID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting recipes: %w", err)
	}

	pageArgs := append([]any{filter.ViewerID, filter.ViewerID, filter.ViewerID}, args...)
	pageArgs = append(pageArgs, limit, offset)
	rows, err := db.conn.QueryContext(ctx,
		recipeViewSelect+clause+` ORDER BY r.id DESC LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	views := make([]model.RecipeView, 0, limit)
	for rows.Next() {
		v, err := scanRecipeView(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating recipe rows: %w", err)
	}
	// Release the connection before the detail queries; in-memory
	// databases only have one.
	rows.Close()

	if err := db.attachRecipeDetails(ctx, views); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// attachRecipeDetails fills Tags and Ingredients for every view with two
// queries, regardless of how many recipes are in the page.
func (db *DB) attachRecipeDetails(ctx context.Context, views []model.RecipeView) error {
	if len(views) == 0 {
		return nil
	}

	index := make(map[int64]int, len(views))
	ids := make([]int64, len(views))
	for i := range views {
		views[i].Tags = make([]model.Tag, 0)
		views[i].Ingredients = make([]model.RecipeIngredient, 0)
		index[views[i].ID] = i
		ids[i] = views[i].ID
	}
	in := placeholders(len(ids))

	tagRows, err := db.conn.QueryContext(ctx,
		`SELECT rt.recipe_id, t.id, t.name, t.slug
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id IN (`+in+`)
		 ORDER BY t.name`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe tags: %w", err)
	}
	for tagRows.Next() {
		var (
			recipeID int64
			t        model.Tag
		)
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Slug); err != nil {
			tagRows.Close()
			return fmt.Errorf("sqlite: scanning recipe tag: %w", err)
		}
		i := index[recipeID]
		views[i].Tags = append(views[i].Tags, t)
	}
	err = tagRows.Err()
	tagRows.Close()
	if err != nil {
		return fmt.Errorf("sqlite: iterating recipe tags: %w", err)
	}

	ingRows, err := db.conn.QueryContext(ctx,
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id IN (`+in+`)
		 ORDER BY ri.id`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var (
			recipeID int64
			ri       model.RecipeIngredient
		)
		if err := ingRows.Scan(&recipeID, &ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return fmt.Errorf("sqlite: scanning recipe ingredient: %w", err)
		}
		i := index[recipeID]
		views[i].Ingredients = append(views[i].Ingredients, ri)
	}
	if err := ingRows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating recipe ingredients: %w", err)
	}
	return nil
}

// DeleteRecipe removes a recipe. Ingredient amounts, tag links, favorites
// and shopping-list entries go with it through ON DELETE CASCADE.
func (db *DB) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

func (db *DB) GetRecipeBrief(ctx context.Context, id int64) (*model.RecipeBrief, error) {
	var b model.RecipeBrief
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, image, cooking_time FROM recipes WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Image, &b.CookingTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe brief %d: %w", id, err)
	}
	return &b, nil
}

func (db *DB) CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting recipes of author %d: %w", authorID, err)
	}
	return n, nil
}

// ListRecipeBriefsByAuthor returns at most limit of the author's newest
// recipes. limit zero yields an empty preview.
func (db *DB) ListRecipeBriefsByAuthor(ctx context.Context, authorID int64, limit int) ([]model.RecipeBrief, error) {
	briefs := make([]model.RecipeBrief, 0)
	if limit <= 0 {
		return briefs, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, image, cooking_time FROM recipes
		 WHERE author_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		authorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes of author %d: %w", authorID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b model.RecipeBrief
		if err := rows.Scan(&b.ID, &b.Name, &b.Image, &b.CookingTime); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipe briefs: %w", err)
	}
	return briefs, nil
}
