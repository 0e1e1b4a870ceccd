package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.ShoppingListRepository = (*DB)(nil)

// ShoppingListTotals sums ingredient amounts across every recipe in the
// user's shopping list.
//
// Grouping is by (name, measurement_unit), not ingredient id: two catalog
// rows that share both strings collapse into one line. Ordering by name then
// unit keeps the export byte-for-byte stable.
func (db *DB) ShoppingListTotals(ctx context.Context, userID int64) ([]model.ShoppingItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.name, i.measurement_unit, SUM(ri.amount)
		 FROM shopping_cart sc
		 JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE sc.user_id = ?
		 GROUP BY i.name, i.measurement_unit
		 ORDER BY i.name, i.measurement_unit`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating shopping list of user %d: %w", userID, err)
	}
	defer rows.Close()

	items := make([]model.ShoppingItem, 0)
	for rows.Next() {
		var item model.ShoppingItem
		if err := rows.Scan(&item.Name, &item.MeasurementUnit, &item.Total); err != nil {
			return nil, fmt.Errorf("sqlite: scanning shopping list row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating shopping list rows: %w", err)
	}
	return items, nil
}
