package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.RelationRepository = (*DB)(nil)

// relationTable maps a relation kind to its storage. All three tables share
// the (user_id, <object>, created_at) shape with UNIQUE (user_id, <object>).
type relationTable struct {
	table  string
	object string
	// resource names the object in NotFound errors.
	resource string
}

var relationTables = map[model.RelationKind]relationTable{
	model.RelationFavorite:     {table: "favorites", object: "recipe_id", resource: "recipe"},
	model.RelationShoppingCart: {table: "shopping_cart", object: "recipe_id", resource: "recipe"},
	model.RelationFollow:       {table: "follows", object: "author_id", resource: "author"},
}

func tableFor(kind model.RelationKind) (relationTable, error) {
	t, ok := relationTables[kind]
	if !ok {
		return relationTable{}, fmt.Errorf("sqlite: unknown relation kind %q", kind)
	}
	return t, nil
}

func (db *DB) RelationExists(ctx context.Context, kind model.RelationKind, userID, objectID int64) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	var exists bool
	err = db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = ? AND %s = ?)`, t.table, t.object),
		userID, objectID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s relation: %w", kind, err)
	}
	return exists, nil
}

// AddRelation inserts the (userID, objectID) pair.
//
// The existence check callers run first can race with another request; the
// UNIQUE constraint is what guarantees a single row. Its violation comes back
// as apperror.ErrConflict so the loser of the race sees the same outcome as a
// plain duplicate add.
func (db *DB) AddRelation(ctx context.Context, kind model.RelationKind, userID, objectID int64) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id, %s, created_at) VALUES (?, ?, ?)`, t.table, t.object),
		userID, objectID, time.Now().UTC(),
	)
	if err != nil {
		switch classifyConstraint(err) {
		case constraintUnique:
			return apperror.Conflict(fmt.Sprintf("%s relation already exists", kind))
		case constraintCheck:
			return apperror.ValidationFailed("", "cannot act on yourself")
		case constraintForeignKey:
			return db.missingRelationSide(ctx, t, userID, objectID)
		}
		return fmt.Errorf("sqlite: adding %s relation: %w", kind, err)
	}
	return nil
}

func (db *DB) RemoveRelation(ctx context.Context, kind model.RelationKind, userID, objectID int64) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND %s = ?`, t.table, t.object),
		userID, objectID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing %s relation: %w", kind, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

// missingRelationSide works out which end of a pair failed the foreign key
// check: the acting user (e.g. deleted after its token was issued) or the
// object.
func (db *DB) missingRelationSide(ctx context.Context, t relationTable, userID, objectID int64) error {
	var userExists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, userID,
	).Scan(&userExists)
	if err != nil {
		return fmt.Errorf("sqlite: checking user %d: %w", userID, err)
	}
	if !userExists {
		return apperror.NotFound("user", userID)
	}
	return apperror.NotFound(t.resource, objectID)
}
