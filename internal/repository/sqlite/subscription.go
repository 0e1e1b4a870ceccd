package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.SubscriptionRepository = (*DB)(nil)

// ListFollowedAuthors returns one page of the authors userID follows, most
// recent follow first, along with the total number of follows.
func (db *DB) ListFollowedAuthors(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.User, int, error) {
	limit, offset := normalize(opts)

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting follows of user %d: %w", userID, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+`
		 FROM follows f JOIN users u ON u.id = f.author_id
		 WHERE f.user_id = ?
		 ORDER BY f.id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing follows of user %d: %w", userID, err)
	}
	defer rows.Close()

	authors := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(userScanTargets(&u)...); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning followed author: %w", err)
		}
		authors = append(authors, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating followed authors: %w", err)
	}
	return authors, total, nil
}
