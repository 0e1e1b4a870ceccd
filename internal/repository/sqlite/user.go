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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `u.id, u.email, u.username, u.first_name, u.last_name, u.avatar, u.created_at`

// CreateUser inserts a new user and sets its ID and CreatedAt.
//
// Email and username uniqueness is enforced by the schema. A violation comes
// back as a validation error keyed by the offending field, so two concurrent
// sign-ups with the same email cannot both succeed.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, username, first_name, last_name, avatar, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Avatar,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.username") {
				return apperror.ValidationFailed("username", "a user with that username already exists")
			}
			return apperror.ValidationFailed("email", "a user with that email already exists")
		}
		return fmt.Errorf("sqlite: creating user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id,
	).Scan(userScanTargets(&u)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}

	return &u, nil
}

// GetUserView retrieves a user together with whether viewerID follows them.
// A zero viewerID never matches a follows row, so anonymous viewers always
// see IsSubscribed=false.
func (db *DB) GetUserView(ctx context.Context, id, viewerID int64) (*model.UserView, error) {
	var v model.UserView

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+`,
		        EXISTS (SELECT 1 FROM follows f WHERE f.user_id = ? AND f.author_id = u.id)
		 FROM users u WHERE u.id = ?`,
		viewerID, id,
	).Scan(append(userScanTargets(&v.User), &v.IsSubscribed)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user view %d: %w", id, err)
	}

	return &v, nil
}

// userScanTargets returns Scan destinations in userColumns order.
func userScanTargets(u *model.User) []any {
	return []any{&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.Avatar, &u.CreatedAt}
}
