// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// All integrity rules the services rely on are declared in the schema, not
// re-derived in Go:
//   - UNIQUE on every relation pair, on tag name/slug, on user email/username
//     (ingredients are the exception: a repeated name and unit is allowed, and
//     CreateIngredient reuses the lowest id instead of adding another row)
//   - ON DELETE CASCADE from recipes to recipe_ingredients, recipe_tags and
//     the favorite/shopping-list relations
//   - ON DELETE RESTRICT from ingredients to recipe_ingredients
//   - CHECK (user_id <> author_id) on follows
//
// Driver errors caused by these constraints are classified in errors.go and
// turned into apperror values by the individual repository methods.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the pure-Go "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// querier is the subset of *sql.DB and *sql.Tx the read helpers need, so the
// same code can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/foodgram.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so in-memory stores are pinned to a single connection.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The DSN pragma covers
	// connections opened later by the pool; this covers the current one.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// dsn appends the per-connection pragmas understood by modernc.org/sqlite.
// File databases also get WAL and IMMEDIATE transactions so two writers
// queue on the lock instead of failing with SQLITE_BUSY on upgrade.
func dsn(dbPath string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
	}
	if !isMemory(dbPath) {
		params = append(params, "_pragma=journal_mode(WAL)", "_txlock=immediate")
	}
	return dbPath + "?" + strings.Join(params, "&")
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// withTx runs fn inside a transaction. The transaction commits only if fn
// returns nil; any error rolls back every statement fn executed.
//
// WHY A CALLBACK?
// Begin, Rollback and Commit have to pair up on every return path. Writing
// them out in each repository method makes it easy to forget a Rollback
// on one early return and leak a connection holding the write lock. With a
// callback the method only writes the statements:
//
//	err := db.withTx(ctx, func(tx *sql.Tx) error {
//	    if _, err := tx.ExecContext(ctx, "INSERT ..."); err != nil {
//	        return err // rolled back
//	    }
//	    return nil // committed
//	})
//
// fn receives the *sql.Tx, which also satisfies querier, so the read
// helpers can run on either the pool or the open transaction.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				email      TEXT NOT NULL UNIQUE,
				username   TEXT NOT NULL UNIQUE,
				first_name TEXT NOT NULL,
				last_name  TEXT NOT NULL,
				avatar     TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL
			);`},
		{"tags", `
			CREATE TABLE IF NOT EXISTS tags (
				id   INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				slug TEXT NOT NULL UNIQUE
			);`},
		{"ingredients", `
			CREATE TABLE IF NOT EXISTS ingredients (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				name             TEXT NOT NULL,
				measurement_unit TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name, measurement_unit);`},
		{"recipes", `
			CREATE TABLE IF NOT EXISTS recipes (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				author_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name         TEXT NOT NULL,
				text         TEXT NOT NULL,
				cooking_time INTEGER NOT NULL CHECK (cooking_time > 0),
				image        TEXT NOT NULL,
				created_at   DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_recipes_author_id ON recipes(author_id);`},
		{"recipe_ingredients", `
			CREATE TABLE IF NOT EXISTS recipe_ingredients (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				recipe_id     INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				ingredient_id INTEGER NOT NULL REFERENCES ingredients(id) ON DELETE RESTRICT,
				amount        INTEGER NOT NULL CHECK (amount > 0),
				UNIQUE (recipe_id, ingredient_id)
			);
			CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_ingredient_id
				ON recipe_ingredients(ingredient_id);`},
		{"recipe_tags", `
			CREATE TABLE IF NOT EXISTS recipe_tags (
				recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				tag_id    INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (recipe_id, tag_id)
			);`},
		{"favorites", `
			CREATE TABLE IF NOT EXISTS favorites (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id  INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				UNIQUE (user_id, recipe_id)
			);`},
		{"shopping_cart", `
			CREATE TABLE IF NOT EXISTS shopping_cart (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id  INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				UNIQUE (user_id, recipe_id)
			);`},
		{"follows", `
			CREATE TABLE IF NOT EXISTS follows (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				author_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				UNIQUE (user_id, author_id),
				CHECK (user_id <> author_id)
			);
			CREATE INDEX IF NOT EXISTS idx_follows_author_id ON follows(author_id);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts ids to the []any that ExecContext/QueryContext expect.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
