// Package cli defines the foodgram command tree: serve plus the operator
// commands that seed and maintain the database.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/foodgram/internal/config"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/server"
)

// RootOptions holds the global flags and what PersistentPreRunE derives
// from them.
type RootOptions struct {
	ConfigPath string

	cfg    *config.Config
	logger *slog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "foodgram",
		Short:         "Recipe sharing backend",
		Long:          "foodgram serves the recipe API and provides operator commands for seeding its database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger, err = newLogger(cfg.Log, cmd.ErrOrStderr())
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewLoadIngredientsCommand(opts))
	cmd.AddCommand(NewDeleteIngredientCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewCreateTagCommand(opts))
	cmd.AddCommand(NewIssueTokenCommand(opts))

	return cmd
}

// Execute runs the command tree and reports the error on stderr.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// openStore opens the configured database, creating its directory when
// needed, and wires the services over it. The caller closes the DB.
func (o *RootOptions) openStore() (*sqliteRepo.DB, *server.Services, error) {
	if err := ensureDBDir(o.cfg.Database.Path); err != nil {
		return nil, nil, err
	}

	tokens, err := server.NewTokenService(o.cfg.Auth, o.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(o.cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return db, server.NewServices(db, tokens, server.RecipeLimits(o.cfg.Recipe), o.logger), nil
}

func ensureDBDir(dbPath string) error {
	if dbPath == ":memory:" || dbPath == "" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
