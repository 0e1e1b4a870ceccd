package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/foodgram/internal/service"
)

// NewLoadIngredientsCommand imports a two-column (name, unit) CSV file.
func NewLoadIngredientsCommand(rootOpts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "load-ingredients",
		Short: "Import ingredients from a CSV file",
		Long: `Import ingredients from a CSV file with one "name,unit" pair per row.

Pairs that already exist are skipped. Malformed rows are counted and
skipped; the import carries on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			db, svc, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := svc.Catalog.ImportIngredients(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added: %d, skipped: %d, errors: %d\n", res.Added, res.Skipped, res.Errors)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "CSV file to import")
	cmd.MarkFlagRequired("path")
	return cmd
}

// NewDeleteIngredientCommand removes an ingredient that no recipe uses.
func NewDeleteIngredientCommand(rootOpts *RootOptions) *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "delete-ingredient",
		Short: "Delete an unused ingredient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := svc.Catalog.DeleteIngredient(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted ingredient %d\n", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "ingredient id")
	cmd.MarkFlagRequired("id")
	return cmd
}

func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	var in service.UserInput

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := svc.Users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Avatar, "avatar", "", "avatar image reference")
	for _, name := range []string{"email", "username", "first-name", "last-name"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func NewCreateTagCommand(rootOpts *RootOptions) *cobra.Command {
	var in service.TagInput

	cmd := &cobra.Command{
		Use:   "create-tag",
		Short: "Create a recipe tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			tag, err := svc.Catalog.CreateTag(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created tag %d (%s)\n", tag.ID, tag.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "URL slug")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("slug")
	return cmd
}

// NewIssueTokenCommand prints a signed bearer token for an existing user.
func NewIssueTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print a bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			token, err := svc.Users.IssueToken(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "id of the user to sign for")
	cmd.MarkFlagRequired("user-id")
	return cmd
}
