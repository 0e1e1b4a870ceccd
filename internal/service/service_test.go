package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository/sqlite"
)

// newTestLogger discards everything below Error so test output stays quiet.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture is a small seeded catalog shared by most service tests.
type fixture struct {
	db     *sqlite.DB
	author *model.User
	reader *model.User
	tag    *model.Tag
	salt   *model.Ingredient
	flour  *model.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestStore(t)

	f := &fixture{db: db}
	f.author = seedUser(t, db, "author")
	f.reader = seedUser(t, db, "reader")

	f.tag = &model.Tag{Name: "Dinner", Slug: "dinner"}
	require.NoError(t, db.CreateTag(ctx, f.tag))

	f.salt = &model.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	_, err := db.CreateIngredient(ctx, f.salt)
	require.NoError(t, err)
	f.flour = &model.Ingredient{Name: "Flour", MeasurementUnit: "g"}
	_, err = db.CreateIngredient(ctx, f.flour)
	require.NoError(t, err)
	return f
}

func seedUser(t *testing.T, db *sqlite.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Email: username + "@example.com", Username: username, FirstName: "F", LastName: "L"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) recipes() *RecipeService {
	return NewRecipeService(f.db, f.db, f.db, DefaultLimits(), newTestLogger())
}

// input returns a valid payload using the fixture's tag and salt.
func (f *fixture) input(amount int) RecipeInput {
	return RecipeInput{
		Name:        "Salted water",
		Text:        "Dissolve and boil.",
		CookingTime: 5,
		Image:       "recipes/images/water.png",
		Tags:        []int64{f.tag.ID},
		Ingredients: []model.IngredientAmount{{IngredientID: f.salt.ID, Amount: amount}},
	}
}

func (f *fixture) createRecipe(t *testing.T, authorID int64, in RecipeInput) *model.RecipeView {
	t.Helper()
	view, err := f.recipes().Create(context.Background(), authorID, in)
	require.NoError(t, err)
	return view
}
