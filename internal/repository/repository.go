// Package repository declares the storage contracts the services depend on.
//
// Every contract is satisfied by *sqlite.DB. Services only ever see these
// interfaces, so tests can swap in fakes where a real database would make a
// scenario (like a racing insert) impossible to reproduce.
package repository

import (
	"context"

	"github.com/sakif/foodgram/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// RecipeFilter narrows ListRecipeViews. Zero values mean "no filter".
// FavoritedOnly and InShoppingCartOnly are relative to ViewerID and are
// ignored when ViewerID is zero.
type RecipeFilter struct {
	ListOptions
	ViewerID           int64
	AuthorID           int64
	FavoritedOnly      bool
	InShoppingCartOnly bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserView(ctx context.Context, id, viewerID int64) (*model.UserView, error)
}

type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTag(ctx context.Context, id int64) (*model.Tag, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
	MissingTagIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type IngredientRepository interface {
	// CreateIngredient inserts the ingredient unless an identical
	// (name, unit) pair is already stored. created reports whether a row
	// was added; either way ingredient.ID is set.
	CreateIngredient(ctx context.Context, ingredient *model.Ingredient) (created bool, err error)
	GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
	MissingIngredientIDs(ctx context.Context, ids []int64) ([]int64, error)
	DeleteIngredient(ctx context.Context, id int64) error
}

type RecipeRepository interface {
	// CreateRecipe and UpdateRecipe write the recipe row, its ingredient
	// amounts and its tag links as one transaction.
	CreateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []int64, items []model.IngredientAmount) error
	UpdateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []int64, items []model.IngredientAmount) error
	GetRecipe(ctx context.Context, id int64) (*model.Recipe, error)
	GetRecipeView(ctx context.Context, id, viewerID int64) (*model.RecipeView, error)
	ListRecipeViews(ctx context.Context, filter RecipeFilter) ([]model.RecipeView, int, error)
	DeleteRecipe(ctx context.Context, id int64) error
	GetRecipeBrief(ctx context.Context, id int64) (*model.RecipeBrief, error)
	CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error)
	ListRecipeBriefsByAuthor(ctx context.Context, authorID int64, limit int) ([]model.RecipeBrief, error)
}

// RelationRepository stores favorites, shopping-list entries and follows.
// objectID is a recipe id for favorite/shopping_cart and a user id for follow.
type RelationRepository interface {
	RelationExists(ctx context.Context, kind model.RelationKind, userID, objectID int64) (bool, error)
	// AddRelation returns an apperror.ErrConflict error when the pair
	// already exists, as reported by the unique constraint.
	AddRelation(ctx context.Context, kind model.RelationKind, userID, objectID int64) error
	// RemoveRelation reports whether a row was actually deleted.
	RemoveRelation(ctx context.Context, kind model.RelationKind, userID, objectID int64) (bool, error)
}

type SubscriptionRepository interface {
	// ListFollowedAuthors returns the authors userID follows, newest follow
	// first, plus the total count.
	ListFollowedAuthors(ctx context.Context, userID int64, opts ListOptions) ([]model.User, int, error)
}

type ShoppingListRepository interface {
	// ShoppingListTotals sums ingredient amounts over every recipe in the
	// user's shopping list, grouped by (name, measurement unit).
	ShoppingListTotals(ctx context.Context, userID int64) ([]model.ShoppingItem, error)
}
