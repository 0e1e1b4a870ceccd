// Package service contains the business logic layer of the application.
//
//	Handler (HTTP)    → parses requests, writes responses
//	Service           → validates, enforces rules, orchestrates
//	Repository (data) → reads/writes to the database
//
// Services take repository interfaces, never *sqlite.DB, so tests can pass
// either an in-memory database or a hand-written fake.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// Limits bounds the numeric fields of a recipe payload. Both ends are
// inclusive.
type Limits struct {
	MinCookingTime      int
	MaxCookingTime      int
	MinIngredientAmount int
	MaxIngredientAmount int
}

func DefaultLimits() Limits {
	return Limits{
		MinCookingTime:      1,
		MaxCookingTime:      32000,
		MinIngredientAmount: 1,
		MaxIngredientAmount: 32000,
	}
}

// RecipeInput is the create/update payload. Update takes the same shape and
// replaces every field, so clients must resend tags and ingredients.
type RecipeInput struct {
	Name        string                   `json:"name" validate:"required,max=256"`
	Text        string                   `json:"text" validate:"required"`
	CookingTime int                      `json:"cooking_time"`
	Image       string                   `json:"image" validate:"required"`
	Tags        []int64                  `json:"tags" validate:"required,min=1"`
	Ingredients []model.IngredientAmount `json:"ingredients" validate:"required,min=1"`
}

// RecipeService composes recipes with their ingredient amounts and tags.
type RecipeService struct {
	recipes     repository.RecipeRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	limits      Limits
	logger      *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	limits Limits,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		limits:      limits,
		logger:      logger,
	}
}

// Create validates the payload and writes the recipe, its ingredient amounts
// and its tags in one transaction. It returns the recipe as the author sees it.
func (s *RecipeService) Create(ctx context.Context, authorID int64, in RecipeInput) (*model.RecipeView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       in.Image,
	}
	if err := s.recipes.CreateRecipe(ctx, recipe, in.Tags, in.Ingredients); err != nil {
		s.logger.Error("failed to create recipe",
			slog.Int64("author_id", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating recipe: %w", err)
	}

	s.logger.Info("recipe created",
		slog.Int64("id", recipe.ID),
		slog.Int64("author_id", authorID),
		slog.Int("ingredients", len(in.Ingredients)),
	)

	return s.recipes.GetRecipeView(ctx, recipe.ID, authorID)
}

// Update replaces every field of the recipe. Only its author may do so.
func (s *RecipeService) Update(ctx context.Context, recipeID, actorID int64, in RecipeInput) (*model.RecipeView, error) {
	recipe, err := s.ownedRecipe(ctx, recipeID, actorID)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	recipe.Name = in.Name
	recipe.Text = in.Text
	recipe.CookingTime = in.CookingTime
	recipe.Image = in.Image
	if err := s.recipes.UpdateRecipe(ctx, recipe, in.Tags, in.Ingredients); err != nil {
		s.logger.Error("failed to update recipe",
			slog.Int64("id", recipeID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating recipe %d: %w", recipeID, err)
	}

	s.logger.Info("recipe updated", slog.Int64("id", recipeID))
	return s.recipes.GetRecipeView(ctx, recipeID, actorID)
}

// Get returns the recipe as seen by viewerID (zero for anonymous).
func (s *RecipeService) Get(ctx context.Context, recipeID, viewerID int64) (*model.RecipeView, error) {
	return s.recipes.GetRecipeView(ctx, recipeID, viewerID)
}

// GetBrief returns the short form of a recipe. Used by the short-link
// endpoints to confirm the recipe exists.
func (s *RecipeService) GetBrief(ctx context.Context, recipeID int64) (*model.RecipeBrief, error) {
	return s.recipes.GetRecipeBrief(ctx, recipeID)
}

func (s *RecipeService) List(ctx context.Context, filter repository.RecipeFilter) (*model.Page[model.RecipeView], error) {
	views, total, err := s.recipes.ListRecipeViews(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return &model.Page[model.RecipeView]{Count: total, Results: views}, nil
}

// Delete removes a recipe. Only its author may do so; favorites and
// shopping-list entries referring to it are removed with it.
func (s *RecipeService) Delete(ctx context.Context, recipeID, actorID int64) error {
	if _, err := s.ownedRecipe(ctx, recipeID, actorID); err != nil {
		return err
	}

	if err := s.recipes.DeleteRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("deleting recipe %d: %w", recipeID, err)
	}

	s.logger.Info("recipe deleted", slog.Int64("id", recipeID))
	return nil
}

func (s *RecipeService) ownedRecipe(ctx context.Context, recipeID, actorID int64) (*model.Recipe, error) {
	recipe, err := s.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actorID {
		return nil, apperror.Forbidden("only the author can change this recipe")
	}
	return recipe, nil
}

// validate checks the payload shape, the numeric limits and that every
// referenced tag and ingredient exists. Missing ids are reported all at
// once, sorted, rather than stopping at the first.
func (s *RecipeService) validate(ctx context.Context, in RecipeInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}

	if in.CookingTime < s.limits.MinCookingTime || in.CookingTime > s.limits.MaxCookingTime {
		return apperror.ValidationFailed("cooking_time", fmt.Sprintf(
			"cooking time must be between %d and %d", s.limits.MinCookingTime, s.limits.MaxCookingTime))
	}

	if hasDuplicates(in.Tags) {
		return apperror.ValidationFailed("tags", "tags must not repeat")
	}

	ingredientIDs := make([]int64, len(in.Ingredients))
	for i, item := range in.Ingredients {
		if item.Amount < s.limits.MinIngredientAmount || item.Amount > s.limits.MaxIngredientAmount {
			return apperror.ValidationFailed("ingredients", fmt.Sprintf(
				"amount of ingredient %d must be between %d and %d",
				item.IngredientID, s.limits.MinIngredientAmount, s.limits.MaxIngredientAmount))
		}
		ingredientIDs[i] = item.IngredientID
	}
	if hasDuplicates(ingredientIDs) {
		return apperror.ValidationFailed("ingredients", "ingredients must not repeat")
	}

	missingTags, err := s.tags.MissingTagIDs(ctx, in.Tags)
	if err != nil {
		return fmt.Errorf("checking tags: %w", err)
	}
	if len(missingTags) > 0 {
		return apperror.ValidationFailed("tags", "tags do not exist: "+joinIDs(missingTags))
	}

	missingIngredients, err := s.ingredients.MissingIngredientIDs(ctx, ingredientIDs)
	if err != nil {
		return fmt.Errorf("checking ingredients: %w", err)
	}
	if len(missingIngredients) > 0 {
		return apperror.ValidationFailed("ingredients", "ingredients do not exist: "+joinIDs(missingIngredients))
	}
	return nil
}

func hasDuplicates(ids []int64) bool {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// joinIDs renders ids sorted ascending, comma separated.
func joinIDs(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
