package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// DefaultRecipesLimit caps the recipe preview in a subscription view when
// the client does not pass recipes_limit.
const DefaultRecipesLimit = 6

// ParseRecipesLimit reads the recipes_limit query value. Empty means the
// default; anything that is not a non-negative integer is rejected.
func ParseRecipesLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultRecipesLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed("recipes_limit", "recipes_limit must be a non-negative integer")
	}
	return n, nil
}

// SubscriptionService manages follows between users.
type SubscriptionService struct {
	relations repository.RelationRepository
	users     repository.UserRepository
	recipes   repository.RecipeRepository
	subs      repository.SubscriptionRepository
	logger    *slog.Logger
}

func NewSubscriptionService(
	relations repository.RelationRepository,
	users repository.UserRepository,
	recipes repository.RecipeRepository,
	subs repository.SubscriptionRepository,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		relations: relations,
		users:     users,
		recipes:   recipes,
		subs:      subs,
		logger:    logger,
	}
}

// toggle builds the follow relation. recipesLimit only affects the view
// returned by ADD.
func (s *SubscriptionService) toggle(recipesLimit int) *Toggle[model.Subscription] {
	return NewToggle(s.relations, Relation[model.Subscription]{
		Kind:           model.RelationFollow,
		ExistsMessage:  func(*model.Subscription) string { return "subscription already exists" },
		MissingMessage: "subscription not found",
		Check: func(userID, authorID int64) error {
			if userID == authorID {
				return apperror.ValidationFailed("", "cannot act on yourself")
			}
			return nil
		},
		Resolve: func(ctx context.Context, authorID int64) (*model.Subscription, error) {
			author, err := s.users.GetUserByID(ctx, authorID)
			if err != nil {
				return nil, err
			}
			return &model.Subscription{UserView: model.UserView{User: *author}}, nil
		},
		Materialize: func(ctx context.Context, _ int64, sub *model.Subscription) error {
			sub.IsSubscribed = true
			return s.fillRecipes(ctx, sub, recipesLimit)
		},
	}, s.logger)
}

// Subscribe makes userID follow authorID and returns the author's
// subscription view.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID int64, recipesLimit int) (*model.Subscription, error) {
	return s.toggle(recipesLimit).Apply(ctx, userID, authorID, OpAdd)
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	_, err := s.toggle(0).Apply(ctx, userID, authorID, OpRemove)
	return err
}

// List returns one page of the authors userID follows, each with a recipe
// preview of at most recipesLimit entries.
func (s *SubscriptionService) List(ctx context.Context, userID int64, opts repository.ListOptions, recipesLimit int) (*model.Page[model.Subscription], error) {
	authors, total, err := s.subs.ListFollowedAuthors(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	results := make([]model.Subscription, 0, len(authors))
	for _, author := range authors {
		sub := model.Subscription{UserView: model.UserView{User: author, IsSubscribed: true}}
		if err := s.fillRecipes(ctx, &sub, recipesLimit); err != nil {
			return nil, err
		}
		results = append(results, sub)
	}
	return &model.Page[model.Subscription]{Count: total, Results: results}, nil
}

func (s *SubscriptionService) fillRecipes(ctx context.Context, sub *model.Subscription, recipesLimit int) error {
	count, err := s.recipes.CountRecipesByAuthor(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("counting recipes of %d: %w", sub.ID, err)
	}
	briefs, err := s.recipes.ListRecipeBriefsByAuthor(ctx, sub.ID, recipesLimit)
	if err != nil {
		return fmt.Errorf("listing recipes of %d: %w", sub.ID, err)
	}
	sub.RecipesCount = count
	sub.Recipes = briefs
	return nil
}
