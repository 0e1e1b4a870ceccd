package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// Operation is the direction of a relation toggle.
type Operation int

const (
	OpAdd Operation = iota + 1
	OpRemove
)

func (op Operation) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// Relation describes one binary user relation for the toggle engine.
// T is the object the relation points at, as returned on ADD.
type Relation[T any] struct {
	Kind model.RelationKind

	// ExistsMessage builds the conflict message for an ADD of a pair that
	// is already stored.
	ExistsMessage func(obj *T) string
	// MissingMessage is the conflict message for a REMOVE of an absent pair.
	MissingMessage string

	// Check runs before anything is read. Optional.
	Check func(userID, objectID int64) error
	// Resolve loads the target object and returns apperror.ErrNotFound
	// when it does not exist.
	Resolve func(ctx context.Context, objectID int64) (*T, error)
	// Materialize completes obj after a successful ADD. Optional.
	Materialize func(ctx context.Context, userID int64, obj *T) error
}

// Toggle applies ADD/REMOVE for a single relation kind.
type Toggle[T any] struct {
	repo   repository.RelationRepository
	rel    Relation[T]
	logger *slog.Logger
}

func NewToggle[T any](repo repository.RelationRepository, rel Relation[T], logger *slog.Logger) *Toggle[T] {
	return &Toggle[T]{repo: repo, rel: rel, logger: logger}
}

// Apply runs op for the (userID, objectID) pair.
//
// Neither direction is silently idempotent: adding a stored pair and removing
// an absent one both fail with apperror.ErrConflict. The existence check and
// the write are not atomic, so the storage layer's unique constraint settles
// concurrent ADDs and a zero-row delete settles concurrent REMOVEs. Either
// way the loser gets the same Conflict it would have seen sequentially.
//
// On success ADD returns the (materialized) object and REMOVE returns nil.
// If Materialize fails the stored pair is removed again before the error is
// returned.
func (t *Toggle[T]) Apply(ctx context.Context, userID, objectID int64, op Operation) (*T, error) {
	if op != OpAdd && op != OpRemove {
		return nil, fmt.Errorf("%s: unsupported operation %v", t.rel.Kind, op)
	}

	if t.rel.Check != nil {
		if err := t.rel.Check(userID, objectID); err != nil {
			return nil, err
		}
	}

	obj, err := t.rel.Resolve(ctx, objectID)
	if err != nil {
		return nil, err
	}

	exists, err := t.repo.RelationExists(ctx, t.rel.Kind, userID, objectID)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", t.rel.Kind, err)
	}

	if op == OpRemove {
		return nil, t.remove(ctx, userID, objectID, exists)
	}

	if exists {
		return nil, apperror.Conflict(t.rel.ExistsMessage(obj))
	}

	if err := t.repo.AddRelation(ctx, t.rel.Kind, userID, objectID); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict(t.rel.ExistsMessage(obj))
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		t.logger.Error("failed to add relation",
			slog.String("kind", string(t.rel.Kind)),
			slog.Int64("user_id", userID),
			slog.Int64("object_id", objectID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding %s: %w", t.rel.Kind, err)
	}

	t.logger.Info("relation added",
		slog.String("kind", string(t.rel.Kind)),
		slog.Int64("user_id", userID),
		slog.Int64("object_id", objectID),
	)

	if t.rel.Materialize != nil {
		if err := t.rel.Materialize(ctx, userID, obj); err != nil {
			t.undoAdd(ctx, userID, objectID, err)
			return nil, fmt.Errorf("materializing %s: %w", t.rel.Kind, err)
		}
	}
	return obj, nil
}

// undoAdd removes a pair whose ADD cannot be reported, so that a retry
// starts from the state the caller believes in.
func (t *Toggle[T]) undoAdd(ctx context.Context, userID, objectID int64, cause error) {
	attrs := []any{
		slog.String("kind", string(t.rel.Kind)),
		slog.Int64("user_id", userID),
		slog.Int64("object_id", objectID),
		slog.String("error", cause.Error()),
	}
	if _, err := t.repo.RemoveRelation(ctx, t.rel.Kind, userID, objectID); err != nil {
		t.logger.Error("relation added but its view failed; rollback failed, the pair is still stored",
			append(attrs, slog.String("rollback_error", err.Error()))...)
		return
	}
	t.logger.Warn("relation add rolled back after its view failed", attrs...)
}

func (t *Toggle[T]) remove(ctx context.Context, userID, objectID int64, exists bool) error {
	if !exists {
		return apperror.Conflict(t.rel.MissingMessage)
	}

	removed, err := t.repo.RemoveRelation(ctx, t.rel.Kind, userID, objectID)
	if err != nil {
		return fmt.Errorf("removing %s: %w", t.rel.Kind, err)
	}
	if !removed {
		// A concurrent REMOVE got there first.
		return apperror.Conflict(t.rel.MissingMessage)
	}

	t.logger.Info("relation removed",
		slog.String("kind", string(t.rel.Kind)),
		slog.Int64("user_id", userID),
		slog.Int64("object_id", objectID),
	)
	return nil
}

// CollectionService manages a per-user set of recipes: favorites or the
// shopping list. Both use the recipe brief as the ADD result.
type CollectionService struct {
	toggle *Toggle[model.RecipeBrief]
}

func NewFavoriteService(relations repository.RelationRepository, recipes repository.RecipeRepository, logger *slog.Logger) *CollectionService {
	return newCollectionService(relations, recipes, model.RelationFavorite,
		"is already in favorites", "recipe is not in favorites", logger)
}

func NewShoppingCartService(relations repository.RelationRepository, recipes repository.RecipeRepository, logger *slog.Logger) *CollectionService {
	return newCollectionService(relations, recipes, model.RelationShoppingCart,
		"is already in the shopping cart", "recipe is not in the shopping cart", logger)
}

func newCollectionService(
	relations repository.RelationRepository,
	recipes repository.RecipeRepository,
	kind model.RelationKind,
	existsSuffix, missing string,
	logger *slog.Logger,
) *CollectionService {
	rel := Relation[model.RecipeBrief]{
		Kind: kind,
		ExistsMessage: func(r *model.RecipeBrief) string {
			return fmt.Sprintf("recipe %q %s", r.Name, existsSuffix)
		},
		MissingMessage: missing,
		Resolve:        recipes.GetRecipeBrief,
	}
	return &CollectionService{toggle: NewToggle(relations, rel, logger)}
}

func (s *CollectionService) Add(ctx context.Context, userID, recipeID int64) (*model.RecipeBrief, error) {
	return s.toggle.Apply(ctx, userID, recipeID, OpAdd)
}

func (s *CollectionService) Remove(ctx context.Context, userID, recipeID int64) error {
	_, err := s.toggle.Apply(ctx, userID, recipeID, OpRemove)
	return err
}
