package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
)

// =========================================================================
// FAKE RELATION REPOSITORY
// =========================================================================
//
// WHY FAKES HERE?
// Most service tests run against a real in-memory SQLite store, because the
// schema constraints are part of the behaviour under test. A few paths
// cannot be reached that way: two requests racing between the existence
// check and the write, or the storage layer failing halfway through a
// toggle. Toggle only depends on repository.RelationRepository, so small
// hand-written structs that satisfy that interface can stage exactly
// those situations.
//
// racingRelationRepo simulates another request winning the race between
// the existence check and the write: Exists always reports false, while
// the writes behave as if the other request already committed.

type racingRelationRepo struct {
	addCalls    int
	removeCalls int
}

func (r *racingRelationRepo) RelationExists(context.Context, model.RelationKind, int64, int64) (bool, error) {
	return false, nil
}

func (r *racingRelationRepo) AddRelation(context.Context, model.RelationKind, int64, int64) error {
	r.addCalls++
	return apperror.Conflict("favorite relation already exists")
}

func (r *racingRelationRepo) RemoveRelation(context.Context, model.RelationKind, int64, int64) (bool, error) {
	r.removeCalls++
	return false, nil
}

// existingRelationRepo reports the pair as present, then loses a concurrent
// REMOVE: the delete touches zero rows.
type existingRelationRepo struct{ racingRelationRepo }

func (r *existingRelationRepo) RelationExists(context.Context, model.RelationKind, int64, int64) (bool, error) {
	return true, nil
}

type failingRelationRepo struct{ racingRelationRepo }

func (r *failingRelationRepo) AddRelation(context.Context, model.RelationKind, int64, int64) error {
	return errors.New("disk I/O error")
}

func briefRelation() Relation[model.RecipeBrief] {
	return Relation[model.RecipeBrief]{
		Kind:           model.RelationFavorite,
		ExistsMessage:  func(r *model.RecipeBrief) string { return "recipe " + r.Name + " is already in favorites" },
		MissingMessage: "recipe is not in favorites",
		Resolve: func(_ context.Context, id int64) (*model.RecipeBrief, error) {
			if id != 1 {
				return nil, apperror.NotFound("recipe", id)
			}
			return &model.RecipeBrief{ID: 1, Name: "Soup"}, nil
		},
	}
}

// =========================================================================
// ENGINE TESTS (FAKES)
// =========================================================================

func TestToggle_RacingAddBecomesConflict(t *testing.T) {
	repo := &racingRelationRepo{}
	toggle := NewToggle(repo, briefRelation(), newTestLogger())

	_, err := toggle.Apply(context.Background(), 10, 1, OpAdd)

	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "recipe Soup is already in favorites", err.Error(),
		"the race loser gets the same message as a sequential duplicate")
	assert.Equal(t, 1, repo.addCalls)
}

func TestToggle_RacingRemoveBecomesConflict(t *testing.T) {
	repo := &existingRelationRepo{}
	toggle := NewToggle(repo, briefRelation(), newTestLogger())

	_, err := toggle.Apply(context.Background(), 10, 1, OpRemove)

	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "recipe is not in favorites", err.Error())
	assert.Equal(t, 1, repo.removeCalls)
}

func TestToggle_StorageErrorIsWrapped(t *testing.T) {
	toggle := NewToggle(&failingRelationRepo{}, briefRelation(), newTestLogger())

	_, err := toggle.Apply(context.Background(), 10, 1, OpAdd)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestToggle_ResolveBeforeExistence(t *testing.T) {
	repo := &racingRelationRepo{}
	toggle := NewToggle(repo, briefRelation(), newTestLogger())

	_, err := toggle.Apply(context.Background(), 10, 2, OpAdd)

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, repo.addCalls)
}

func TestToggle_CheckRunsFirst(t *testing.T) {
	rel := briefRelation()
	resolved := false
	rel.Check = func(int64, int64) error { return apperror.ValidationFailed("", "no") }
	rel.Resolve = func(context.Context, int64) (*model.RecipeBrief, error) {
		resolved = true
		return &model.RecipeBrief{}, nil
	}
	toggle := NewToggle(&racingRelationRepo{}, rel, newTestLogger())

	_, err := toggle.Apply(context.Background(), 1, 1, OpAdd)

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.False(t, resolved, "Resolve must not run when Check fails")
}

// memoryRelationRepo stores pairs in a map.
type memoryRelationRepo struct {
	pairs map[[2]int64]bool
}

func newMemoryRelationRepo() *memoryRelationRepo {
	return &memoryRelationRepo{pairs: map[[2]int64]bool{}}
}

func (r *memoryRelationRepo) RelationExists(_ context.Context, _ model.RelationKind, userID, objectID int64) (bool, error) {
	return r.pairs[[2]int64{userID, objectID}], nil
}

func (r *memoryRelationRepo) AddRelation(_ context.Context, _ model.RelationKind, userID, objectID int64) error {
	r.pairs[[2]int64{userID, objectID}] = true
	return nil
}

func (r *memoryRelationRepo) RemoveRelation(_ context.Context, _ model.RelationKind, userID, objectID int64) (bool, error) {
	key := [2]int64{userID, objectID}
	existed := r.pairs[key]
	delete(r.pairs, key)
	return existed, nil
}

func TestToggle_FailedMaterializeUndoesAdd(t *testing.T) {
	repo := newMemoryRelationRepo()
	rel := briefRelation()
	fail := true
	rel.Materialize = func(context.Context, int64, *model.RecipeBrief) error {
		if fail {
			return errors.New("counting recipes: database is locked")
		}
		return nil
	}
	toggle := NewToggle(repo, rel, newTestLogger())
	ctx := context.Background()

	_, err := toggle.Apply(ctx, 10, 1, OpAdd)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrConflict)

	exists, err := repo.RelationExists(ctx, model.RelationFavorite, 10, 1)
	require.NoError(t, err)
	assert.False(t, exists, "the pair must not outlive a failed ADD")

	fail = false
	brief, err := toggle.Apply(ctx, 10, 1, OpAdd)
	require.NoError(t, err, "a retry succeeds instead of conflicting")
	assert.Equal(t, "Soup", brief.Name)
}

func TestToggle_UnknownOperation(t *testing.T) {
	toggle := NewToggle(&racingRelationRepo{}, briefRelation(), newTestLogger())

	_, err := toggle.Apply(context.Background(), 1, 1, Operation(0))
	assert.Error(t, err)
}

// =========================================================================
// COLLECTION TESTS (SQLITE)
// =========================================================================

func TestCollections_AddTwiceConflicts(t *testing.T) {
	tests := []struct {
		name        string
		newService  func(f *fixture) *CollectionService
		wantExists  string
		wantMissing string
	}{
		{
			name: "favorites",
			newService: func(f *fixture) *CollectionService {
				return NewFavoriteService(f.db, f.db, newTestLogger())
			},
			wantExists:  `recipe "Salted water" is already in favorites`,
			wantMissing: "recipe is not in favorites",
		},
		{
			name: "shopping cart",
			newService: func(f *fixture) *CollectionService {
				return NewShoppingCartService(f.db, f.db, newTestLogger())
			},
			wantExists:  `recipe "Salted water" is already in the shopping cart`,
			wantMissing: "recipe is not in the shopping cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			recipe := f.createRecipe(t, f.author.ID, f.input(1))
			svc := tt.newService(f)

			brief, err := svc.Add(ctx, f.reader.ID, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, model.RecipeBrief{
				ID:          recipe.ID,
				Name:        "Salted water",
				Image:       "recipes/images/water.png",
				CookingTime: 5,
			}, *brief)

			_, err = svc.Add(ctx, f.reader.ID, recipe.ID)
			require.ErrorIs(t, err, apperror.ErrConflict)
			assert.Equal(t, tt.wantExists, err.Error())

			require.NoError(t, svc.Remove(ctx, f.reader.ID, recipe.ID))

			err = svc.Remove(ctx, f.reader.ID, recipe.ID)
			require.ErrorIs(t, err, apperror.ErrConflict)
			assert.Equal(t, tt.wantMissing, err.Error())
		})
	}
}

func TestCollections_RemoveWithoutAdd(t *testing.T) {
	f := newFixture(t)
	recipe := f.createRecipe(t, f.author.ID, f.input(1))
	svc := NewFavoriteService(f.db, f.db, newTestLogger())

	err := svc.Remove(context.Background(), f.reader.ID, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCollections_MissingRecipe(t *testing.T) {
	f := newFixture(t)
	svc := NewShoppingCartService(f.db, f.db, newTestLogger())

	_, err := svc.Add(context.Background(), f.reader.ID, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.Remove(context.Background(), f.reader.ID, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCollections_ReflectedInRecipeView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recipe := f.createRecipe(t, f.author.ID, f.input(1))

	_, err := NewFavoriteService(f.db, f.db, newTestLogger()).Add(ctx, f.reader.ID, recipe.ID)
	require.NoError(t, err)

	view, err := f.recipes().Get(ctx, recipe.ID, f.reader.ID)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)

	view, err = f.recipes().Get(ctx, recipe.ID, 0)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited, "anonymous viewers never see flags")
}
