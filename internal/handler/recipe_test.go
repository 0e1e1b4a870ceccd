package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/model"
)

func TestRecipeHandler_CreateAndGet(t *testing.T) {
	e := newEnv(t)

	created := e.createRecipe(e.author.ID, 10)
	assert.Equal(t, "Salted water", created.Name)
	assert.Equal(t, e.author.ID, created.Author.ID)
	require.Len(t, created.Ingredients, 1)
	assert.Equal(t, model.RecipeIngredient{ID: e.salt.ID, Name: "Salt", MeasurementUnit: "g", Amount: 10}, created.Ingredients[0])
	assert.Equal(t, []model.Tag{*e.tag}, created.Tags)

	rr := e.do(http.MethodGet, recipePath(created.ID, ""), 0, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[model.RecipeView](t, rr)
	assert.Equal(t, created, got)
}

func TestRecipeHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(e *env, p map[string]any)
		wantField string
	}{
		{
			name:      "zero cooking time",
			mutate:    func(_ *env, p map[string]any) { p["cooking_time"] = 0 },
			wantField: "cooking_time",
		},
		{
			name:      "missing name",
			mutate:    func(_ *env, p map[string]any) { delete(p, "name") },
			wantField: "name",
		},
		{
			name: "unknown ingredient",
			mutate: func(_ *env, p map[string]any) {
				p["ingredients"] = []map[string]any{{"id": 999, "amount": 1}}
			},
			wantField: "ingredients",
		},
		{
			name:      "no tags",
			mutate:    func(_ *env, p map[string]any) { p["tags"] = []int64{} },
			wantField: "tags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			payload := e.recipePayload(10)
			tt.mutate(e, payload)

			rr := e.do(http.MethodPost, "/api/recipes", e.author.ID, payload)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decode[map[string][]string](t, rr)
			assert.Contains(t, body, tt.wantField)
		})
	}
}

func TestRecipeHandler_MissingIngredientNamesID(t *testing.T) {
	e := newEnv(t)
	payload := e.recipePayload(10)
	payload["ingredients"] = []map[string]any{{"id": 999, "amount": 1}}

	rr := e.do(http.MethodPost, "/api/recipes", e.author.ID, payload)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[map[string][]string](t, rr)
	assert.Contains(t, body["ingredients"][0], "999")

	list := decode[model.Page[model.RecipeView]](t, e.do(http.MethodGet, "/api/recipes", 0, nil))
	assert.Zero(t, list.Count)
}

func TestRecipeHandler_RejectsMalformedJSON(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"truncated", `{"name":`},
		{"unknown field", `{"name":"x","colour":"red"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(http.MethodPost, "/api/recipes", e.author.ID, tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decode[map[string]string](t, rr)["detail"], "invalid JSON body")
		})
	}
}

func TestRecipeHandler_Update(t *testing.T) {
	e := newEnv(t)
	created := e.createRecipe(e.author.ID, 10)

	payload := e.recipePayload(3)
	payload["name"] = "Floury water"
	payload["ingredients"] = []map[string]any{{"id": e.flour.ID, "amount": 200}}

	t.Run("other user is forbidden", func(t *testing.T) {
		rr := e.do(http.MethodPatch, recipePath(created.ID, ""), e.reader.ID, payload)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("author replaces ingredients", func(t *testing.T) {
		rr := e.do(http.MethodPatch, recipePath(created.ID, ""), e.author.ID, payload)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		got := decode[model.RecipeView](t, rr)
		assert.Equal(t, "Floury water", got.Name)
		require.Len(t, got.Ingredients, 1)
		assert.Equal(t, e.flour.ID, got.Ingredients[0].ID)
		assert.Equal(t, 200, got.Ingredients[0].Amount)
	})

	t.Run("missing recipe", func(t *testing.T) {
		rr := e.do(http.MethodPatch, recipePath(999, ""), e.author.ID, payload)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRecipeHandler_Delete(t *testing.T) {
	e := newEnv(t)
	created := e.createRecipe(e.author.ID, 10)

	rr := e.do(http.MethodDelete, recipePath(created.ID, ""), e.reader.ID, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = e.do(http.MethodDelete, recipePath(created.ID, ""), e.author.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = e.do(http.MethodGet, recipePath(created.ID, ""), 0, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecipeHandler_MalformedPathIDIsNotFound(t *testing.T) {
	e := newEnv(t)

	rr := e.do(http.MethodGet, "/api/recipes/abc", 0, nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecipeHandler_ListPaginationAndFilters(t *testing.T) {
	e := newEnv(t)
	other := e.seedUser("other")

	var ids []int64
	for range 3 {
		ids = append(ids, e.createRecipe(e.author.ID, 1).ID)
	}
	otherRecipe := e.createRecipe(other.ID, 1)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, recipePath(ids[0], "/favorite"), e.reader.ID, nil).Code)

	tests := []struct {
		name    string
		query   string
		viewer  int64
		count   int
		wantIDs []int64
	}{
		{"first page newest first", "?limit=2", 0, 4, []int64{otherRecipe.ID, ids[2]}},
		{"second page", "?limit=2&page=2", 0, 4, []int64{ids[1], ids[0]}},
		{"by author", "?author=" + strconv.FormatInt(other.ID, 10), 0, 1, []int64{otherRecipe.ID}},
		{"favorited by viewer", "?is_favorited=1", e.reader.ID, 1, []int64{ids[0]}},
		{"favorited ignored for anonymous", "?is_favorited=1&limit=1", 0, 4, []int64{otherRecipe.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(http.MethodGet, "/api/recipes"+tt.query, tt.viewer, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			page := decode[model.Page[model.RecipeView]](t, rr)
			assert.Equal(t, tt.count, page.Count)
			got := make([]int64, len(page.Results))
			for i, r := range page.Results {
				got[i] = r.ID
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestRecipeHandler_ListRejectsBadQuery(t *testing.T) {
	e := newEnv(t)

	for _, q := range []string{"?page=0", "?limit=x", "?author=me"} {
		t.Run(q, func(t *testing.T) {
			rr := e.do(http.MethodGet, "/api/recipes"+q, 0, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestRecipeHandler_ViewerFlags(t *testing.T) {
	e := newEnv(t)
	created := e.createRecipe(e.author.ID, 1)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, recipePath(created.ID, "/shopping_cart"), e.reader.ID, nil).Code)

	asReader := decode[model.RecipeView](t, e.do(http.MethodGet, recipePath(created.ID, ""), e.reader.ID, nil))
	assert.True(t, asReader.IsInShoppingCart)
	assert.False(t, asReader.IsFavorited)

	anonymous := decode[model.RecipeView](t, e.do(http.MethodGet, recipePath(created.ID, ""), 0, nil))
	assert.False(t, anonymous.IsInShoppingCart)
}

func TestRecipeHandler_ShortLink(t *testing.T) {
	e := newEnv(t)
	created := e.createRecipe(e.author.ID, 1)

	rr := e.do(http.MethodGet, recipePath(created.ID, "/get-link"), 0, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	link := decode[map[string]string](t, rr)["short-link"]
	assert.Equal(t, testBaseURL+"/s/"+strconv.FormatInt(created.ID, 10), link)

	rr = e.do(http.MethodGet, "/s/"+strconv.FormatInt(created.ID, 10), 0, nil)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, recipePath(created.ID, ""), rr.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, recipePath(999, "/get-link"), 0, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/s/999", 0, nil).Code)
}
