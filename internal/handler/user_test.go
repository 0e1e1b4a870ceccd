package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/model"
)

func TestUserHandler_MeAndGet(t *testing.T) {
	e := newEnv(t)

	rr := e.do(http.MethodGet, "/api/users/me", e.reader.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[model.UserView](t, rr)
	assert.Equal(t, e.reader.Username, me.Username)
	assert.False(t, me.IsSubscribed)

	rr = e.do(http.MethodGet, userPath(e.author.ID, ""), 0, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "author@example.com", decode[model.UserView](t, rr).Email)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, userPath(999, ""), 0, nil).Code)
}

func TestUserHandler_Subscribe(t *testing.T) {
	e := newEnv(t)
	for range 3 {
		e.createRecipe(e.author.ID, 1)
	}
	path := userPath(e.author.ID, "/subscribe")

	rr := e.do(http.MethodPost, path+"?recipes_limit=2", e.reader.ID, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	sub := decode[model.Subscription](t, rr)
	assert.Equal(t, e.author.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, 3, sub.RecipesCount)
	assert.Len(t, sub.Recipes, 2)

	rr = e.do(http.MethodPost, path, e.reader.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "subscription already exists", decode[map[string]string](t, rr)["detail"])

	profile := decode[model.UserView](t, e.do(http.MethodGet, userPath(e.author.ID, ""), e.reader.ID, nil))
	assert.True(t, profile.IsSubscribed)

	rr = e.do(http.MethodDelete, path, e.reader.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(http.MethodDelete, path, e.reader.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "subscription not found", decode[map[string]string](t, rr)["detail"])
}

func TestUserHandler_SubscribeRejects(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"self follow", http.MethodPost, userPath(e.reader.ID, "/subscribe"), http.StatusBadRequest},
		{"self unfollow", http.MethodDelete, userPath(e.reader.ID, "/subscribe"), http.StatusBadRequest},
		{"missing author", http.MethodPost, userPath(999, "/subscribe"), http.StatusNotFound},
		{"bad recipes_limit", http.MethodPost, userPath(e.author.ID, "/subscribe?recipes_limit=-1"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(tt.method, tt.path, e.reader.ID, nil)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestUserHandler_ListSubscriptions(t *testing.T) {
	e := newEnv(t)
	second := e.seedUser("second")
	e.createRecipe(second.ID, 1)

	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, userPath(e.author.ID, "/subscribe"), e.reader.ID, nil).Code)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, userPath(second.ID, "/subscribe"), e.reader.ID, nil).Code)

	rr := e.do(http.MethodGet, "/api/users/subscriptions?limit=1&recipes_limit=0", e.reader.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	page := decode[model.Page[model.Subscription]](t, rr)
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, second.ID, page.Results[0].ID)
	assert.Equal(t, 1, page.Results[0].RecipesCount)
	assert.Empty(t, page.Results[0].Recipes)
}
