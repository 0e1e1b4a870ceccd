package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

const (
	testBaseURL = "http://foodgram.test"
	userHeader  = "X-Test-User"
)

// env is a router over real services on an in-memory store. Requests send
// the caller id in userHeader instead of a JWT; auth is covered by the
// auth and server packages.
type env struct {
	t      *testing.T
	db     *sqlite.DB
	router http.Handler

	author *model.User
	reader *model.User
	tag    *model.Tag
	salt   *model.Ingredient
	flour  *model.Ingredient
}

func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(userHeader); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err == nil {
				r = r.WithContext(auth.WithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	recipes := handler.NewRecipeHandler(service.NewRecipeService(db, db, db, service.DefaultLimits(), logger), testBaseURL+"/", logger)
	favorites := handler.NewCollectionHandler(service.NewFavoriteService(db, db, logger), logger)
	cart := handler.NewCollectionHandler(service.NewShoppingCartService(db, db, logger), logger)
	shopping := handler.NewShoppingListHandler(service.NewShoppingListService(db, logger), logger)
	catalog := handler.NewCatalogHandler(service.NewCatalogService(db, db, logger), logger)
	users := handler.NewUserHandler(
		service.NewUserService(db, nil, logger),
		service.NewSubscriptionService(db, db, db, db, logger),
		logger,
	)

	r := chi.NewRouter()
	r.Use(asUser)
	r.Get("/api/tags", catalog.HandleListTags)
	r.Get("/api/tags/{id}", catalog.HandleGetTag)
	r.Get("/api/ingredients", catalog.HandleListIngredients)
	r.Get("/api/ingredients/{id}", catalog.HandleGetIngredient)
	r.Get("/api/recipes", recipes.HandleList)
	r.Post("/api/recipes", recipes.HandleCreate)
	r.Get("/api/recipes/download_shopping_cart", shopping.HandleDownload)
	r.Get("/api/recipes/{id}", recipes.HandleGet)
	r.Patch("/api/recipes/{id}", recipes.HandleUpdate)
	r.Delete("/api/recipes/{id}", recipes.HandleDelete)
	r.Get("/api/recipes/{id}/get-link", recipes.HandleGetLink)
	r.Post("/api/recipes/{id}/favorite", favorites.HandleAdd)
	r.Delete("/api/recipes/{id}/favorite", favorites.HandleRemove)
	r.Post("/api/recipes/{id}/shopping_cart", cart.HandleAdd)
	r.Delete("/api/recipes/{id}/shopping_cart", cart.HandleRemove)
	r.Get("/api/users/me", users.HandleMe)
	r.Get("/api/users/subscriptions", users.HandleListSubscriptions)
	r.Get("/api/users/{id}", users.HandleGet)
	r.Post("/api/users/{id}/subscribe", users.HandleSubscribe)
	r.Delete("/api/users/{id}/subscribe", users.HandleUnsubscribe)
	r.Get("/s/{id}", recipes.HandleShortLink)

	e := &env{t: t, db: db, router: r}
	ctx := context.Background()

	e.author = e.seedUser("author")
	e.reader = e.seedUser("reader")

	e.tag = &model.Tag{Name: "Dinner", Slug: "dinner"}
	require.NoError(t, db.CreateTag(ctx, e.tag))
	e.salt = &model.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	_, err = db.CreateIngredient(ctx, e.salt)
	require.NoError(t, err)
	e.flour = &model.Ingredient{Name: "Flour", MeasurementUnit: "g"}
	_, err = db.CreateIngredient(ctx, e.flour)
	require.NoError(t, err)

	return e
}

func (e *env) seedUser(username string) *model.User {
	e.t.Helper()
	u := &model.User{Email: username + "@example.com", Username: username, FirstName: "F", LastName: "L"}
	require.NoError(e.t, e.db.CreateUser(context.Background(), u))
	return u
}

// do sends a request as userID (zero for anonymous). body is JSON-encoded
// unless it is already a string.
func (e *env) do(method, path string, userID int64, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(userHeader, strconv.FormatInt(userID, 10))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *env) recipePayload(amount int) map[string]any {
	return map[string]any{
		"name":         "Salted water",
		"text":         "Dissolve and boil.",
		"cooking_time": 5,
		"image":        "recipes/images/water.png",
		"tags":         []int64{e.tag.ID},
		"ingredients":  []map[string]any{{"id": e.salt.ID, "amount": amount}},
	}
}

func (e *env) createRecipe(authorID int64, amount int) model.RecipeView {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/recipes", authorID, e.recipePayload(amount))
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[model.RecipeView](e.t, rr)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func recipePath(id int64, suffix string) string {
	return "/api/recipes/" + itoa(id) + suffix
}

func userPath(id int64, suffix string) string {
	return "/api/users/" + itoa(id) + suffix
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}
