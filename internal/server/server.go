// Package server is the composition root: it opens the store, builds the
// services and handlers, and mounts them on a chi router.
//
//	config.Config → sqlite.DB → services → handlers → routes
//
// Handlers never see the database and services never see HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/middleware"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Services groups every business service over one store. The CLI
// commands reuse it without starting HTTP.
type Services struct {
	Users         *service.UserService
	Catalog       *service.CatalogService
	Recipes       *service.RecipeService
	Favorites     *service.CollectionService
	ShoppingCart  *service.CollectionService
	ShoppingList  *service.ShoppingListService
	Subscriptions *service.SubscriptionService
}

// NewServices wires the services. tokens may be nil.
func NewServices(db *sqliteRepo.DB, tokens *auth.TokenService, limits service.Limits, logger *slog.Logger) *Services {
	return &Services{
		Users:         service.NewUserService(db, tokens, logger),
		Catalog:       service.NewCatalogService(db, db, logger),
		Recipes:       service.NewRecipeService(db, db, db, limits, logger),
		Favorites:     service.NewFavoriteService(db, db, logger),
		ShoppingCart:  service.NewShoppingCartService(db, db, logger),
		ShoppingList:  service.NewShoppingListService(db, logger),
		Subscriptions: service.NewSubscriptionService(db, db, db, db, logger),
	}
}

// RecipeLimits converts the configured recipe bounds.
func RecipeLimits(cfg config.RecipeConfig) service.Limits {
	return service.Limits{
		MinCookingTime:      cfg.MinCookingTime,
		MaxCookingTime:      cfg.MaxCookingTime,
		MinIngredientAmount: cfg.MinIngredientAmount,
		MaxIngredientAmount: cfg.MaxIngredientAmount,
	}
}

// NewTokenService returns nil, without error, when no secret is set.
// Protected routes then reject every request.
func NewTokenService(cfg config.AuthConfig, logger *slog.Logger) (*auth.TokenService, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("auth.jwt_secret not set, authentication is disabled")
		return nil, nil
	}
	return auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
}

// Server owns the database; Start closes it on the way out.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	tokens   *auth.TokenService
	services *Services
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := NewTokenService(cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		tokens:   tokens,
		services: NewServices(db, tokens, RecipeLimits(cfg.Recipe), logger),
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Services exposes the wired services, mainly for seeding in tests.
func (s *Server) Services() *Services {
	return s.services
}

// Close releases the database. Only needed when Start is never called.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes mounts:
//
//	GET    /api/tags, /api/tags/{id}
//	GET    /api/ingredients?name=, /api/ingredients/{id}
//	GET    /api/recipes, /api/recipes/{id}, /api/recipes/{id}/get-link
//	POST   /api/recipes                          auth
//	PATCH  /api/recipes/{id}                     auth, author only
//	DELETE /api/recipes/{id}                     auth, author only
//	POST   /api/recipes/{id}/favorite            auth (DELETE too)
//	POST   /api/recipes/{id}/shopping_cart       auth (DELETE too)
//	GET    /api/recipes/download_shopping_cart   auth
//	GET    /api/users/me, /api/users/subscriptions               auth
//	GET    /api/users/{id}
//	POST   /api/users/{id}/subscribe             auth (DELETE too)
//	GET    /s/{id}                               redirect to the recipe
//
// Every /api route runs OptionalAuth, so anonymous reads still see
// viewer-relative flags when a token is sent.
//
// ROUTE VS GROUP:
// r.Route("/recipes", ...) mounts a sub-router under a path prefix.
// r.Group(...) keeps the same prefix but starts a fresh middleware stack,
// which is how requireAuth is applied to the write routes only. Static
// segments win over {id} in chi's tree, so /download_shopping_cart never
// reaches the recipe handlers as an id.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	svc := s.services
	catalogHandler := handler.NewCatalogHandler(svc.Catalog, s.logger)
	recipeHandler := handler.NewRecipeHandler(svc.Recipes, s.config.Server.BaseURL, s.logger)
	favoriteHandler := handler.NewCollectionHandler(svc.Favorites, s.logger)
	cartHandler := handler.NewCollectionHandler(svc.ShoppingCart, s.logger)
	shoppingHandler := handler.NewShoppingListHandler(svc.ShoppingList, s.logger)
	userHandler := handler.NewUserHandler(svc.Users, svc.Subscriptions, s.logger)

	requireAuth := auth.RequireAuth(s.tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.OptionalAuth(s.tokens))

		r.Get("/tags", catalogHandler.HandleListTags)
		r.Get("/tags/{id}", catalogHandler.HandleGetTag)
		r.Get("/ingredients", catalogHandler.HandleListIngredients)
		r.Get("/ingredients/{id}", catalogHandler.HandleGetIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.HandleList)
			r.Get("/{id}", recipeHandler.HandleGet)
			r.Get("/{id}/get-link", recipeHandler.HandleGetLink)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/download_shopping_cart", shoppingHandler.HandleDownload)
				r.Post("/", recipeHandler.HandleCreate)
				r.Patch("/{id}", recipeHandler.HandleUpdate)
				r.Delete("/{id}", recipeHandler.HandleDelete)
				r.Post("/{id}/favorite", favoriteHandler.HandleAdd)
				r.Delete("/{id}/favorite", favoriteHandler.HandleRemove)
				r.Post("/{id}/shopping_cart", cartHandler.HandleAdd)
				r.Delete("/{id}/shopping_cart", cartHandler.HandleRemove)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", userHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", userHandler.HandleMe)
				r.Get("/subscriptions", userHandler.HandleListSubscriptions)
				r.Post("/{id}/subscribe", userHandler.HandleSubscribe)
				r.Delete("/{id}/subscribe", userHandler.HandleUnsubscribe)
			})
		})
	})

	s.router.Get("/s/{id}", recipeHandler.HandleShortLink)
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully:
// stop accepting connections, let in-flight requests finish, close the
// database.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("base_url", s.config.Server.BaseURL),
			slog.String("database", s.config.Database.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
