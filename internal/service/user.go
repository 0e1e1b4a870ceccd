package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// UserInput is the operator-facing payload for seeding a user.
type UserInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,min=3,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Avatar    string `json:"avatar"`
}

// UserService reads profiles and, for operator tooling, creates users and
// issues their tokens.
type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewUserService wires the service. tokens may be nil when no JWT secret is
// configured; IssueToken then fails.
func NewUserService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, logger: logger}
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Avatar:    in.Avatar,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Get returns the profile of userID as seen by viewerID.
func (s *UserService) Get(ctx context.Context, userID, viewerID int64) (*model.UserView, error) {
	return s.users.GetUserView(ctx, userID, viewerID)
}

// Me returns the caller's own profile. IsSubscribed is always false since a
// user cannot follow themself.
func (s *UserService) Me(ctx context.Context, userID int64) (*model.UserView, error) {
	return s.users.GetUserView(ctx, userID, userID)
}

// IssueToken signs a token for an existing user.
func (s *UserService) IssueToken(ctx context.Context, userID int64) (string, error) {
	if s.tokens == nil {
		return "", errors.New("issuing token: no JWT secret configured")
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", fmt.Errorf("issuing token for user %d: %w", userID, err)
	}

	s.logger.Info("token issued", slog.Int64("user_id", userID))
	return token, nil
}
