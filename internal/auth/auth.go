package auth

import (
	"context"
	"fmt"

	"gymgo/internal/api"
	dto "gymgo/internal/entity"
	"gymgo/internal/token"

	"go.uber.org/zap"
)

// Service handles login, registration and logout against the backend,
// and owns the stored bearer token accordingly.
type Service struct {
	api    *api.Client
	tokens token.Store
	logger *zap.Logger
}

func NewService(apiClient *api.Client, tokens token.Store, logger *zap.Logger) *Service {
	return &Service{
		api:    apiClient,
		tokens: tokens,
		logger: logger.With(zap.String("component", "auth_service")),
	}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerBody struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Login authenticates and stores the returned bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*dto.Session, error) {
	s.logger.Info("Logging in", zap.String("email", email))

	var session dto.Session
	err := s.api.Post(ctx, "/api/v1/auth/login", &credentialsBody{Email: email, Password: password}, &session)
	if err != nil {
		s.logger.Error("Login failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if err := s.tokens.SetToken(ctx, session.Token); err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}

	s.logger.Info("Logged in", zap.String("user_id", session.UserID))
	return &session, nil
}

// Register creates an account and stores the returned token.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*dto.Session, error) {
	s.logger.Info("Registering", zap.String("email", email))

	var session dto.Session
	body := &registerBody{Email: email, Password: password, FirstName: firstName, LastName: lastName}
	if err := s.api.Post(ctx, "/api/v1/auth/register", body, &session); err != nil {
		s.logger.Error("Registration failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	if err := s.tokens.SetToken(ctx, session.Token); err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}
	return &session, nil
}

// Logout clears the stored token. The backend call is best effort; the
// local token is dropped regardless of its outcome.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Post(ctx, "/api/v1/auth/logout", nil, nil); err != nil {
		s.logger.Warn("Backend logout failed", zap.Error(err))
	}
	if err := s.tokens.ClearToken(ctx); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	s.logger.Info("Logged out")
	return nil
}
