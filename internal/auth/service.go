// Package auth handles password hashing, session tokens and login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"laporan/internal/core"
	"laporan/internal/log"
	"laporan/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Service logs users in and manages accounts.
type Service struct {
	users  storage.UserStore
	tokens *Tokens
	logger *log.Logger
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt int64
	User      core.User
}

func NewService(users storage.UserStore, tokens *Tokens, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.FromSlog(nil)
	}
	return &Service{users: users, tokens: tokens, logger: logger.WithComponent(log.ComponentAuth)}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Login checks the credentials and issues a token. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		s.logger.WarnContext(ctx, "Login rejected", log.FieldUser, username, "reason", "unknown user")
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		s.logger.WarnContext(ctx, "Login rejected", log.FieldUser, username, "reason", "bad password")
		return Session{}, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "User logged in", log.FieldUser, u.Username, log.FieldOperation, log.OpLogin)
	return Session{Token: token, ExpiresAt: exp.Unix(), User: u}, nil
}

// CreateUser hashes password and stores the account.
func (s *Service) CreateUser(ctx context.Context, u core.User, password string) (core.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if len(password) < 6 {
		return core.User{}, &core.ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User created", log.FieldUser, created.Username, "role", created.Role)
	return created, nil
}

func (s *Service) Users(ctx context.Context) ([]core.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.DeleteUser(ctx, id)
}
