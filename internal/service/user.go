package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"saferide/internal/auth"
	"saferide/internal/domain"
	"saferide/internal/repository"
)

// UserService handles registration, login, and account lookup.
type UserService struct {
	store      repository.Store
	tokens     *auth.TokenManager
	bcryptCost int
	log        *logrus.Logger
}

// NewUserService creates a new user service.
func NewUserService(store repository.Store, tokens *auth.TokenManager, bcryptCost int, log *logrus.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, bcryptCost: bcryptCost, log: log}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     domain.Role
}

// Register creates a new passenger or driver account and returns the
// account with a signed token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	if !domain.ValidRegistrationRole(in.Role) {
		return nil, "", ErrInvalidRole
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, "", ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	// Driver accounts get their aggregate row up front; trip completion
	// and rating update it unconditionally.
	if user.Role == domain.RoleDriver {
		if err := s.store.Drivers().Create(ctx, newDriverRecord(user.ID)); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return nil, "", err
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user registered")

	return user, token, nil
}

// Login verifies the credentials and returns the account with a signed
// token. A missing account and a wrong password are indistinguishable to
// the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Get returns the account by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
