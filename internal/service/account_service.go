package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HGakash/agrihub/internal/auth"
	"github.com/HGakash/agrihub/internal/model"
	"github.com/HGakash/agrihub/internal/repository"
)

const minPasswordLength = 6

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type TokenIssuer interface {
	Issue(user model.User) (string, error)
}

type AccountService struct {
	users  UserStore
	issuer TokenIssuer
}

func NewAccountService(users UserStore, issuer TokenIssuer) *AccountService {
	return &AccountService{users: users, issuer: issuer}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := normalizeEmail(input.Email)
	role := model.Role(strings.ToLower(strings.TrimSpace(input.Role)))
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	case len(input.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	case !role.Valid():
		return nil, fmt.Errorf("%w: role must be farmer or dealer", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

type LoginInput struct {
	Email    string
	Password string
	Role     string
}

type LoginResult struct {
	Token string
	User  model.User
}

// Login checks credentials and issues an access token. When a role is given
// it must match the stored role.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if role := strings.TrimSpace(input.Role); role != "" && model.Role(strings.ToLower(role)) != user.Role {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := s.issuer.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, User: *user}, nil
}

func (s *AccountService) Me(ctx context.Context, principal model.Principal) (*model.User, error) {
	user, err := s.users.Get(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}
