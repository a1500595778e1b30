package service

import (
	"context"
	"errors"

	"reservio/internal/auth"
	userserrors "reservio/internal/users/errors"
	"reservio/internal/users/repository"
	"reservio/pkg/config"
	apperrors "reservio/pkg/errors"
	"reservio/pkg/model"
	"reservio/pkg/validation"
)

type UserService interface {
	Register(ctx context.Context, in *model.UserRegister) (*model.User, error)
	Login(ctx context.Context, in *model.UserLogin) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Patch(ctx context.Context, id int64, in *model.UserPatch) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	tokens    *auth.TokenManager
	hasher    *auth.PasswordHasher
	validator *validation.Validator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
	validator *validation.Validator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		tokens:    tokens,
		hasher:    hasher,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, in *model.UserRegister) (*model.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	role := model.RoleUser
	if in.IsAdmin {
		role = model.RoleAdmin
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("Email already registered")
		}
		s.cfg.Log.Error("Failed to create user", "email", in.Email, "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered", "id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and issues a token pair. The same error is
// returned for an unknown email and a wrong password.
func (s *userService) Login(ctx context.Context, in *model.UserLogin) (*model.TokenPair, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, apperrors.Validation("Invalid login input", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		s.cfg.Log.Error("Failed to look up user", "error", err)
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	pair, err := s.tokens.NewTokenPair(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}

	s.cfg.Log.Info("User logged in", "id", user.ID)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The user is
// re-read so role changes take effect on the next access token.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	userID, _, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Unknown user")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	pair, err := s.tokens.NewTokenPair(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}
	return pair, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("User ID must be positive")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *userService) Patch(ctx context.Context, id int64, in *model.UserPatch) (*model.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, apperrors.Validation("Invalid profile input", map[string]any{"error": err.Error()})
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = in.Name
	}

	if err := s.repo.Save(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("Email already registered")
		}
		s.cfg.Log.Error("Failed to update user", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update user", err)
	}
	return user, nil
}
