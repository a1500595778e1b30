package service

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservio/internal/auth"
	userserrors "reservio/internal/users/errors"
	"reservio/pkg/config"
	apperrors "reservio/pkg/errors"
	"reservio/pkg/logger"
	"reservio/pkg/model"
	"reservio/pkg/validation"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type mockUserRepo struct {
	createFunc      func(ctx context.Context, user *model.User) error
	findByIDFunc    func(ctx context.Context, id int64) (*model.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	saveFunc        func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Save(ctx context.Context, user *model.User) error {
	return m.saveFunc(ctx, user)
}

func newTestUserService(repo *mockUserRepo) UserService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
	}
	tokens := auth.NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour)
	hasher := auth.NewPasswordHasher(10)
	return NewUserService(repo, tokens, hasher, validation.New(), cfg)
}

func TestRegisterHashesPassword(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepo{
		createFunc: func(_ context.Context, user *model.User) error {
			user.ID = 1
			stored = user
			return nil
		},
	}
	svc := newTestUserService(repo)

	password := gofakeit.Password(true, true, true, false, false, 16)
	user, err := svc.Register(context.Background(), &model.UserRegister{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: password,
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, password, stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := &mockUserRepo{
		createFunc: func(_ context.Context, _ *model.User) error {
			return userserrors.ErrEmailTaken
		},
	}
	svc := newTestUserService(repo)

	_, err := svc.Register(context.Background(), &model.UserRegister{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: "longenoughpassword",
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestUserService(repo)

	_, err := svc.Register(context.Background(), &model.UserRegister{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: "short",
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
}

func TestLoginWrongPasswordAndUnknownEmailLookTheSame(t *testing.T) {
	hasher := auth.NewPasswordHasher(10)
	hash, err := hasher.Hash("correct-password")
	require.NoError(t, err)

	email := gofakeit.Email()
	repo := &mockUserRepo{
		findByEmailFunc: func(_ context.Context, e string) (*model.User, error) {
			if e == email {
				return &model.User{ID: 1, Email: email, PasswordHash: hash, Role: model.RoleUser}, nil
			}
			return nil, userserrors.ErrNotFound
		},
	}
	svc := newTestUserService(repo)

	_, wrongPassErr := svc.Login(context.Background(), &model.UserLogin{Email: email, Password: "wrong-password"})
	_, unknownErr := svc.Login(context.Background(), &model.UserLogin{Email: gofakeit.Email(), Password: "whatever"})

	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
}

func TestLoginIssuesTokenPair(t *testing.T) {
	hasher := auth.NewPasswordHasher(10)
	hash, err := hasher.Hash("correct-password")
	require.NoError(t, err)

	email := gofakeit.Email()
	repo := &mockUserRepo{
		findByEmailFunc: func(_ context.Context, _ string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, PasswordHash: hash, Role: model.RoleAdmin}, nil
		},
	}
	svc := newTestUserService(repo)

	pair, err := svc.Login(context.Background(), &model.UserLogin{Email: email, Password: "correct-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour)
	pair, err := tokens.NewTokenPair(&model.User{ID: 7, Role: model.RoleUser})
	require.NoError(t, err)

	repo := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleUser}, nil
		},
	}
	svc := newTestUserService(repo)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
}

func TestPatchUpdatesName(t *testing.T) {
	var saved *model.User
	repo := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Old Name", Email: gofakeit.Email(), Role: model.RoleUser}, nil
		},
		saveFunc: func(_ context.Context, user *model.User) error {
			saved = user
			return nil
		},
	}
	svc := newTestUserService(repo)

	user, err := svc.Patch(context.Background(), 3, &model.UserPatch{Name: "New Name"})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "New Name", user.Name)
	assert.Equal(t, "New Name", saved.Name)
}
