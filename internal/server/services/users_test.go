package services

import (
	"context"
	"testing"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/server/auth"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUsersRepo struct {
	byEmail map[string]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.byEmail[user.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

const testSecret = "test-secret"

func newUserService(repo *fakeUsersRepo) *UserService {
	return NewUserService(repo, testSecret, 2*time.Hour)
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	s := newUserService(newFakeUsersRepo())

	user, token, err := s.Register(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	claims, err := auth.ParseToken(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestRegister_MissingFields(t *testing.T) {
	s := newUserService(newFakeUsersRepo())
	ctx := context.Background()

	_, _, err := s.Register(ctx, "", "pw1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, _, err = s.Register(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newUserService(newFakeUsersRepo())
	ctx := context.Background()

	_, _, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	_, _, err = s.Register(ctx, "a@x.com", "pw2")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestLogin_Success(t *testing.T) {
	s := newUserService(newFakeUsersRepo())
	ctx := context.Background()

	user, _, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	token, err := s.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	claims, err := auth.ParseToken(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLogin_WrongPasswordAndUnknownEmailAreIndistinguishable(t *testing.T) {
	s := newUserService(newFakeUsersRepo())
	ctx := context.Background()

	_, _, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	_, errWrongPw := s.Login(ctx, "a@x.com", "wrong")
	_, errUnknown := s.Login(ctx, "nobody@x.com", "pw1")

	assert.ErrorIs(t, errWrongPw, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.Equal(t, errWrongPw, errUnknown)
}
