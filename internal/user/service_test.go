package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmcosta/billfold/internal/user"
)

type fakeRepo struct {
	byID    map[uuid.UUID]*user.User
	byEmail map[string]*user.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:    make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]*user.User),
	}
}

func (r *fakeRepo) CreateUser(_ context.Context, u *user.User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}

	u.ID = uuid.New()
	u.CreatedAt = time.Now()

	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[u.Email] = &cp

	return nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}

	cp := *u

	return &cp, nil
}

func (r *fakeRepo) GetUser(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}

	cp := *u

	return &cp, nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, u *user.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return user.ErrNotFound
	}

	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[u.Email] = &cp

	return nil
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc := user.NewService(newFakeRepo())

		u, err := svc.Register(ctx, "  Jane@Example.COM ", "Jane", "s3cret!")
		require.NoError(t, err)

		assert.Equal(t, "jane@example.com", u.Email)
		assert.Equal(t, "Jane", u.Name)
		assert.NotEqual(t, "s3cret!", u.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!")))
	})

	t.Run("ShortPassword", func(t *testing.T) {
		svc := user.NewService(newFakeRepo())

		_, err := svc.Register(ctx, "jane@example.com", "Jane", "12345")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := newFakeRepo()
		svc := user.NewService(repo)

		_, err := svc.Register(ctx, "jane@example.com", "Jane", "s3cret!")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "JANE@example.com", "Other Jane", "s3cret!")
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := user.NewService(repo)

	registered, err := svc.Register(ctx, "jane@example.com", "Jane", "s3cret!")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		u, err := svc.Login(ctx, "Jane@Example.com", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := svc.Login(ctx, "jane@example.com", "wrong")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "s3cret!")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := user.NewService(repo)

	registered, err := svc.Register(ctx, "jane@example.com", "Jane", "s3cret!")
	require.NoError(t, err)

	name := "Jane D."
	img := "https://img.example/avatars/jane.png"

	u, err := svc.Update(ctx, registered.ID, user.UpdateParams{Name: &name, ImageURL: &img})
	require.NoError(t, err)

	assert.Equal(t, "Jane D.", u.Name)
	require.NotNil(t, u.ImageURL)
	assert.Equal(t, img, *u.ImageURL)

	_, err = svc.Update(ctx, uuid.New(), user.UpdateParams{Name: &name})
	assert.ErrorIs(t, err, user.ErrNotFound)
}
