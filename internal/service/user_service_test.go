package service

import (
	"context"
	"sync"
	"testing"

	"complianceai/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterNormalisesEmailAndHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, testLogger)

	u, err := svc.Register(context.Background(), RegisterInput{Name: " Asha ", Email: " Asha@Example.COM ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, "Asha", u.Name)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), testLogger)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "A@example.com", Password: "password2"})
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	assert.Equal(t, 409, apperr.StatusOf(err))
}

func TestRegisterConcurrentDuplicatesYieldOneUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, testLogger)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), RegisterInput{Name: "A", Email: "race@example.com", Password: "password1"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, repo.users, 1)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), testLogger)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "a@example.com", "nope")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "password1")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, 401, apperr.StatusOf(unknownEmail))

	u, err := svc.Login(ctx, " A@EXAMPLE.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestUserGetAndUpdateProfile(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), testLogger)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	u, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	phone := "+91 98765 43210"
	updated, err := svc.UpdateProfile(ctx, u.ID, "  Asha Rao ", &phone)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	_, err = svc.UpdateProfile(ctx, "missing", "x", nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
