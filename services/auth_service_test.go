package services

import (
	"context"
	"testing"

	"github.com/brewbracket/tournament-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := NewAuthService(userRepo)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterInput{
		FirstName: "Dana",
		LastName:  "Keg",
		Email:     "Dana@Example.com",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	logged, err := service.Login(ctx, LoginInput{Email: "dana@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = service.Login(ctx, LoginInput{Email: "dana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := NewAuthService(userRepo)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{FirstName: "Dana", Email: "d@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = service.Register(ctx, RegisterInput{Email: "d@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = service.Register(ctx, RegisterInput{FirstName: "Dana", Email: "d@example.com", Password: "long-enough"})
	require.NoError(t, err)
	_, err = service.Register(ctx, RegisterInput{FirstName: "Dupe", Email: "d@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}
