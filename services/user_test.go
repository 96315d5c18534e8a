package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-review-api/apperr"
)

func TestSignup(t *testing.T) {
	s := newTestStore(t)
	users, _ := newServices(t, s)

	u, err := users.Signup(context.Background(), SignupInput{
		Username: "Maria_UP",
		Email:    "  Maria@UP.com.ar ",
		Password: "maria*123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "maria@up.com.ar", u.Email)
	assert.Empty(t, u.Restaurants)
	assert.NotEqual(t, "maria*123", u.Password)
}

func TestSignup_Validation(t *testing.T) {
	users, _ := newServices(t, newTestStore(t))

	tests := []struct {
		name  string
		input SignupInput
	}{
		{"missing username", SignupInput{Email: "a@b.com", Password: "secret1"}},
		{"bad email", SignupInput{Username: "a", Email: "not-an-email", Password: "secret1"}},
		{"short password", SignupInput{Username: "a", Email: "a@b.com", Password: "12345"}},
		{"password over 72 characters", SignupInput{Username: "a", Email: "a@b.com", Password: strings.Repeat("p", 80)}},
		{"password over 72 bytes", SignupInput{Username: "a", Email: "a@b.com", Password: strings.Repeat("ñ", 40)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Signup(context.Background(), tt.input)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	users, _ := newServices(t, s)
	signup(t, users, "dup@example.com")

	_, err := users.Signup(context.Background(), SignupInput{
		Username: "other",
		Email:    "DUP@example.com",
		Password: "secret1",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	status, msg := apperr.Public(err)
	assert.Equal(t, 422, status)
	assert.Equal(t, "User already exists.", msg)

	all, err := users.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSignup_UniqueIndexCatchesRace(t *testing.T) {
	s := newTestStore(t)
	users, _ := newServices(t, s)
	signup(t, users, "race@example.com")

	racing, _ := newServices(t, &faultyStore{Store: s, hideEmails: true})
	_, err := racing.Signup(context.Background(), SignupInput{
		Username: "late",
		Email:    "race@example.com",
		Password: "secret1",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	all, err := users.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLogin(t *testing.T) {
	users, _ := newServices(t, newTestStore(t))
	signup(t, users, "login@example.com")
	ctx := context.Background()

	assert.NoError(t, users.Login(ctx, "login@example.com", "maria*123"))
	assert.NoError(t, users.Login(ctx, "Login@Example.com", "maria*123"))

	err := users.Login(ctx, "login@example.com", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	err = users.Login(ctx, "nobody@example.com", "maria*123")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestGetAllUsers_StorageFailure(t *testing.T) {
	users, _ := newServices(t, &faultyStore{Store: newTestStore(t), failFindAll: true})

	_, err := users.GetAllUsers(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindStorage))
}
