package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/taskkeeper/internal/services"
)

var testSecret = []byte("test-secret")

func newTestCredentialStore(t *testing.T) (services.CredentialStore, *memUserRepo, *fakeClock) {
	t.Helper()
	repo := newMemUserRepo()
	clock := newFakeClock()
	store := services.NewCredentialStore(repo, services.TokenConfig{Secret: testSecret}, clock.Now)
	return store, repo, clock
}

func validRegistration() services.RegisterInput {
	return services.RegisterInput{
		Email:     "Ann@Example.com ",
		Password:  "secret1",
		FirstName: "Ann",
		LastName:  "Lee",
	}
}

func TestCredentialStore_Register(t *testing.T) {
	t.Run("Успешная регистрация", func(t *testing.T) {
		store, _, clock := newTestCredentialStore(t)

		resp, err := store.Register(context.Background(), validRegistration())
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", resp.User.Email)
		assert.NotEqual(t, uuid.Nil, resp.User.ID)
		assert.NotEqual(t, "secret1", resp.User.PasswordHash)
		assert.Equal(t, clock.Now(), resp.User.CreatedAt)

		// Токен подписан нашим секретом и содержит user_id
		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) { return testSecret, nil },
			jwt.WithTimeFunc(clock.Now))
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID.String(), claims["user_id"])
		assert.Equal(t, services.DefaultIssuer, claims["iss"])
		exp, err := claims.GetExpirationTime()
		require.NoError(t, err)
		assert.WithinDuration(t, clock.Now().Add(services.DefaultTokenTTL), exp.Time, time.Second)
	})

	t.Run("Email уже занят", func(t *testing.T) {
		store, _, _ := newTestCredentialStore(t)
		_, err := store.Register(context.Background(), validRegistration())
		require.NoError(t, err)

		in := validRegistration()
		in.Email = "ann@example.com"
		_, err = store.Register(context.Background(), in)
		assert.ErrorIs(t, err, services.ErrEmailTaken)
	})

	t.Run("Ошибка репозитория", func(t *testing.T) {
		store, repo, _ := newTestCredentialStore(t)
		repo.err = errors.New("some db error")

		_, err := store.Register(context.Background(), validRegistration())
		require.Error(t, err)
		assert.NotErrorIs(t, err, services.ErrEmailTaken)
	})
}

func TestCredentialStore_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *services.RegisterInput)
		field  string
	}{
		{name: "Пустой email", mutate: func(in *services.RegisterInput) { in.Email = "" }, field: "email"},
		{name: "Некорректный email", mutate: func(in *services.RegisterInput) { in.Email = "not-an-email" }, field: "email"},
		{name: "Email с именем", mutate: func(in *services.RegisterInput) { in.Email = "Ann <ann@example.com>" }, field: "email"},
		{name: "Короткий пароль", mutate: func(in *services.RegisterInput) { in.Password = "12345" }, field: "password"},
		{name: "Без имени", mutate: func(in *services.RegisterInput) { in.FirstName = "  " }, field: "firstName"},
		{name: "Без фамилии", mutate: func(in *services.RegisterInput) { in.LastName = "" }, field: "lastName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, repo, _ := newTestCredentialStore(t)
			in := validRegistration()
			tt.mutate(&in)

			_, err := store.Register(context.Background(), in)

			var vErr *services.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tt.field)
			assert.Empty(t, repo.users)
		})
	}
}

func TestCredentialStore_Login(t *testing.T) {
	store, repo, _ := newTestCredentialStore(t)
	registered, err := store.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		dbErr    error
		wantErr  error
	}{
		{name: "Успешный вход", email: "ann@example.com", password: "secret1"},
		{name: "Email в другом регистре", email: " ANN@example.com", password: "secret1"},
		{name: "Неверный пароль", email: "ann@example.com", password: "wrong-password", wantErr: services.ErrUnauthorized},
		{name: "Пользователь не найден", email: "bob@example.com", password: "secret1", wantErr: services.ErrUnauthorized},
		{name: "Ошибка репозитория", email: "ann@example.com", password: "secret1", dbErr: errors.New("some db error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.err = tt.dbErr
			defer func() { repo.err = nil }()

			resp, err := store.Login(context.Background(), tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
			case tt.dbErr != nil:
				require.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrUnauthorized)
			default:
				require.NoError(t, err)
				assert.Equal(t, registered.User.ID, resp.User.ID)
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func TestCredentialStore_Me(t *testing.T) {
	store, _, _ := newTestCredentialStore(t)
	registered, err := store.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	user, err := store.Me(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", user.DisplayName())

	_, err = store.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCredentialStore_Verify(t *testing.T) {
	store, repo, _ := newTestCredentialStore(t)
	registered, err := store.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	id := registered.User.ID

	t.Run("Верный пароль", func(t *testing.T) {
		ok, err := store.Verify(context.Background(), id, "secret1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Неверный пароль", func(t *testing.T) {
		ok, err := store.Verify(context.Background(), id, "secret2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Неизвестный пользователь - false без ошибки", func(t *testing.T) {
		ok, err := store.Verify(context.Background(), uuid.New(), "secret1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Ошибка хранилища не превращается в true", func(t *testing.T) {
		repo.err = errors.New("connection refused")
		defer func() { repo.err = nil }()

		ok, err := store.Verify(context.Background(), id, "secret1")
		require.Error(t, err)
		assert.False(t, ok)
	})
}
