package authn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taintedport/taintedport/pkg/authn"
	"github.com/taintedport/taintedport/pkg/jwt"
)

func newTestService(t *testing.T, opts ...authn.Option) (*authn.Service, *memoryStorage, *jwt.Service) {
	t.Helper()

	tokens, err := jwt.New([]byte("test-signing-key"))
	require.NoError(t, err)

	store := newMemoryStorage()
	// Low bcrypt cost keeps the suite fast.
	opts = append([]authn.Option{authn.WithBcryptCost(4)}, opts...)
	return authn.NewService(store, tokens, opts...), store, tokens
}

func TestService_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates user and issues token", func(t *testing.T) {
		t.Parallel()
		svc, _, tokens := newTestService(t)

		user, token, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.IsAdmin)
		assert.False(t, user.TOTPEnabled)

		var claims authn.AccessClaims
		require.NoError(t, tokens.Parse(token, &claims))
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, user.Email, claims.Email)
		assert.False(t, claims.IsAdmin)
	})

	t.Run("new users are never administrators", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newTestService(t)

		user, _, err := svc.Register(ctx, "Mallory", "mallory@example.com", "password123")
		require.NoError(t, err)

		stored, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsAdmin)
	})

	t.Run("normalizes email", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		user, _, err := svc.Register(ctx, "Bob", "  Bob@Example.COM ", "password123")
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", user.Email)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		_, _, err := svc.Register(ctx, "Alice", "dup@example.com", "password123")
		require.NoError(t, err)

		_, _, err = svc.Register(ctx, "Other Alice", "DUP@example.com", "different1")
		assert.ErrorIs(t, err, authn.ErrEmailAlreadyExists)
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		tests := []struct {
			name     string
			userName string
			email    string
			password string
			wantErr  error
		}{
			{"empty name", "", "a@example.com", "password123", authn.ErrInvalidName},
			{"whitespace name", "   ", "a@example.com", "password123", authn.ErrInvalidName},
			{"malformed email", "Alice", "not-an-email", "password123", authn.ErrInvalidEmail},
			{"email without domain", "Alice", "alice@", "password123", authn.ErrInvalidEmail},
			{"short password", "Alice", "a@example.com", "short", authn.ErrWeakPassword},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}

func TestService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		res, err := svc.Login(ctx, "alice@example.com", "password123", "")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.False(t, res.SecondFactorRequired)
		require.NotNil(t, res.User)
		assert.Equal(t, "alice@example.com", res.User.Email)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		_, unknownErr := svc.Login(ctx, "nobody@example.com", "password123", "")
		_, wrongPassErr := svc.Login(ctx, "alice@example.com", "wrongpassword", "")

		assert.ErrorIs(t, unknownErr, authn.ErrInvalidCredentials)
		assert.ErrorIs(t, wrongPassErr, authn.ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
	})

	t.Run("login is case-insensitive on email", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		res, err := svc.Login(ctx, "ALICE@EXAMPLE.COM", "password123", "")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates name of the given principal only", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newTestService(t)

		alice, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)
		bob, _, err := svc.Register(ctx, "Bob", "bob@example.com", "password123")
		require.NoError(t, err)

		updated, err := svc.UpdateProfile(ctx, alice.ID, "Alice Smith")
		require.NoError(t, err)
		assert.Equal(t, "Alice Smith", updated.Name)

		untouched, err := store.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", untouched.Name)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		alice, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, alice.ID, "  ")
		assert.ErrorIs(t, err, authn.ErrInvalidName)
	})
}

func TestService_ChangeEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires the current password", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newTestService(t)
		alice, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		_, _, err = svc.ChangeEmail(ctx, alice.ID, "wrongpassword", "new@example.com")
		assert.ErrorIs(t, err, authn.ErrIncorrectPassword)

		stored, err := store.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", stored.Email)
	})

	t.Run("reissues token with the new email claim", func(t *testing.T) {
		t.Parallel()
		svc, _, tokens := newTestService(t)
		alice, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		user, token, err := svc.ChangeEmail(ctx, alice.ID, "password123", "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)

		var claims authn.AccessClaims
		require.NoError(t, tokens.Parse(token, &claims))
		assert.Equal(t, "new@example.com", claims.Email)
	})

	t.Run("rejects an email already in use", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		alice, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)
		_, _, err = svc.Register(ctx, "Bob", "bob@example.com", "password123")
		require.NoError(t, err)

		_, _, err = svc.ChangeEmail(ctx, alice.ID, "password123", "bob@example.com")
		assert.ErrorIs(t, err, authn.ErrEmailAlreadyExists)
	})
}

func TestService_ChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires the current password", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		alice, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, alice.ID, "wrongpassword", "newpassword1")
		assert.ErrorIs(t, err, authn.ErrIncorrectPassword)
	})

	t.Run("rejects weak replacement before proving the password", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		alice, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, alice.ID, "password123", "short")
		assert.ErrorIs(t, err, authn.ErrWeakPassword)
	})

	t.Run("old password stops working", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
		require.NoError(t, err)
		alice, err := svc.Login(ctx, "alice@example.com", "password123", "")
		require.NoError(t, err)

		require.NoError(t, svc.ChangePassword(ctx, alice.User.ID, "password123", "newpassword1"))

		_, err = svc.Login(ctx, "alice@example.com", "password123", "")
		assert.ErrorIs(t, err, authn.ErrInvalidCredentials)

		_, err = svc.Login(ctx, "alice@example.com", "newpassword1", "")
		assert.NoError(t, err)
	})
}
