package service

import (
	"context"
	"strings"
	"testing"

	"biro-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		reason   string
	}{
		{"three chars", "abc", ""},
		{"thirty two chars", strings.Repeat("a", 32), ""},
		{"underscore and digits", "Test_123", ""},
		{"two chars", "ab", "Username must be at least 3 characters"},
		{"thirty three chars", strings.Repeat("a", 33), "Username must be at most 32 characters"},
		{"empty", "", "Username must be at least 3 characters"},
		{"dash", "bad-name", "Username can only contain letters, numbers, and underscores"},
		{"space", "bad name", "Username can only contain letters, numbers, and underscores"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUsername(tt.username)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "username", verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		reason   string
	}{
		{"twelve chars", "Abcdefgh1!xy", ""},
		{"sixty four chars", strings.Repeat("a", 60) + "A1!b", ""},
		{"eleven chars", "Abcdefg1!xy", "Password must be at least 12 characters"},
		{"sixty five chars", strings.Repeat("a", 61) + "A1!b", "Password must be at most 64 characters"},
		{"no lowercase", "ABCDEFGH1!XY", "Password must contain at least one lowercase letter"},
		{"no uppercase", "abcdefgh1!xy", "Password must contain at least one uppercase letter"},
		{"no digit", "Abcdefghi!xy", "Password must contain at least one number"},
		{"no special", "Abcdefgh12xy", "Password must contain at least one special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPassword(tt.password)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestAddUser_AssignsNextID(t *testing.T) {
	f := newFixture(t)

	first := f.addUser(t, "first_user")
	second := f.addUser(t, "second_user")

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Len(t, first.Salt, 32)
	assert.Len(t, first.PasswordHash, 32)
}

func TestAddUser_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "Test_123")

	_, err := f.credentials.AddUser(context.Background(), "Test_123", testPassword)
	assert.ErrorIs(t, err, ErrConflict)
}

// staleMaxIDUsers reports a stale MaxID on its first call, as when another
// AddUser stores its row between our MaxID and Create.
type staleMaxIDUsers struct {
	repository.UserRepository
	calls int
}

func (r *staleMaxIDUsers) MaxID(ctx context.Context) (int, error) {
	r.calls++
	if r.calls == 1 {
		return 0, nil
	}
	return r.UserRepository.MaxID(ctx)
}

func TestAddUser_RetriesTakenID(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "first_user")
	users := &staleMaxIDUsers{UserRepository: f.repos.Users}

	user, err := NewCredentialStore(users, f.log).AddUser(context.Background(), "second_user", testPassword)
	require.NoError(t, err)
	assert.Equal(t, 2, user.ID)
	assert.Equal(t, 2, users.calls)

	stored, err := f.repos.Users.FindByUsername(context.Background(), "second_user")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ID)
}

func TestAddUser_TakenIDAndUsernameIsConflict(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "first_user")
	users := &staleMaxIDUsers{UserRepository: f.repos.Users}

	_, err := NewCredentialStore(users, f.log).AddUser(context.Background(), "first_user", testPassword)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, 1, users.calls)
}

func TestAddUser_InvalidInputWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.credentials.AddUser(ctx, "ab", testPassword)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.credentials.AddUser(ctx, "valid_name", "short")
	assert.ErrorIs(t, err, ErrValidation)

	max, err := f.repos.Users.MaxID(ctx)
	require.NoError(t, err)
	assert.Zero(t, max)
}

func TestVerifyCredentials_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	added := f.addUser(t, "Test_123")

	user, err := f.credentials.VerifyCredentials(ctx, "Test_123", testPassword)
	require.NoError(t, err)
	assert.Equal(t, added.ID, user.ID)

	_, err = f.credentials.VerifyCredentials(ctx, "Test_123", testPassword+"x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.credentials.VerifyCredentials(ctx, "test_123", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
