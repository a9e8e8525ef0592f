package user

import (
	"context"
	"strings"
	"testing"

	"github.com/example/eri-mobile-shop/internal/auth"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

// ============================================
// Email Validation Tests
// ============================================

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"test@example.com",
		"user.name@domain.org",
		"user+tag@example.com",
		"a@b.cd",
		"test@subdomain.example.com",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"notanemail",
		"@example.com",
		"user@",
		"user@.com",
		"user@domain",
		"user@domain.",
		"user space@example.com",
		strings.Repeat("a", 250) + "@example.com",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

// ============================================
// Register Tests
// ============================================

func TestService_RegisterAdmin_Success(t *testing.T) {
	service, eventStore := newTestUserService()

	u, err := service.RegisterAdmin(context.Background(), " Admin@Example.com ", "password123", "Shop Admin")

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.Equal(t, auth.RoleAdmin, u.Role)
	assert.True(t, auth.CheckPassword("password123", u.PasswordHash))

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserCreated, eventStore.AppendCalls[0].EventType)
	created := eventStore.AppendCalls[0].Data.(UserCreated)
	assert.NotEqual(t, "password123", created.PasswordHash)
}

func TestService_RegisterAdmin_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		userName string
		wantErr  error
	}{
		{"invalid email", "nope", "password123", "Admin", ErrInvalidEmail},
		{"empty name", "a@example.com", "password123", " ", ErrInvalidName},
		{"short password", "a@example.com", "short", "Admin", auth.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, eventStore := newTestUserService()

			_, err := service.RegisterAdmin(context.Background(), tt.email, tt.password, tt.userName)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, eventStore.AppendCalls)
		})
	}
}

// ============================================
// Password / Session Tests
// ============================================

func TestService_ChangePassword(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()
	u, err := service.RegisterAdmin(ctx, "admin@example.com", "password123", "Admin")
	require.NoError(t, err)

	require.NoError(t, service.ChangePassword(ctx, u.ID, "new-password-456"))

	reloaded, err := service.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("new-password-456", reloaded.PasswordHash))
	assert.False(t, auth.CheckPassword("password123", reloaded.PasswordHash))
}

func TestService_ChangePassword_Errors(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	assert.ErrorIs(t, service.ChangePassword(ctx, "missing", "password123"), ErrUserNotFound)

	u, err := service.RegisterAdmin(ctx, "admin@example.com", "password123", "Admin")
	require.NoError(t, err)
	assert.ErrorIs(t, service.ChangePassword(ctx, u.ID, "short"), auth.ErrPasswordTooShort)
}

func TestService_RecordLoginAndLogout(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	require.NoError(t, service.RecordLogin(ctx, "user-1", "127.0.0.1", "test-agent"))
	require.NoError(t, service.RecordLogout(ctx, "user-1"))

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, EventUserLoggedIn, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, EventUserLoggedOut, eventStore.AppendCalls[1].EventType)
}
