package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/user-service/internal/domain/entity"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	auth, err := NewAuthService(
		Credential{Username: "workshop-admin", Password: "SecureWorkshop2024!", Roles: []string{entity.RoleAdmin}},
		Credential{Username: "workshop-user", Password: "UserWorkshop2024!", Roles: []string{entity.RoleUser}},
	)
	require.NoError(t, err)
	return auth
}

func TestAuthenticate(t *testing.T) {
	auth := newTestAuth(t)

	tests := []struct {
		name     string
		username string
		password string
		wantRole string
		wantErr  bool
	}{
		{name: "admin", username: "workshop-admin", password: "SecureWorkshop2024!", wantRole: entity.RoleAdmin},
		{name: "user", username: "workshop-user", password: "UserWorkshop2024!", wantRole: entity.RoleUser},
		{name: "wrong password", username: "workshop-user", password: "nope", wantErr: true},
		{name: "unknown user", username: "mallory", password: "UserWorkshop2024!", wantErr: true},
		{name: "empty", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := auth.Authenticate(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Nil(t, acc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.username, acc.Username)
			assert.Equal(t, []string{tt.wantRole}, acc.Roles)
		})
	}
}

func TestAuthServiceDoesNotKeepPlainPasswords(t *testing.T) {
	auth := newTestAuth(t)
	for _, acc := range auth.accounts {
		assert.NotContains(t, acc.PasswordHash, "Workshop2024")
	}
}

func TestNewAuthServiceRejectsBadCredentials(t *testing.T) {
	_, err := NewAuthService(Credential{Username: "admin"})
	assert.Error(t, err)

	_, err = NewAuthService(
		Credential{Username: "admin", Password: "a"},
		Credential{Username: "admin", Password: "b"},
	)
	assert.Error(t, err)
}
