package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-tinyioc/framework/security"
)

func TestMemorySession_LoginLogout(t *testing.T) {
	s := security.NewMemorySession(nil)

	_, ok := s.CurrentUser()
	assert.False(t, ok, "a new session is logged out")

	require.NoError(t, s.Login("ann", ""))
	user, ok := s.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "ann", user)
	role, _ := s.CurrentRole()
	assert.Equal(t, security.RoleUser, role, "empty role defaults to USER")

	require.NoError(t, s.Login("root", security.RoleAdmin))
	role, _ = s.CurrentRole()
	assert.Equal(t, security.RoleAdmin, role, "login replaces the previous one")

	s.Logout()
	_, ok = s.CurrentUser()
	assert.False(t, ok)
	_, ok = s.CurrentRole()
	assert.False(t, ok)
}

func TestMemorySession_EmptyUser(t *testing.T) {
	s := security.NewMemorySession(nil)
	assert.ErrorIs(t, s.Login("", security.RoleAdmin), security.ErrEmptyUser)
}

func TestMemorySession_Reset(t *testing.T) {
	s := security.NewMemorySession(nil)
	require.NoError(t, s.Login("ann", security.RoleUser))
	s.Reset()
	_, ok := s.CurrentUser()
	assert.False(t, ok)
}

func TestAllows(t *testing.T) {
	tests := []struct {
		role, required string
		want           bool
	}{
		{security.RoleUser, security.RoleUser, true},
		{security.RoleUser, security.RoleAdmin, false},
		{security.RoleAdmin, security.RoleUser, true},
		{security.RoleAdmin, "AUDITOR", true},
		{"AUDITOR", "AUDITOR", true},
		{"", security.RoleUser, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.required, func(t *testing.T) {
			assert.Equal(t, tt.want, security.Allows(tt.role, tt.required))
		})
	}
}
