package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionStatus(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusActive, true},
		{StatusActive, StatusInactive, true},
		{StatusInactive, StatusActive, true},
		{StatusActive, StatusActive, true},
		{StatusPending, StatusInactive, false},
		{StatusActive, StatusPending, false},
		{StatusInactive, StatusPending, false},
		{StatusActive, "suspended", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionStatus(tt.from, tt.to))
		})
	}
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Jane Broker", (&User{FullName: "Jane Broker", Email: "jane@fortifund.io"}).DisplayName())
	assert.Equal(t, "jane@fortifund.io", (&User{Email: "jane@fortifund.io"}).DisplayName())
}

func TestUser_IsActive(t *testing.T) {
	assert.True(t, (&User{Status: StatusActive}).IsActive())
	assert.False(t, (&User{Status: StatusPending}).IsActive())
	assert.False(t, (&User{Status: StatusInactive}).IsActive())
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleAdmin))
	assert.True(t, IsValidRole(RoleBroker))
	assert.False(t, IsValidRole("superuser"))
	assert.False(t, IsValidRole(""))
}
