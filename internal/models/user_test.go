package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFlags(t *testing.T) {
	tests := []struct {
		name      string
		user      User
		admin     bool
		moderator bool
		plain     bool
	}{
		{"user", User{Role: RoleUser}, false, false, true},
		{"moderator", User{Role: RoleModerator}, false, true, false},
		{"admin", User{Role: RoleAdmin}, true, false, false},
		{"superuser with user role", User{Role: RoleUser, IsSuperuser: true}, true, false, false},
		{"superuser with moderator role", User{Role: RoleModerator, IsSuperuser: true}, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.admin, tt.user.IsAdmin())
			assert.Equal(t, tt.moderator, tt.user.IsModerator())
			assert.Equal(t, tt.plain, tt.user.IsUser())
			assert.Equal(t, tt.admin || tt.moderator, tt.user.IsStaff())
		})
	}
}

func TestRoleDemotionClearsStaff(t *testing.T) {
	u := User{Role: RoleAdmin}
	require.True(t, u.IsStaff())

	u.Role = RoleUser
	assert.False(t, u.IsStaff())
	assert.True(t, u.IsUser())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("owner").Valid())
	assert.False(t, Role("").Valid())
}

func TestUserHooks(t *testing.T) {
	u := &User{Username: "root", IsSuperuser: true}
	require.NoError(t, u.BeforeCreate(nil))
	require.NoError(t, u.BeforeSave(nil))

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.NotEmpty(t, u.ConfirmationStamp)
	assert.Equal(t, RoleAdmin, u.Role)

	plain := &User{Username: "alice"}
	require.NoError(t, plain.BeforeSave(nil))
	assert.Equal(t, RoleUser, plain.Role)

	id := uuid.New()
	kept := &User{ID: id, ConfirmationStamp: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, id, kept.ID)
	assert.Equal(t, "fixed", kept.ConfirmationStamp)
}
