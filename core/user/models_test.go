package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learntrack/core"
)

func TestRole_Valid(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, role.Valid(), "role %q should be valid", role)
	}
	assert.False(t, Role("principal").Valid())
	assert.False(t, Role("").Valid())
}

func TestUser_SetCheckPassword(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("s3cr3tPwd"))
	assert.NotEmpty(t, usr.PasswordHash)
	assert.NoError(t, usr.CheckPassword("s3cr3tPwd"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

func Test_passwordPolicy(t *testing.T) {
	reg := func(pwd string) NewUser {
		return NewUser{
			Name:            "John Doe",
			Email:           "john@test.cd",
			Role:            RoleStudent,
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}

	tests := []struct {
		name    string
		nu      NewUser
		wantTag string
	}{
		{name: "too short", nu: reg("abc1"), wantTag: pwdMinLenTag},
		{name: "whitespace", nu: reg("abc defg1"), wantTag: pwdNoSpaceTag},
		{name: "all numeric", nu: reg("12345678"), wantTag: pwdNotAllNumTag},
		{name: "similar to email", nu: reg("john@test.cd"), wantTag: pwdAttrSimTag},
		{name: "valid", nu: reg("v4l1dPassword")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.Validate.Struct(tt.nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, vErrs, 1)
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func Test_userRoleValidation(t *testing.T) {
	nu := NewUser{
		Name:            "Jane Admin",
		Email:           "jane@test.cd",
		Role:            Role("principal"),
		Password:        "v4l1dPassword",
		PasswordConfirm: "v4l1dPassword",
	}
	err := core.Validate.Struct(nu)
	require.Error(t, err)
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, userRoleTag, vErrs[0].Tag())
}
