package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learntrack/core/user"
)

// CheckUserRepoUpdate asserts that UpdateUser persists every mutable field,
// role included, so repository implementations cannot drift apart on update
// semantics.
func CheckUserRepoUpdate(t *testing.T, repo user.Repository, email string) user.User {
	t.Helper()
	ctx := context.Background()

	usr := CreateUser(t, repo, "Hero", email, "or!g1nalPwd", user.RoleStudent, nil)

	usr.Name = "Hero Prime"
	usr.Role = user.RoleAdmin
	usr.LastLogin = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, usr.SetPassword("upd@t3dPwd"))

	_, err := repo.UpdateUser(ctx, usr)
	require.NoError(t, err)

	got, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hero Prime", got.Name)
	assert.Equal(t, user.RoleAdmin, got.Role)
	assert.NoError(t, got.CheckPassword("upd@t3dPwd"))
	assert.Error(t, got.CheckPassword("or!g1nalPwd"))
	assert.WithinDuration(t, usr.LastLogin, got.LastLogin, time.Second)
	return got
}
