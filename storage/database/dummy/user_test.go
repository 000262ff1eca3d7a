package dummydb_test

import (
	"testing"

	dummydb "github.com/trezcool/learntrack/storage/database/dummy"
	testutil "github.com/trezcool/learntrack/tests"
)

func TestUserRepository_UpdateUser(t *testing.T) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatal(err)
	}
	testutil.CheckUserRepoUpdate(t, dummydb.NewUserRepository(db), "hero@test.cd")
}
