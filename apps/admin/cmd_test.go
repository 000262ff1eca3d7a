package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learntrack/core/user"
	dummydb "github.com/trezcool/learntrack/storage/database/dummy"
)

func setup(t *testing.T) *commandLine {
	db, err := dummydb.Open()
	require.NoError(t, err)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("$3kr3T2020"), nil }

	return &commandLine{
		db:      new(sqlx.DB), // migrations are mocked out
		usrRepo: dummydb.NewUserRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_addSuperUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "no flags", args: []string{"addsuperuser"}, wantErr: errHelp},
		{name: "missing email", args: []string{"addsuperuser", "-name", "Jane Admin"}, wantErr: errHelp},
		{name: "ok", args: []string{"addsuperuser", "-name", "Jane Admin", "-email", "jane@learntrack.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "jane@learntrack.cd"})
			require.NoError(t, err)
			assert.Equal(t, user.RoleAdmin, usr.Role)
			assert.NoError(t, usr.CheckPassword("$3kr3T2020"))
		})
	}

	t.Run("existing user is promoted", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "addsuperuser", "-name", "Jane Admin", "-email", "jane@learntrack.cd"}))
		usrs, err := cli.usrRepo.QueryUsers(ctx, &user.QueryFilter{Search: "jane@learntrack.cd"}, nil)
		require.NoError(t, err)
		assert.Len(t, usrs, 1)
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := user.User{Name: "John Doe", Email: "john@learntrack.cd", Role: user.RoleStudent}
	require.NoError(t, usr.SetPassword("0ldPassword"))
	usr, err := cli.usrRepo.CreateUser(ctx, usr)
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no flags", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "unknown email", args: []string{"resetpassword", "-email", "ghost@learntrack.cd"}, wantErr: user.ErrNotFound},
		{name: "ok", args: []string{"resetpassword", "-email", "john@learntrack.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.NoError(t, usr.CheckPassword("$3kr3T2020"))
			assert.Error(t, usr.CheckPassword("0ldPassword"))
		})
	}
}
