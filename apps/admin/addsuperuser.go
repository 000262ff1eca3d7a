package main

import (
	"context"
	"time"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/user"
)

// addSuperUser updates or creates an admin user.User
func (cli *commandLine) addSuperUser(name, email, pwd string) error {
	var usr user.User
	var err error
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	created := false
	if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email}); err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      name,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
		created = true
	}
	usr.Role = user.RoleAdmin
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if created {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
