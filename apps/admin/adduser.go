package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

// addUser updates or creates a confirmed user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if errors.Cause(err) == user.ErrNotFound {
		usr, err = cli.usrSvc.GetByEmail(ctx, email)
	}
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}

		var roles []string
		if isAdmin {
			roles = []string{user.RoleAdmin}
		}
		usr, err = cli.usrSvc.Create(ctx, user.NewUser{
			FirstName: uname,
			Username:  uname,
			Email:     email,
			Lang:      cli.conf.Import.DefaultLang,
			Password:  pwd,
			Roles:     roles,
		})
		if err != nil {
			return errors.Wrap(err, "creating user")
		}
		fmt.Fprintf(cli.out, "user %q created\n", usr.Username)
		return nil
	}

	if err = cli.usrSvc.CheckUniqueness(ctx, uname, email, usr); err != nil {
		return err
	}
	usr.Username = uname
	usr.Email = email
	usr.Confirmed = true
	if isAdmin {
		usr.Roles = []string{user.RoleAdmin}
	}
	if _, err = cli.usrSvc.SetPassword(ctx, usr, pwd); err != nil {
		return errors.Wrap(err, "updating user")
	}
	fmt.Fprintf(cli.out, "user %q updated\n", usr.Username)
	return nil
}
