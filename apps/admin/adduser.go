package main

import (
	"context"
	"fmt"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/user"
)

// addUser updates or creates a user.User of the organization
func (cli *commandLine) addUser(orgID, name, uname, email, pwd, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	if name = core.CleanString(name); name == "" {
		name = uname
	}
	if user.RolePriority(role) == 0 {
		return fmt.Errorf("unknown role %q", role)
	}

	if _, err := cli.orgSvc.Get(ctx, orgID); err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
	if err != nil && err != user.ErrNotFound {
		return err
	}
	exists := err == nil
	if !exists {
		now := core.Now()
		usr = user.User{
			ID:        core.NewID(),
			Username:  uname,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	usr.OrganizationID = orgID
	usr.Name = name
	usr.Roles = []string{role}
	usr.IsActive = true
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		usr.UpdatedAt = core.Now()
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
