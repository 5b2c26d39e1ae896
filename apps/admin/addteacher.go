package main

import (
	"context"
	"time"

	"github.com/raphco/materia/core"
	"github.com/raphco/materia/core/user"
)

// addTeacher updates or creates an active teacher account.
func (cli *commandLine) addTeacher(email, name, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      name,
			Email:     email,
			Role:      user.RoleTeacher,
			CreatedAt: now,
		}
		usr.SetActive(true)
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.UpdatedAt = now
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.Name = name
	usr.Role = user.RoleTeacher
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
