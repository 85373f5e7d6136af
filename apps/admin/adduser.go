package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/user"
)

var errUniversityNotFound = errors.New("university not found")

type newUserArgs struct {
	name, uname, email, pwd string
	isAdmin                 bool
	universityID            string
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(a newUserArgs) error {
	ctx := context.Background()
	a.uname = core.CleanString(a.uname, true /* lower */)
	a.email = core.CleanString(a.email, true /* lower */)
	a.universityID = core.CleanString(a.universityID)

	var roles []string
	switch {
	case a.isAdmin:
		roles = append([]string{}, user.AdminRoles...)
	case a.universityID != "":
		roles = []string{user.RoleStaff}
	}
	if a.universityID != "" {
		if _, err := cli.universities.Get(ctx, a.universityID); err != nil {
			if core.IsNotFound(err) {
				return errUniversityNotFound
			}
			return errors.Wrap(err, "getting university")
		}
	}

	usr, err := cli.findUser(ctx, a.uname, a.email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		return cli.createUser(ctx, a, roles)
	}

	if roles != nil {
		usr.Roles = roles
	}
	if a.universityID != "" {
		usr.UniversityID = null.StringFrom(a.universityID)
	}
	usr.IsActive = true
	if err := usr.SetPassword(a.pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}

func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	if uname != "" {
		if usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname); err == nil || errors.Cause(err) != user.ErrNotFound {
			return usr, err
		}
	}
	return cli.usrRepo.GetUserByEmail(ctx, email)
}

func (cli *commandLine) createUser(ctx context.Context, a newUserArgs, roles []string) error {
	name := a.name
	if name == "" {
		name = a.uname
	}
	if name == "" {
		name = a.email
	}

	nu := user.NewUser{
		Name:            name,
		Username:        a.uname,
		Email:           a.email,
		Password:        a.pwd,
		PasswordConfirm: a.pwd,
		Roles:           roles,
		UniversityID:    a.universityID,
	}
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return err
	}
	_, err := cli.usrSvc.Create(ctx, nu)
	return err
}
