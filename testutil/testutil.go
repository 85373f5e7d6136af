// Package testutil holds the fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/user"
)

// NewValidator returns a validator with every app validation registered.
func NewValidator(conf *core.Config) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator, conf)
	user.RegisterValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateStaff creates an active staff account of universityID.
func CreateStaff(t *testing.T, repo user.Repository, uname, universityID string) user.User {
	t.Helper()

	usr := user.User{
		Name:         "Staff " + uname,
		Username:     uname,
		Email:        uname + "@test.vn",
		Roles:        []string{user.RoleStaff},
		IsActive:     true,
		UniversityID: null.StringFrom(universityID),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createStaff() failed: %v", err)
	}
	return usr
}

func CreateUniversity(t *testing.T, repo catalog.Repository[catalog.University], code, name string, createdAt ...time.Time) catalog.University {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	uni := catalog.University{
		Meta: catalog.Meta{ID: uuid.NewString(), CreatedAt: tstamp, UpdatedAt: tstamp},
		Code: code,
		Name: name,
	}
	uni, err := repo.Create(context.Background(), uni)
	if err != nil {
		t.Fatalf("createUniversity() failed: %v", err)
	}
	return uni
}

func CreateMajor(t *testing.T, repo catalog.Repository[catalog.Major], universityID, name string, quota int, createdAt ...time.Time) catalog.Major {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	m := catalog.Major{
		Meta:          catalog.Meta{ID: uuid.NewString(), CreatedAt: tstamp, UpdatedAt: tstamp},
		UniversityID:  universityID,
		Code:          "M" + tstamp.Format("150405.000"),
		Name:          name,
		Quota:         quota,
		AdmissionYear: time.Now().Year(),
	}
	m, err := repo.Create(context.Background(), m)
	if err != nil {
		t.Fatalf("createMajor() failed: %v", err)
	}
	return m
}
