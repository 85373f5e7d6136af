package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/user"
	emailsvc "github.com/trezcool/admissions/services/email"
	logsvc "github.com/trezcool/admissions/services/logger"
	inmemdb "github.com/trezcool/admissions/storage/database/inmem"
	"github.com/trezcool/admissions/testutil"
)

const goodPwd = "Xq7#mZ!v9kT"

var (
	usrRepo user.Repository
	uniRepo catalog.Repository[catalog.University]
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	// set up DB & repos
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	uniRepo = inmemdb.NewUniversityRepository(db)
	validate, _ := testutil.NewValidator(conf)

	// start CLI
	cli := &commandLine{conf: conf, validate: validate}
	cli.setRepos(usrRepo, uniRepo)
	cli.usrSvc = user.NewService(usrRepo, emailsvc.NewConsoleService(conf, nil, logsvc.NewNopLogger()), conf)
	return cli
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if pwd == "" {
			return nil, nil
		}
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "down-by-one", "version": // pass
		case "goto", "force":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: migrate %s VERSION", command, command)
			}
			if _, err := strconv.ParseUint(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "goto: no args", args: []string{"migrate", "goto"}, wantErrStr: "goto must be of form: migrate goto VERSION"},
		{name: "goto: non-int arg", args: []string{"migrate", "goto", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "force: no args", args: []string{"migrate", "force"}, wantErrStr: "force must be of form: migrate force VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-by-one", args: []string{"migrate", "down-by-one"}},
		{name: "goto", args: []string{"migrate", "goto", "2"}},
		{name: "force", args: []string{"migrate", "force", "1"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe001", "awe@test.vn", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", "AWE@test.vn"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		var pwd string
		if extra, ok := tt.extra.(extra); ok {
			pwd = extra.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				if err := refreshedUsr.CheckPassword(pwd); err != nil {
					t.Errorf("CheckPassword() failed, %v", err)
				}
			} else if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	uni := testutil.CreateUniversity(t, uniRepo, "BKA", "Đại học Bách khoa Hà Nội")
	existing := testutil.CreateUser(t, usrRepo, "Existing", "exist01", "exist@test.vn", "mdr", nil, false)

	type extra struct {
		pwd       string
		wantRoles []string
		wantUni   string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "admin01"}, wantErr: errHelp},
		{
			name:    "unknown university",
			args:    []string{"adduser", "-username", "staff01", "-university", "lol"},
			extra:   extra{pwd: goodPwd},
			wantErr: errUniversityNotFound,
		},
		{
			name:  "weak password",
			args:  []string{"adduser", "-username", "weak01"},
			extra: extra{pwd: "12345678"},
		},
		{
			name:  "new admin",
			args:  []string{"adduser", "-username", "Admin01", "-email", "admin@test.vn", "-admin"},
			extra: extra{pwd: goodPwd, wantRoles: user.AdminRoles},
		},
		{
			name:  "new staff",
			args:  []string{"adduser", "-email", "staff@test.vn", "-name", "Nguyễn Văn A", "-university", uni.ID},
			extra: extra{pwd: goodPwd, wantRoles: []string{user.RoleStaff}, wantUni: uni.ID},
		},
		{
			name:  "existing user is reactivated",
			args:  []string{"adduser", "-username", existing.Username},
			extra: extra{pwd: "lol", wantRoles: []string{}},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		ext, _ := tt.extra.(extra)
		mockPassword(ext.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.name == "weak password" {
				if _, ok := errors.Cause(err).(validator.ValidationErrors); !ok {
					t.Errorf("cli.run() error = %v, want validator.ValidationErrors", err)
				}
				return
			}
			if err != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			uname := ""
			for i, arg := range tt.args {
				if (arg == "-username" || arg == "-email") && i+1 < len(tt.args) {
					uname = tt.args[i+1]
					break
				}
			}
			usr, err := cli.usrSvc.GetByUsernameOrEmail(context.Background(), uname)
			if err != nil {
				t.Fatalf("GetByUsernameOrEmail() failed, %v", err)
			}
			if !usr.IsActive {
				t.Error("user is not active")
			}
			if err := usr.CheckPassword(ext.pwd); err != nil {
				t.Errorf("CheckPassword() failed, %v", err)
			}
			if fmt.Sprint(usr.Roles) != fmt.Sprint(ext.wantRoles) {
				t.Errorf("roles = %v, want %v", usr.Roles, ext.wantRoles)
			}
			if usr.UniversityID.String != ext.wantUni {
				t.Errorf("university_id = %q, want %q", usr.UniversityID.String, ext.wantUni)
			}
		})
	}
}

func Test_commandLine_browse(t *testing.T) {
	cli := setup(t)

	var gotEntity, gotAPI string
	var gotPageSize int
	browseFunc = func(entity, apiURL string, pageSize int) error {
		gotEntity, gotAPI, gotPageSize = entity, apiURL, pageSize
		return nil
	}

	tests := []cliTest{
		{name: "no entity", args: []string{"browse"}, wantErr: errHelp},
		{name: "default api", args: []string{"browse", "-entity", "majors"}},
		{name: "custom api", args: []string{"browse", "-entity", "news", "-api", "http://api.test"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}

	if gotEntity != "news" || gotAPI != "http://api.test" || gotPageSize != cli.conf.Server.DefaultPageSize {
		t.Errorf("browse(%q, %q, %d)", gotEntity, gotAPI, gotPageSize)
	}
}

func checkErr(t *testing.T, err error, tt cliTest) {
	t.Helper()
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() expected an error")
		}
		return
	}
	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}
