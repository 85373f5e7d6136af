package user_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
	"github.com/trezcool/admissions/core/user"
	"github.com/trezcool/admissions/services/email"
	"github.com/trezcool/admissions/services/logger"
	"github.com/trezcool/admissions/storage/database/inmem"
	"github.com/trezcool/admissions/testutil"
)

const goodPwd = "Xq7#mZ!v9kT"

var ctx = context.Background()

type fixture struct {
	repo     user.Repository
	svc      user.Service
	mail     *emailsvc.ConsoleService
	validate *validator.Validate
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conf := core.NewTestConfig()
	validate, _ := testutil.NewValidator(conf)
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	mail := emailsvc.NewConsoleService(conf, nil, logsvc.NewNopLogger())
	return fixture{
		repo:     repo,
		svc:      user.NewService(repo, mail, conf),
		mail:     mail,
		validate: validate,
	}
}

func TestNewUser_Validate(t *testing.T) {
	f := newFixture(t)
	testutil.CreateUser(t, f.repo, "Taken", "taken01", "taken@test.vn", "", nil, true)

	tests := []struct {
		name      string
		nu        user.NewUser
		wantField string
		wantTag   string
	}{
		{
			name: "valid",
			nu:   user.NewUser{Name: "Lan", Username: "Lan_Nguyen", Password: goodPwd, PasswordConfirm: goodPwd},
		},
		{
			name:      "username or email required",
			nu:        user.NewUser{Name: "Lan", Password: goodPwd, PasswordConfirm: goodPwd},
			wantField: "username", wantTag: "username_or_email",
		},
		{
			name:      "passwords mismatch",
			nu:        user.NewUser{Name: "Lan", Email: "lan@test.vn", Password: goodPwd, PasswordConfirm: "nope"},
			wantField: "password_confirm", wantTag: "eqfield",
		},
		{
			name:      "password too short",
			nu:        user.NewUser{Name: "Lan", Email: "lan@test.vn", Password: "Ab1#", PasswordConfirm: "Ab1#"},
			wantField: "password", wantTag: "pwdminlen",
		},
		{
			name:      "password all numeric",
			nu:        user.NewUser{Name: "Lan", Email: "lan@test.vn", Password: "1234567890", PasswordConfirm: "1234567890"},
			wantField: "password", wantTag: "pwdnotallnum",
		},
		{
			name:      "password not complex",
			nu:        user.NewUser{Name: "Lan", Email: "lan@test.vn", Password: "abcdefghij", PasswordConfirm: "abcdefghij"},
			wantField: "password", wantTag: "pwdcplx",
		},
		{
			name:      "unknown role",
			nu:        user.NewUser{Name: "Lan", Email: "lan@test.vn", Password: goodPwd, PasswordConfirm: goodPwd, Roles: []string{"root:"}},
			wantField: "roles", wantTag: "allroles",
		},
		{
			name:      "staff without university",
			nu:        user.NewUser{Name: "Lan", Email: "lan@test.vn", Password: goodPwd, PasswordConfirm: goodPwd, Roles: []string{user.RoleStaff}},
			wantField: "university_id", wantTag: "staff_university",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(f.validate, f.svc)
			if tt.wantField == "" {
				assert.NoError(t, err)
				assert.Equal(t, "lan_nguyen", tt.nu.Username, "username is lowered")
				return
			}
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			found := false
			for _, fe := range verrs {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			assert.True(t, found, "want %s on %s, got %v", tt.wantTag, tt.wantField, verrs)
		})
	}

	t.Run("duplicate username", func(t *testing.T) {
		nu := user.NewUser{Name: "Other", Username: "TAKEN01", Password: goodPwd, PasswordConfirm: goodPwd}
		err := nu.Validate(f.validate, f.svc)
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Equal(t, []core.FieldError{{Field: "username", Error: user.ErrUsernameExists.Error()}}, verr.Fields)
	})
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)

	usr, err := f.svc.Create(ctx, user.NewUser{
		Name: "Minh", Email: "minh@hust.edu.vn", Password: goodPwd,
		Roles: []string{user.RoleStaff}, UniversityID: "uni-1",
	})
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsStaff())
	assert.True(t, usr.CanManage("uni-1"))
	assert.False(t, usr.CanManage("uni-2"))
	assert.NoError(t, usr.CheckPassword(goodPwd))

	got, err := f.svc.GetByUsernameOrEmail(ctx, "  MINH@hust.edu.vn ")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
}

func TestService_Query(t *testing.T) {
	f := newFixture(t)

	base := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	an := testutil.CreateUser(t, f.repo, "An", "an0001", "an@test.vn", "", []string{user.RoleStaff}, true, base)
	binh := testutil.CreateUser(t, f.repo, "Bình", "binh01", "binh@test.vn", "", nil, true, base.Add(time.Hour))
	chi := testutil.CreateUser(t, f.repo, "Chi", "chi001", "chi@test.vn", "", []string{user.RoleAdmin}, false, base.Add(2*time.Hour))
	dung := testutil.CreateUser(t, f.repo, "Dũng", "dung01", "dung@other.vn", "", []string{user.RoleStaff}, true, base.Add(3*time.Hour))

	active := true
	tests := []struct {
		name   string
		filter user.QueryFilter
		query  listview.QueryState
		want   []user.User
		state  listview.State
	}{
		{name: "all, newest first", query: listview.NewQueryState(listview.SortNewest), want: []user.User{dung, chi, binh, an}, state: listview.StateResults},
		{name: "oldest first", query: listview.NewQueryState(listview.SortOldest), want: []user.User{an, binh, chi, dung}, state: listview.StateResults},
		{name: "by name", query: listview.NewQueryState(listview.SortTitle), want: []user.User{an, binh, chi, dung}, state: listview.StateResults},
		{
			name:  "search email",
			query: listview.NewQueryState(listview.SortNewest).WithSearchText("TEST.VN"),
			want:  []user.User{chi, binh, an}, state: listview.StateResults,
		},
		{
			name:   "staff",
			filter: user.QueryFilter{Roles: []string{user.RoleStaff}},
			query:  listview.NewQueryState(listview.SortOldest),
			want:   []user.User{an, dung}, state: listview.StateResults,
		},
		{
			name:   "active staff matching search",
			filter: user.QueryFilter{Roles: []string{user.RoleStaff}, IsActive: &active},
			query:  listview.NewQueryState(listview.SortOldest).WithSearchText("other"),
			want:   []user.User{dung}, state: listview.StateResults,
		},
		{
			name:  "no matches",
			query: listview.NewQueryState(listview.SortNewest).WithSearchText("zzz"),
			want:  []user.User{}, state: listview.StateNoMatches,
		},
		{
			name:   "no data",
			filter: user.QueryFilter{UniversityID: "nowhere"},
			query:  listview.NewQueryState(listview.SortNewest),
			want:   []user.User{}, state: listview.StateNoData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win, err := f.svc.Query(ctx, tt.filter, tt.query, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, win.Items)
			assert.Equal(t, tt.state, win.State)
		})
	}

	t.Run("paginated", func(t *testing.T) {
		win, err := f.svc.Query(ctx, user.QueryFilter{}, listview.NewQueryState(listview.SortOldest).WithPage(2), 3)
		require.NoError(t, err)
		assert.Equal(t, []user.User{dung}, win.Items)
		assert.Equal(t, 4, win.TotalItems)
		assert.Equal(t, 2, win.TotalPages)
		assert.Equal(t, 2, win.CurrentPage)
	})
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	lan := testutil.CreateUser(t, f.repo, "Lan", "lan001", "lan@test.vn", goodPwd, nil, true)
	testutil.CreateUser(t, f.repo, "Other", "other1", "other@test.vn", "", nil, true)

	t.Run("email taken", func(t *testing.T) {
		uu := user.UpdateUser{Email: "other@test.vn"}
		err := uu.Validate(lan, f.validate, f.svc)
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Equal(t, "email", verr.Fields[0].Field)
	})

	t.Run("password confirm required", func(t *testing.T) {
		uu := user.UpdateUser{Password: "N3w!Passphrase"}
		err := uu.Validate(lan, f.validate, f.svc)
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs), "got %v", err)
		assert.Equal(t, "password_confirm", verrs[0].Field())
	})

	t.Run("partial update", func(t *testing.T) {
		inactive := false
		uu := user.UpdateUser{Name: " Lan Nguyễn ", IsActive: &inactive, Password: "N3w!Passphrase", PasswordConfirm: "N3w!Passphrase"}
		require.NoError(t, uu.Validate(lan, f.validate, f.svc))

		got, err := f.svc.Update(ctx, lan, uu)
		require.NoError(t, err)
		assert.Equal(t, "Lan Nguyễn", got.Name)
		assert.Equal(t, "lan001", got.Username, "blank fields keep their value")
		assert.Equal(t, "lan@test.vn", got.Email)
		assert.False(t, got.IsActive)
		assert.NoError(t, got.CheckPassword("N3w!Passphrase"))
	})
}

var resetLinkRegex = regexp.MustCompile(`/password-reset/([^/\s]+)/(\S+)`)

func TestService_PasswordReset(t *testing.T) {
	f := newFixture(t)
	lan := testutil.CreateUser(t, f.repo, "Lan", "lan001", "lan@test.vn", goodPwd, nil, true)
	testutil.CreateUser(t, f.repo, "Gone", "gone01", "gone@test.vn", "", nil, false)

	assert.Equal(t, user.ErrNotFound, f.svc.RequestPasswordReset(ctx, "nobody@test.vn"))
	assert.Equal(t, user.ErrNotFound, f.svc.RequestPasswordReset(ctx, "gone@test.vn"), "inactive users get no link")
	assert.Empty(t, f.mail.Sent())

	require.NoError(t, f.svc.RequestPasswordReset(ctx, " LAN@test.vn"))
	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "lan@test.vn", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Hello Lan")

	match := resetLinkRegex.FindStringSubmatch(sent[0].TextContent)
	require.Len(t, match, 3)
	uid, token := match[1], match[2]
	assert.Equal(t, user.EncodeUID(lan), uid)

	newPwd := "Fr3sh&Start99"
	tests := []struct {
		name    string
		data    user.ResetUserPassword
		wantErr bool
	}{
		{name: "bad uid", data: user.ResetUserPassword{UID: "%%%", Token: token, Password: newPwd}, wantErr: true},
		{name: "unknown user", data: user.ResetUserPassword{UID: user.EncodeUID(user.User{ID: "x"}), Token: token, Password: newPwd}, wantErr: true},
		{name: "bad token", data: user.ResetUserPassword{UID: uid, Token: "abc-def", Password: newPwd}, wantErr: true},
		{name: "ok", data: user.ResetUserPassword{UID: uid, Token: token, Password: newPwd}},
		{name: "token used", data: user.ResetUserPassword{UID: uid, Token: token, Password: newPwd}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.ResetPassword(ctx, tt.data)
			if tt.wantErr {
				var verr *core.ValidationError
				assert.True(t, errors.As(err, &verr), "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}

	got, err := f.svc.GetByID(ctx, lan.ID)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword(newPwd))
}
