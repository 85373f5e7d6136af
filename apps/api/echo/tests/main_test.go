package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/admissions/apps/api/echo"
	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/chat"
	"github.com/trezcool/admissions/core/user"
	emailsvc "github.com/trezcool/admissions/services/email"
	logsvc "github.com/trezcool/admissions/services/logger"
	inmemdb "github.com/trezcool/admissions/storage/database/inmem"
	"github.com/trezcool/admissions/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testApp is a server over fresh in-memory repositories.
type testApp struct {
	conf    *core.Config
	server  *echoapi.Server
	mail    *emailsvc.ConsoleService
	chat    *chatClientMock
	usrRepo user.Repository
	uniRepo catalog.Repository[catalog.University]
	majRepo catalog.Repository[catalog.Major]
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewNopLogger()
	validate, translator := testutil.NewValidator(conf)
	db := inmemdb.Open()

	app := &testApp{
		conf:    conf,
		mail:    emailsvc.NewConsoleService(conf, nil, logger),
		chat:    &chatClientMock{},
		usrRepo: inmemdb.NewUserRepository(db),
		uniRepo: inmemdb.NewUniversityRepository(db),
		majRepo: inmemdb.NewMajorRepository(db),
	}

	unis := app.uniRepo
	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:    conf,
		Logger:  logger,
		UserSvc: user.NewService(app.usrRepo, app.mail, conf),
		Catalog: echoapi.CatalogServices{
			Universities:     catalog.NewService(catalog.UniversityKind, unis, unis, validate),
			Majors:           catalog.NewService(catalog.MajorKind, app.majRepo, unis, validate),
			Programs:         catalog.NewService(catalog.ProgramKind, inmemdb.NewProgramRepository(db), unis, validate),
			Scholarships:     catalog.NewService(catalog.ScholarshipKind, inmemdb.NewScholarshipRepository(db), unis, validate),
			AdmissionMethods: catalog.NewService(catalog.AdmissionMethodKind, inmemdb.NewAdmissionMethodRepository(db), unis, validate),
			News:             catalog.NewService(catalog.NewsKind, inmemdb.NewNewsRepository(db), unis, validate),
		},
		ChatSvc:        chat.NewService(app.chat, conf.Chat),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return app
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.server.UserToken(usr)
	require.NoError(t, err)
	return token
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

// chatClientMock answers with a canned reply, or err when set.
type chatClientMock struct {
	mu   sync.Mutex
	err  error
	reqs []chat.Request
}

func (c *chatClientMock) Send(_ context.Context, req chat.Request) (chat.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return chat.Reply{}, c.err
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "s-new"
	}
	return chat.Reply{SessionID: sessionID, Message: "echo: " + req.Message, Sources: []string{"faq"}}, nil
}
