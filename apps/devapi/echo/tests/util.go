package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/schoolportal/apps/devapi/echo"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
	"github.com/trezcool/schoolportal/core/user"
	emailsvc "github.com/trezcool/schoolportal/services/email"
	inmemdb "github.com/trezcool/schoolportal/storage/database/inmem"
	"github.com/trezcool/schoolportal/tests"
)

const secretKey = "secret"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	conf    *core.Config
	app     Server
	recRepo records.Repository
	gbRepo  gradebook.Repository
	mailer  *emailsvc.ConsoleServiceMock
}

// setup starts a server over a fresh in-memory store; auth is on with a secret key.
func setup(t *testing.T, secretKey ...string) fixture {
	conf := testutil.Config(secretKey...)
	conf.NotifyEmails = []string{"Office <office@school.test>"}
	mailer := emailsvc.NewConsoleServiceMock(conf, testutil.Logger())

	// set up DB & repos
	db := inmemdb.Open()
	recRepo := inmemdb.NewRecordRepository(db)
	gbRepo := inmemdb.NewGradebookRepository(db)

	// set up services
	validate, translator := core.NewValidator()
	gradebookSvc := gradebook.NewService(gbRepo, gradebook.DefaultTerms, validate, translator)

	// set up server
	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testutil.Logger(),
		RecordSvc:      records.NewService(recRepo),
		GradebookSvc:   gradebookSvc,
		Mailer:         mailer,
		DisableReqLogs: true,
	})
	return fixture{conf: conf, app: app, recRepo: recRepo, gbRepo: gbRepo, mailer: mailer}
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

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (f fixture) getToken(t *testing.T, id string, roles ...string) string {
	token, err := GenerateToken(f.conf, GetUserClaims(f.conf, user.User{ID: id, Roles: roles}))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (f fixture) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	f.app.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
