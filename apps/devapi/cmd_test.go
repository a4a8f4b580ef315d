package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/schoolportal/apps/devapi/echo"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/records"
	inmemdb "github.com/trezcool/schoolportal/storage/database/inmem"
	"github.com/trezcool/schoolportal/tests"
)

func setup(t *testing.T, secretKey ...string) (*commandLine, *bytes.Buffer) {
	var out bytes.Buffer
	return &commandLine{conf: testutil.Config(secretKey...), out: &out}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	type call struct {
		command string
		args    []string
	}
	var got call
	migrateFunc = func(conf *core.Config, command string, args ...string) error {
		got = call{command: command, args: args}
		return nil
	}
	defer func() { migrateFunc = runMigrations }()

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "up", args: []string{"migrate", "up"}, extra: call{command: "up", args: []string{}}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}, extra: call{command: "up-to", args: []string{"2"}}},
		{name: "down", args: []string{"migrate", "down"}, extra: call{command: "down", args: []string{}}},
		{name: "status", args: []string{"migrate", "status"}, extra: call{command: "status", args: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = call{}
			err := cli.run(append([]string{"devapi"}, tt.args...))
			checkErr(t, tt, err)
			if tt.extra != nil {
				assert.Equal(t, tt.extra, got)
			}
		})
	}
}

func Test_commandLine_serve(t *testing.T) {
	cli, _ := setup(t)

	var gotAddr, gotSeed string
	serveFunc = func(conf *core.Config, seedFile string) error {
		gotAddr, gotSeed = conf.DevAPI.Address, seedFile
		return nil
	}
	defer func() { serveFunc = serve }()

	tests := []cliTest{
		{name: "default command", args: []string{}, extra: [2]string{":0", ""}},
		{name: "flags", args: []string{"serve", "-addr", ":8080", "-seed", "seed.json"}, extra: [2]string{":8080", "seed.json"}},
		{name: "bad flag", args: []string{"serve", "-lol"}, wantErrStr: "flag provided but not defined"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotAddr, gotSeed = "", ""
			cli.conf.DevAPI.Address = ":0"
			err := cli.run(append([]string{"devapi"}, tt.args...))
			checkErr(t, tt, err)
			if tt.extra != nil {
				assert.Equal(t, tt.extra, [2]string{gotAddr, gotSeed})
			}
		})
	}
}

func Test_commandLine_token(t *testing.T) {
	tests := []cliTest{
		{name: "no flags", args: []string{"token"}, wantErr: errHelp},
		{name: "no role", args: []string{"token", "-sub", "t1"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"token", "-sub", "t1", "-role", "janitor:"}, wantErrStr: "roles"},
		{name: "teacher", args: []string{"token", "-sub", "t1", "-name", "Mrs T", "-role", "teacher:,teacher:class"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, "secret")
			err := cli.run(append([]string{"devapi"}, tt.args...))
			checkErr(t, tt, err)
			if err != nil {
				return
			}

			claims := new(echoapi.Claims)
			_, err = jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
				return []byte("secret"), nil
			})
			require.NoError(t, err)
			assert.Equal(t, "t1", claims.Subject)
			assert.Equal(t, "Mrs T", claims.Name)
			assert.True(t, claims.IsTeacher)
			assert.Equal(t, []string{"teacher:", "teacher:class"}, claims.Roles)
		})
	}

	t.Run("no secret key", func(t *testing.T) {
		cli, _ := setup(t)
		err := cli.run([]string{"devapi", "token", "-sub", "t1", "-role", "admin:"})
		assert.EqualError(t, err, "secret key is not set")
	})
}

func Test_seed(t *testing.T) {
	repo := inmemdb.NewRecordRepository(inmemdb.Open())

	n, err := seed(context.Background(), repo, strings.NewReader(`{
		"students": [{"id": "s1", "name": "Asha"}, {"id": "s2", "name": "Ravi"}],
		"transport/routes": [{"id": "r1", "name": "North"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec, err := repo.GetRecord(context.Background(), "students", "s2")
	require.NoError(t, err)
	assert.Equal(t, records.Record{"id": "s2", "name": "Ravi"}, rec)

	_, err = seed(context.Background(), repo, strings.NewReader(`{"spaceships": [{"id": "x"}]}`))
	assert.Equal(t, records.ErrUnknownKind, errors.Cause(err))

	_, err = seed(context.Background(), repo, strings.NewReader(`[]`))
	assert.Error(t, err)
}
