package main

import (
	echoapi "github.com/trezcool/schoolportal/apps/devapi/echo"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/user"
)

func makeToken(conf *core.Config, sub, name string, roles []string) (string, error) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	nt := user.NewToken{Subject: sub, Name: name, Roles: roles}
	if err := user.ValidateToken(&nt, validate, translator); err != nil {
		return "", err
	}
	return echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, nt.User()))
}
