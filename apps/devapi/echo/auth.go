package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	tokenAudience   = "SchoolPortal"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name      string   `json:"name,omitempty"`
	IsTeacher bool     `json:"is_teacher,omitempty"`
	IsAdmin   bool     `json:"is_admin,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

func (c Claims) User() user.User {
	return user.User{ID: c.Subject, Name: c.Name, Roles: c.Roles}
}

// authEnabled reports whether requests must carry a token; a dev server without secret key is open.
func authEnabled(conf *core.Config) bool {
	return conf.SecretKey != ""
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:      usr.Name,
		IsTeacher: usr.IsTeacher(),
		IsAdmin:   usr.IsAdmin(),
		Roles:     usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	if !authEnabled(conf) {
		return "", errors.New("secret key is not set")
	}
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser returns the user behind the request token; anonymous when there is none.
func getContextUser(ctx echo.Context) user.User {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}
	}
	usr := claims.User()
	ctx.Set(contextUserKey, usr)
	return usr
}
