package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.DevAPI.Address)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare builds the rollbar args of an event.
// accepted args: error, map[string]interface{} (extras), user.User (person), gradebook.SheetKey.
// A sheet key is reported as the "sheet" extra.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var (
		person *user.User
		extras map[string]interface{}
	)
	out := []interface{}{msg}
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if person == nil && v.ID != "" {
				usr := v
				person = &usr
			}
		case gradebook.SheetKey:
			if extras == nil {
				extras = make(map[string]interface{})
			}
			extras["sheet"] = v
		case map[string]interface{}:
			if extras == nil {
				extras = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				extras[k] = val
			}
		default:
			out = append(out, arg)
		}
	}
	if extras != nil {
		out = append(out, extras)
	}

	if person != nil {
		rollbar.SetPerson(person.ID, person.Name, "")
	} else {
		rollbar.ClearPerson()
	}
	return out
}

// print writes the event to the std logger; people are left out of local logs.
func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		switch arg.(type) {
		case user.User:
		case gradebook.SheetKey:
			l.std.Printf("sheet: %+v\n", arg)
		default:
			l.std.Printf("%+v\n", arg)
		}
	}
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	rollbar.Log(level, l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	l.std.Fatal(msg)
}
