package pgrepos

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/schoolportal/core"
)

func TestTrapConnErr(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantShutdown bool
	}{
		{name: "conn done", err: sql.ErrConnDone, wantShutdown: true},
		{name: "bad conn wrapped", err: errors.Wrap(driver.ErrBadConn, "exec"), wantShutdown: true},
		{name: "other", err: errors.New("duplicate key"), wantShutdown: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := trapConnErr(tc.err, "saving sheet")
			assert.Equal(t, tc.wantShutdown, core.IsShutdown(err))
			assert.Contains(t, err.Error(), "saving sheet")
		})
	}
}
