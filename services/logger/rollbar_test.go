package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/user"
)

func TestRollbarLogger_prepare(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "TEST : ", 0), &core.Config{Env: "test"})
	logger.Enable(false)

	err := errors.New("boom")
	extras := map[string]interface{}{"term": "Mid Term"}
	usr := user.User{ID: "usr-7f3c", Roles: []string{user.RoleTeacher}}

	args := logger.prepare("saving sheet", []interface{}{err, usr, extras, user.User{ID: "t2"}})
	assert.Equal(t, []interface{}{"saving sheet", err, extras}, args)

	key := gradebook.SheetKey{ClassID: "c10", SectionID: "A", SubjectID: "maths", AcademicYear: "2024-25", Term: "Mid Term"}
	args = logger.prepare("lock notice", []interface{}{key, extras})
	assert.Equal(t, []interface{}{"lock notice", map[string]interface{}{"sheet": key, "term": "Mid Term"}}, args)

	logger.Error("saving sheet", err, usr, key)
	assert.Contains(t, buf.String(), "TEST : saving sheet")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "SubjectID:maths")
	assert.NotContains(t, buf.String(), "usr-7f3c")
}
