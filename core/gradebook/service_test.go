package gradebook_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolportal/core"
	. "github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
	inmemdb "github.com/trezcool/schoolportal/storage/database/inmem"
	"github.com/trezcool/schoolportal/tests"
)

var (
	ctx      = context.Background()
	classKey = ClassKey{ClassID: "c1", SectionID: "a", AcademicYear: "2024-25", Term: "Mid Term"}
)

func setup(t *testing.T) (*Service, records.Repository, Repository) {
	db := inmemdb.Open()
	recRepo := inmemdb.NewRecordRepository(db)
	gbRepo := inmemdb.NewGradebookRepository(db)
	validate, translator := core.NewValidator()

	testutil.CreateStudent(t, recRepo, "s1", "Asha Rao", "c1", "a", "2024-25")
	testutil.CreateStudent(t, recRepo, "s2", "Bilal Khan", "c1", "a", "2024-25")
	testutil.CreateStudent(t, recRepo, "s3", "Chen Wu", "c1", "b", "2024-25")
	testutil.CreateSubject(t, recRepo, "math", "Maths", "c1")
	testutil.CreateSubject(t, recRepo, "sci", "Science", "c1")
	testutil.CreateSubject(t, recRepo, "geo", "Geography", "c2")

	return NewService(gbRepo, DefaultTerms, validate, translator), recRepo, gbRepo
}

func fieldMap(t *testing.T, err error) map[string]string {
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "want a validation error, got %v", err)
	return vErr.FieldMap()
}

func TestService_OpenSheet(t *testing.T) {
	svc, _, gbRepo := setup(t)
	stored := testutil.SaveSheet(t, gbRepo, Sheet{
		SheetKey:     classKey.SheetKey("math"),
		StudentMarks: []StudentMarks{testutil.Marks("s1", 18, 4)},
	})

	t.Run("stored", func(t *testing.T) {
		key := classKey.SheetKey(" math ")
		key.Term = "MID TERM"
		ms, err := svc.OpenSheet(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, stored.SheetKey, ms.Key())
		assert.Equal(t, UnitMark{0, 18, 4}, ms.Mark("s1", 0))
		assert.True(t, ms.Editable())
	})

	t.Run("never saved", func(t *testing.T) {
		ms, err := svc.OpenSheet(ctx, classKey.SheetKey("sci"))
		require.NoError(t, err)
		assert.Equal(t, classKey.SheetKey("sci"), ms.Key())
		assert.Empty(t, ms.Sheet().StudentMarks)
		assert.False(t, ms.IsLocked())
	})

	t.Run("invalid key", func(t *testing.T) {
		_, err := svc.OpenSheet(ctx, SheetKey{ClassID: "c 1", AcademicYear: "24", Term: "Mid Term"})
		flds := fieldMap(t, err)
		assert.Equal(t, "only letters, digits, dashes and underscores are allowed", flds["classId"])
		assert.Equal(t, "this field is required", flds["sectionId"])
		assert.Equal(t, "this field is required", flds["subjectId"])
		assert.Contains(t, flds, "academicYear")
	})

	t.Run("unknown term", func(t *testing.T) {
		key := classKey.SheetKey("math")
		key.Term = "Spring"
		_, err := svc.OpenSheet(ctx, key)
		assert.Contains(t, fieldMap(t, err)["term"], "unknown term")
	})
}

func TestService_SaveSheet(t *testing.T) {
	svc, _, gbRepo := setup(t)
	key := classKey.SheetKey("math")

	t.Run("out of range", func(t *testing.T) {
		_, err := svc.SaveSheet(ctx, Sheet{
			SheetKey: key,
			StudentMarks: []StudentMarks{
				{StudentID: "s1", Marks: []UnitMark{{UnitIndex: 0, Theory: 21, Practical: 5}, {UnitIndex: 1, Theory: 1}}},
			},
		})
		flds := fieldMap(t, err)
		assert.Equal(t, "must be between 0 and 20", flds["studentMarks[0].marks[0].theory"])
		assert.Equal(t, `"Mid Term" has 1 unit(s)`, flds["studentMarks[0].marks[1].unitIndex"])
		assert.NotContains(t, flds, "studentMarks[0].marks[0].practical")
	})

	t.Run("student listed twice", func(t *testing.T) {
		_, err := svc.SaveSheet(ctx, Sheet{
			SheetKey: key,
			StudentMarks: []StudentMarks{
				{StudentID: "s1", Marks: []UnitMark{{UnitIndex: 0, Theory: 2}}},
				{StudentID: "s2", Marks: []UnitMark{{UnitIndex: 0, Theory: 10}}},
				{StudentID: " s1", Marks: []UnitMark{{UnitIndex: 0, Theory: 20, Practical: 5}}},
			},
		})
		flds := fieldMap(t, err)
		assert.Equal(t, `"s1" already has marks at studentMarks[0]`, flds["studentMarks[2].studentId"])
		assert.Len(t, flds, 1)

		_, err = gbRepo.GetSheet(ctx, key)
		assert.Equal(t, ErrNotFound, errors.Cause(err), "nothing is stored")
	})

	t.Run("canonical term", func(t *testing.T) {
		sheet := Sheet{SheetKey: key, StudentMarks: []StudentMarks{testutil.Marks("s1", 15, 5)}}
		sheet.Term = " mid term"
		saved, err := svc.SaveSheet(ctx, sheet)
		require.NoError(t, err)
		assert.Equal(t, "Mid Term", saved.Term)
		assert.Nil(t, saved.LockedAt)

		stored, err := gbRepo.GetSheet(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []UnitMark{{0, 15, 5}}, stored.MarksFor("s1"))
	})

	t.Run("unlocked sheets drop the lock time", func(t *testing.T) {
		sheet := Sheet{SheetKey: key, StudentMarks: []StudentMarks{testutil.Marks("s1", 16, 5)}}
		lockedAt := time.Now()
		sheet.LockedAt = &lockedAt
		saved, err := svc.SaveSheet(ctx, sheet)
		require.NoError(t, err)
		assert.False(t, saved.IsLocked)
		assert.Nil(t, saved.LockedAt)
	})

	t.Run("lock", func(t *testing.T) {
		saved, err := svc.SaveSheet(ctx, Sheet{SheetKey: key, StudentMarks: []StudentMarks{testutil.Marks("s1", 17, 5)}, IsLocked: true})
		require.NoError(t, err)
		assert.True(t, saved.IsLocked)
		assert.NotNil(t, saved.LockedAt)
	})

	t.Run("locked forever", func(t *testing.T) {
		_, err := svc.SaveSheet(ctx, Sheet{SheetKey: key, StudentMarks: []StudentMarks{testutil.Marks("s1", 20, 5)}})
		assert.Equal(t, ErrLocked, errors.Cause(err))

		stored, err := gbRepo.GetSheet(ctx, key)
		require.NoError(t, err)
		assert.True(t, stored.IsLocked)
		assert.Equal(t, []UnitMark{{0, 17, 5}}, stored.MarksFor("s1"))
	})
}

func TestService_SaveAndLock(t *testing.T) {
	svc, _, _ := setup(t)

	ms, err := svc.OpenSheet(ctx, classKey.SheetKey("math"))
	require.NoError(t, err)
	_, err = ms.SetTheory("s1", 0, 19)
	require.NoError(t, err)

	ms, err = svc.Save(ctx, ms)
	require.NoError(t, err)
	assert.True(t, ms.Editable())

	_, err = ms.SetPractical("s1", 0, 5)
	require.NoError(t, err)
	locked, err := svc.SaveAndLock(ctx, ms)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked())
	assert.True(t, ms.Editable(), "the working copy is left alone")

	_, err = svc.Save(ctx, locked)
	assert.Equal(t, ErrLocked, err)
	_, err = svc.SaveAndLock(ctx, locked)
	assert.Equal(t, ErrLocked, err)

	// a stale editable copy cannot overwrite the locked marks
	_, err = svc.Save(ctx, ms)
	assert.Equal(t, ErrLocked, errors.Cause(err))

	reopened, results, err := svc.SubjectReport(ctx, classKey.SheetKey("math"))
	require.NoError(t, err)
	assert.True(t, reopened.IsLocked())
	require.Len(t, results, 2)
	assert.Equal(t, "s1", results[0].Student.ID)
	assert.Equal(t, 24.0, results[0].Obtained)
	assert.Equal(t, GradeAPlus, results[0].Grade)
	assert.Equal(t, "s2", results[1].Student.ID)
	assert.Equal(t, Fail, results[1].Result)
}

func TestService_ClassReport(t *testing.T) {
	svc, _, gbRepo := setup(t)
	testutil.SaveSheet(t, gbRepo, Sheet{
		SheetKey:     classKey.SheetKey("math"),
		StudentMarks: []StudentMarks{testutil.Marks("s1", 20, 5), testutil.Marks("s2", 15, 3)},
		IsLocked:     true,
	})
	testutil.SaveSheet(t, gbRepo, Sheet{
		SheetKey:     classKey.SheetKey("sci"),
		StudentMarks: []StudentMarks{testutil.Marks("s1", 20, 5), testutil.Marks("s2", 5, 2)},
	})

	report, err := svc.ClassReport(ctx, classKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"Science"}, report.Pending)
	require.Len(t, report.Subjects, 1)
	assert.Equal(t, "math", report.Subjects[0].ID)
	require.Len(t, report.Students, 2)

	asha, bilal := report.Students[0], report.Students[1]
	assert.Equal(t, 25.0, asha.TotalObtained)
	assert.Equal(t, 25.0, asha.TotalMax)
	assert.Equal(t, GradeAPlus, asha.Grade)
	assert.Equal(t, Pass, asha.Result)
	assert.Equal(t, 18.0, bilal.TotalObtained)
	assert.Equal(t, 72.0, bilal.Percent)
	assert.Equal(t, GradeB, bilal.Grade)

	// once science is locked Bilal fails it, whatever his aggregate
	testutil.SaveSheet(t, gbRepo, Sheet{
		SheetKey:     classKey.SheetKey("sci"),
		StudentMarks: []StudentMarks{testutil.Marks("s1", 20, 5), testutil.Marks("s2", 5, 2)},
		IsLocked:     true,
	})
	report, err = svc.ClassReport(ctx, classKey)
	require.NoError(t, err)
	assert.Empty(t, report.Pending)
	bilal = report.Students[1]
	assert.Equal(t, 25.0, bilal.TotalObtained)
	assert.Equal(t, 50.0, bilal.TotalMax)
	assert.Equal(t, GradeC, bilal.Grade)
	assert.Equal(t, Fail, bilal.Result)
	assert.Equal(t, []string{"Science"}, bilal.FailedSubjects)

	_, err = svc.ClassReport(ctx, ClassKey{ClassID: "c1", Term: "Mid Term"})
	assert.Contains(t, fieldMap(t, err), "sectionId")
}
