package inmemdb

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

var ctx = context.Background()

func TestRecordRepository(t *testing.T) {
	db := Open()
	repo := NewRecordRepository(db)

	v1, err := repo.CreateRecord(ctx, "visitors", records.Record{"id": "v1", "name": "Zoe"})
	require.NoError(t, err)
	assert.Equal(t, "v1", v1.ID())

	v2, err := repo.CreateRecord(ctx, "visitors", records.Record{"name": "Adam"})
	require.NoError(t, err)
	assert.NotEmpty(t, v2.ID())

	// returned records are copies
	v1["name"] = "changed"
	got, err := repo.GetRecord(ctx, "visitors", "v1")
	require.NoError(t, err)
	assert.Equal(t, "Zoe", got["name"])

	recs, err := repo.QueryRecords(ctx, "visitors", nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "v1", recs[0].ID(), "insertion order")

	updated, err := repo.UpdateRecord(ctx, "visitors", "v1", records.Record{"name": "Zoe Park"})
	require.NoError(t, err)
	assert.Equal(t, records.Record{"id": "v1", "name": "Zoe Park"}, updated)

	_, err = repo.UpdateRecord(ctx, "teachers", "v1", records.Record{"name": "x"})
	assert.Equal(t, records.ErrNotFound, err)
	_, err = repo.GetRecord(ctx, "visitors", "v9")
	assert.Equal(t, records.ErrNotFound, err)

	require.NoError(t, repo.DeleteRecord(ctx, "visitors", "v1"))
	assert.Equal(t, records.ErrNotFound, repo.DeleteRecord(ctx, "visitors", "v1"))
	recs, err = repo.QueryRecords(ctx, "visitors", nil)
	require.NoError(t, err)
	assert.Equal(t, []records.Record{v2}, recs)

	db.Reset()
	recs, err = repo.QueryRecords(ctx, "visitors", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGradebookRepository(t *testing.T) {
	db := Open()
	recRepo := NewRecordRepository(db)
	repo := NewGradebookRepository(db)

	for _, rec := range []records.Record{
		{"id": "s1", "name": "Asha", "rollNo": 1.0, "classId": "c1", "sectionId": "a", "academicYear": "2024-25"},
		{"id": "s2", "name": "Bilal", "classId": "c1", "sectionId": "b", "academicYear": "2024-25"},
	} {
		_, err := recRepo.CreateRecord(ctx, "students", rec)
		require.NoError(t, err)
	}
	_, err := recRepo.CreateRecord(ctx, "subjects", records.Record{"id": "math", "name": "Maths", "classId": "c1"})
	require.NoError(t, err)

	students, err := repo.QueryStudents(ctx, gradebook.StudentFilter{ClassID: "c1", SectionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, []gradebook.Student{{ID: "s1", Name: "Asha", RollNo: "1", ClassID: "c1", SectionID: "a"}}, students)

	subjects, err := repo.QuerySubjects(ctx, gradebook.SubjectFilter{ClassID: "c2"})
	require.NoError(t, err)
	assert.Empty(t, subjects)

	key := gradebook.SheetKey{ClassID: "c1", SectionID: "a", SubjectID: "math", AcademicYear: "2024-25", Term: "Mid Term"}
	_, err = repo.GetSheet(ctx, key)
	assert.Equal(t, gradebook.ErrNotFound, err)

	sheet := gradebook.Sheet{SheetKey: key, StudentMarks: []gradebook.StudentMarks{{StudentID: "s1", Marks: []gradebook.UnitMark{{Theory: 10}}}}}
	_, err = repo.SaveSheet(ctx, sheet)
	require.NoError(t, err)
	sheet.StudentMarks[0].Marks[0].Theory = 20

	stored, err := repo.GetSheet(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.MarksFor("s1")[0].Theory, "stored sheets are copies")

	sheet.IsLocked = true
	_, err = repo.SaveSheet(ctx, sheet)
	require.NoError(t, err)
	_, err = repo.SaveSheet(ctx, gradebook.Sheet{SheetKey: key})
	assert.Equal(t, gradebook.ErrLocked, err)
}

func TestGradebookRepository_concurrentLock(t *testing.T) {
	repo := NewGradebookRepository(Open())
	key := gradebook.SheetKey{ClassID: "c1", SectionID: "a", SubjectID: "math", AcademicYear: "2024", Term: "Mid Term"}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		locked int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.SaveSheet(ctx, gradebook.Sheet{SheetKey: key, IsLocked: true}); err == nil {
				mu.Lock()
				locked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, locked, "a sheet is locked once")
}
