package gradebook

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = SheetKey{ClassID: "c1", SectionID: "a", SubjectID: "math", AcademicYear: "2024-25", Term: "Periodic Test"}

func TestMarkSheet_set(t *testing.T) {
	ms := NewMarkSheet(Sheet{SheetKey: testKey}, DefaultTerms[0])

	tests := []struct {
		name      string
		unit      int
		theory    float64
		practical float64
		want      UnitMark
		wantErr   error
	}{
		{name: "in range", unit: 0, theory: 12, practical: 3, want: UnitMark{0, 12, 3}},
		{name: "clamped", unit: 1, theory: 25, practical: -2, want: UnitMark{1, 20, 0}},
		{name: "overwrite", unit: 0, theory: 14.5, practical: 5, want: UnitMark{0, 14.5, 5}},
		{name: "unknown unit", unit: 2, theory: 1, practical: 1, wantErr: ErrUnitOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := ms.SetTheory("s1", tt.unit, tt.theory)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			pr, err := ms.SetPractical("s1", tt.unit, tt.practical)
			require.NoError(t, err)

			assert.Equal(t, tt.want.Theory, th)
			assert.Equal(t, tt.want.Practical, pr)
			assert.Equal(t, tt.want, ms.Mark("s1", tt.unit))
		})
	}

	assert.Equal(t, []UnitMark{{0, 14.5, 5}, {1, 20, 0}}, ms.Marks("s1"))
	assert.Equal(t, []UnitMark{{0, 0, 0}, {1, 0, 0}}, ms.Marks("s2"))
	assert.Len(t, ms.Sheet().StudentMarks, 1)
}

func TestMarkSheet_Lock(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	ms := NewMarkSheet(Sheet{SheetKey: testKey}, DefaultTerms[0])
	_, err := ms.SetTheory("s1", 0, 10)
	require.NoError(t, err)
	assert.True(t, ms.Editable())
	assert.Nil(t, ms.LockedAt())

	ms.Lock()
	assert.True(t, ms.IsLocked())
	assert.False(t, ms.Editable())
	if assert.NotNil(t, ms.LockedAt()) {
		assert.Equal(t, now.UTC(), *ms.LockedAt())
	}

	_, err = ms.SetTheory("s1", 0, 20)
	assert.Equal(t, ErrLocked, err)
	_, err = ms.SetPractical("s2", 1, 2)
	assert.Equal(t, ErrLocked, err)
	assert.Equal(t, UnitMark{0, 10, 0}, ms.Mark("s1", 0))

	// locking twice keeps the first time
	nowFunc = time.Now
	ms.Lock()
	assert.Equal(t, now.UTC(), *ms.LockedAt())
}

func TestNewMarkSheet(t *testing.T) {
	sheet := Sheet{
		SheetKey: testKey,
		StudentMarks: []StudentMarks{
			{StudentID: "s1", Marks: []UnitMark{{1, 5, 1}, {0, 10, 2}, {1, 7, 3}}},
		},
	}
	ms := NewMarkSheet(sheet, DefaultTerms[0])

	assert.Equal(t, []UnitMark{{0, 10, 2}, {1, 7, 3}}, ms.Marks("s1"))
	assert.Len(t, ms.Sheet().StudentMarks[0].Marks, 2, "duplicates are dropped")
	assert.Len(t, sheet.StudentMarks[0].Marks, 3, "the source sheet is left alone")

	results := ms.Results([]Student{{ID: "s1", Name: "Asha"}, {ID: "s2", Name: "Bilal"}})
	require.Len(t, results, 2)
	assert.Equal(t, 22.0, results[0].Obtained)
	assert.Equal(t, 50.0, results[0].Max)
	assert.Equal(t, 44.0, results[0].Percent)
	assert.Equal(t, GradeD, results[0].Grade)
	assert.Equal(t, Pass, results[0].Result)
	assert.Equal(t, 0.0, results[1].Obtained)
	assert.Equal(t, Fail, results[1].Result)
}

func TestNewMarkSheet_studentListedTwice(t *testing.T) {
	sheet := Sheet{
		SheetKey: testKey,
		StudentMarks: []StudentMarks{
			{StudentID: "s1", Marks: []UnitMark{{0, 2, 0}}},
			{StudentID: "s1", Marks: []UnitMark{{0, 20, 5}}},
		},
	}
	ms := NewMarkSheet(sheet, DefaultTerms[0])

	results := ms.Results([]Student{{ID: "s1"}})
	require.Len(t, results, 1)
	assert.Equal(t, UnitMark{0, 2, 0}, ms.Mark("s1", 0))
	assert.Equal(t, Obtained(ms.Marks("s1"), ms.Term()), results[0].Obtained)

	_, err := ms.SetTheory("s1", 0, 12)
	require.NoError(t, err)
	assert.Equal(t, 12.0, ms.Results([]Student{{ID: "s1"}})[0].Obtained)
}
