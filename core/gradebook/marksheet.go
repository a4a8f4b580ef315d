package gradebook

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrLocked         = errors.New("marks are locked")
	ErrUnitOutOfRange = errors.New("unit is not configured for this term")
)

var nowFunc = time.Now // mockable

// MarkSheet is the editable state of one Sheet under a term configuration.
// Once locked it rejects every mutation.
type MarkSheet struct {
	sheet Sheet
	term  TermConfig
	index map[string]int // studentID -> position in sheet.StudentMarks
}

func NewMarkSheet(sheet Sheet, term TermConfig) *MarkSheet {
	ms := &MarkSheet{
		sheet: sheet.Copy(),
		term:  term,
		index: make(map[string]int, len(sheet.StudentMarks)),
	}
	for i := range ms.sheet.StudentMarks {
		sm := &ms.sheet.StudentMarks[i]
		sm.Marks = dedupeUnits(sm.Marks)
		if _, ok := ms.index[sm.StudentID]; !ok { // first entry wins, as in Sheet.MarksFor
			ms.index[sm.StudentID] = i
		}
	}
	return ms
}

func (ms *MarkSheet) Key() SheetKey { return ms.sheet.SheetKey }

func (ms *MarkSheet) Term() TermConfig { return ms.term }

func (ms *MarkSheet) IsLocked() bool { return ms.sheet.IsLocked }

func (ms *MarkSheet) Editable() bool { return !ms.sheet.IsLocked }

// Sheet returns a copy of the underlying sheet, ready to be saved.
func (ms *MarkSheet) Sheet() Sheet { return ms.sheet.Copy() }

func (ms *MarkSheet) LockedAt() *time.Time {
	if ms.sheet.LockedAt == nil {
		return nil
	}
	t := *ms.sheet.LockedAt
	return &t
}

// Lock freezes the sheet. There is no way back.
func (ms *MarkSheet) Lock() {
	if ms.sheet.IsLocked {
		return
	}
	now := nowFunc().UTC()
	ms.sheet.IsLocked = true
	ms.sheet.LockedAt = &now
}

// Mark returns the marks of a unit, zero when nothing was entered.
func (ms *MarkSheet) Mark(studentID string, unit int) UnitMark {
	mark := UnitMark{UnitIndex: unit}
	if i, ok := ms.index[studentID]; ok {
		for _, m := range ms.sheet.StudentMarks[i].Marks {
			if m.UnitIndex == unit {
				mark = m
			}
		}
	}
	return mark
}

// Marks returns one entry per configured unit, in unit order.
func (ms *MarkSheet) Marks(studentID string) []UnitMark {
	marks := make([]UnitMark, 0, ms.term.UnitsCount())
	for u := 0; u < ms.term.UnitsCount(); u++ {
		marks = append(marks, ms.Mark(studentID, u))
	}
	return marks
}

// SetTheory stores the theory marks of a unit, clamped to [0, max]. It returns the stored value.
func (ms *MarkSheet) SetTheory(studentID string, unit int, value float64) (float64, error) {
	return ms.set(studentID, unit, func(m *UnitMark, max UnitMax) float64 {
		m.Theory = Clamp(value, max.Theory)
		return m.Theory
	})
}

// SetPractical stores the practical marks of a unit, clamped to [0, max]. It returns the stored value.
func (ms *MarkSheet) SetPractical(studentID string, unit int, value float64) (float64, error) {
	return ms.set(studentID, unit, func(m *UnitMark, max UnitMax) float64 {
		m.Practical = Clamp(value, max.Practical)
		return m.Practical
	})
}

func (ms *MarkSheet) set(studentID string, unit int, apply func(*UnitMark, UnitMax) float64) (float64, error) {
	if ms.sheet.IsLocked {
		return 0, ErrLocked
	}
	max, ok := ms.term.UnitMax(unit)
	if !ok {
		return 0, errors.Wrapf(ErrUnitOutOfRange, "unit %d of %q", unit, ms.term.Name)
	}

	i, ok := ms.index[studentID]
	if !ok {
		ms.sheet.StudentMarks = append(ms.sheet.StudentMarks, StudentMarks{StudentID: studentID})
		i = len(ms.sheet.StudentMarks) - 1
		ms.index[studentID] = i
	}
	sm := &ms.sheet.StudentMarks[i]
	for j := range sm.Marks {
		if sm.Marks[j].UnitIndex == unit {
			return apply(&sm.Marks[j], max), nil
		}
	}
	sm.Marks = append(sm.Marks, UnitMark{UnitIndex: unit})
	return apply(&sm.Marks[len(sm.Marks)-1], max), nil
}

// Results computes the subject-teacher view for the given students.
func (ms *MarkSheet) Results(students []Student) []SubjectResult {
	results := make([]SubjectResult, 0, len(students))
	for _, st := range students {
		results = append(results, ScoreSubject(st, ms.sheet.MarksFor(st.ID), ms.term))
	}
	return results
}

// dedupeUnits keeps the last entry of every unit, in first-seen order.
func dedupeUnits(marks []UnitMark) []UnitMark {
	pos := make(map[int]int, len(marks))
	out := make([]UnitMark, 0, len(marks))
	for _, m := range marks {
		if i, ok := pos[m.UnitIndex]; ok {
			out[i] = m
			continue
		}
		pos[m.UnitIndex] = len(out)
		out = append(out, m)
	}
	return out
}
