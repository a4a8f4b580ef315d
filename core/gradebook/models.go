package gradebook

import (
	"fmt"
	"strconv"
	"time"

	"github.com/trezcool/schoolportal/core"
)

type Result string

const (
	Pass Result = "Pass"
	Fail Result = "Fail"
)

type (
	Student struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		RollNo    string `json:"rollNo,omitempty"`
		ClassID   string `json:"classId,omitempty"`
		SectionID string `json:"sectionId,omitempty"`
	}

	Subject struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		ClassID string `json:"classId,omitempty"`
	}

	// UnitMark holds the marks entered for one unit of a term.
	UnitMark struct {
		UnitIndex int     `json:"unitIndex" validate:"gte=0"`
		Theory    float64 `json:"theory" validate:"gte=0"`
		Practical float64 `json:"practical" validate:"gte=0"`
	}

	// StudentMarks is the sparse list of unit marks of one student for one subject.
	// Units without an entry count as zero.
	StudentMarks struct {
		StudentID string     `json:"studentId" validate:"required"`
		Marks     []UnitMark `json:"marks" validate:"dive"`
	}

	// SheetKey identifies the marks of one subject for a class section, academic year and term.
	SheetKey struct {
		ClassID      string `json:"classId" query:"classId" validate:"required,identifier"`
		SectionID    string `json:"sectionId" query:"sectionId" validate:"required,identifier"`
		SubjectID    string `json:"subjectId" query:"subjectId" validate:"required,identifier"`
		AcademicYear string `json:"academicYear" query:"academicYear" validate:"required,academicyear"`
		Term         string `json:"term" query:"term" validate:"required"`
	}

	// Sheet is the unit of persistence: every student's marks for one SheetKey plus the lock flag.
	Sheet struct {
		SheetKey
		StudentMarks []StudentMarks `json:"studentMarks" validate:"dive"`
		IsLocked     bool           `json:"isLocked"`
		LockedAt     *time.Time     `json:"lockedAt,omitempty"` // UTC
	}

	// ClassKey identifies a class section for the consolidated (class-teacher) view.
	ClassKey struct {
		ClassID      string `json:"classId" query:"classId" validate:"required,identifier"`
		SectionID    string `json:"sectionId" query:"sectionId" validate:"required,identifier"`
		AcademicYear string `json:"academicYear" query:"academicYear" validate:"required,academicyear"`
		Term         string `json:"term" query:"term" validate:"required"`
	}

	StudentFilter struct {
		ClassID      string `query:"classId"`
		SectionID    string `query:"sectionId"`
		AcademicYear string `query:"academicYear"`
	}

	SubjectFilter struct {
		ClassID string `query:"classId"`
	}
)

func (k SheetKey) ClassKey() ClassKey {
	return ClassKey{ClassID: k.ClassID, SectionID: k.SectionID, AcademicYear: k.AcademicYear, Term: k.Term}
}

// Clean trims every part of the key.
func (k *SheetKey) Clean() {
	k.ClassID = core.CleanString(k.ClassID)
	k.SectionID = core.CleanString(k.SectionID)
	k.SubjectID = core.CleanString(k.SubjectID)
	k.AcademicYear = core.CleanString(k.AcademicYear)
	k.Term = core.CleanString(k.Term)
}

func (k ClassKey) SheetKey(subjectID string) SheetKey {
	return SheetKey{
		ClassID:      k.ClassID,
		SectionID:    k.SectionID,
		SubjectID:    subjectID,
		AcademicYear: k.AcademicYear,
		Term:         k.Term,
	}
}

func (k *ClassKey) Clean() {
	k.ClassID = core.CleanString(k.ClassID)
	k.SectionID = core.CleanString(k.SectionID)
	k.AcademicYear = core.CleanString(k.AcademicYear)
	k.Term = core.CleanString(k.Term)
}

// MarksFor returns the marks of a student, nil when none were entered.
func (s Sheet) MarksFor(studentID string) []UnitMark {
	for _, sm := range s.StudentMarks {
		if sm.StudentID == studentID {
			return sm.Marks
		}
	}
	return nil
}

// Copy returns a deep copy of the sheet.
func (s Sheet) Copy() Sheet {
	c := s
	c.StudentMarks = make([]StudentMarks, 0, len(s.StudentMarks))
	for _, sm := range s.StudentMarks {
		marks := make([]UnitMark, len(sm.Marks))
		copy(marks, sm.Marks)
		c.StudentMarks = append(c.StudentMarks, StudentMarks{StudentID: sm.StudentID, Marks: marks})
	}
	if s.LockedAt != nil {
		t := *s.LockedAt
		c.LockedAt = &t
	}
	return c
}

// Fields returns the non-empty filter values keyed by JSON field name.
func (f StudentFilter) Fields() map[string]string {
	return nonEmpty(map[string]string{
		"classId":      f.ClassID,
		"sectionId":    f.SectionID,
		"academicYear": f.AcademicYear,
	})
}

func (f SubjectFilter) Fields() map[string]string {
	return nonEmpty(map[string]string{"classId": f.ClassID})
}

func nonEmpty(m map[string]string) map[string]string {
	for k, v := range m {
		if v = core.CleanString(v); v == "" {
			delete(m, k)
		} else {
			m[k] = v
		}
	}
	return m
}

// StudentFromMap reads a student out of a generic JSON object.
func StudentFromMap(m map[string]interface{}) Student {
	return Student{
		ID:        stringField(m, "id"),
		Name:      stringField(m, "name"),
		RollNo:    stringField(m, "rollNo"),
		ClassID:   stringField(m, "classId"),
		SectionID: stringField(m, "sectionId"),
	}
}

// SubjectFromMap reads a subject out of a generic JSON object.
func SubjectFromMap(m map[string]interface{}) Subject {
	return Subject{
		ID:      stringField(m, "id"),
		Name:    stringField(m, "name"),
		ClassID: stringField(m, "classId"),
	}
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
