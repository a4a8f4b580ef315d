package gradebook

import (
	"math"
)

// PassRatio is the share of the maximum a student needs to pass.
const PassRatio = 0.33

type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// gradeThresholds are the fixed lower bounds (in percent), best grade first.
var gradeThresholds = []struct {
	min   float64
	grade Grade
}{
	{90, GradeAPlus},
	{75, GradeA},
	{60, GradeB},
	{45, GradeC},
	{33, GradeD},
}

// Rank orders grades: A+ (6) > A > B > C > D > F (1). Unknown grades rank 0.
func (g Grade) Rank() int {
	for i, th := range gradeThresholds {
		if th.grade == g {
			return len(gradeThresholds) - i + 1
		}
	}
	if g == GradeF {
		return 1
	}
	return 0
}

// GradeFromPercent maps a percentage to its letter grade.
func GradeFromPercent(p float64) Grade {
	for _, th := range gradeThresholds {
		if p >= th.min {
			return th.grade
		}
	}
	return GradeF
}

// Percent returns obtained/max*100, or 0 when max is 0.
func Percent(obtained, max float64) float64 {
	if max == 0 {
		return 0
	}
	p := obtained / max * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// Round2 rounds to 2 decimal places. Reported percentages and their grades use the rounded value.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp brings v into [0, max]. NaN is treated as 0.
func Clamp(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if max < 0 {
		max = 0
	}
	if v > max {
		return max
	}
	return v
}

// SubjectFailed reports whether a subject score is under the pass mark.
// A subject without any configured maximum never fails.
func SubjectFailed(obtained, max float64) bool {
	return max > 0 && obtained < PassRatio*max
}

// Obtained sums theory+practical over the units configured for the term.
// Marks for units outside the term are ignored; if a unit appears more than once the last entry wins.
func Obtained(marks []UnitMark, term TermConfig) float64 {
	perUnit := make([]float64, term.UnitsCount())
	for _, m := range marks {
		if m.UnitIndex < 0 || m.UnitIndex >= len(perUnit) {
			continue
		}
		perUnit[m.UnitIndex] = m.Theory + m.Practical
	}
	var total float64
	for _, v := range perUnit {
		total += v
	}
	return total
}

type (
	SubjectScore struct {
		SubjectID   string  `json:"subjectId"`
		SubjectName string  `json:"subjectName"`
		Obtained    float64 `json:"obtained"`
		Max         float64 `json:"max"`
	}

	// SubjectResult is one row of the subject-teacher view.
	SubjectResult struct {
		Student  Student `json:"student"`
		Obtained float64 `json:"obtained"`
		Max      float64 `json:"max"`
		Percent  float64 `json:"percent"`
		Grade    Grade   `json:"grade"`
		Result   Result  `json:"result"`
	}

	// StudentResult is one row of the consolidated class-teacher view.
	StudentResult struct {
		Student        Student        `json:"student"`
		Subjects       []SubjectScore `json:"subjects"`
		TotalObtained  float64        `json:"totalObtained"`
		TotalMax       float64        `json:"totalMax"`
		Percent        float64        `json:"percent"`
		Grade          Grade          `json:"grade"`
		FailedSubjects []string       `json:"failedSubjects"`
		Result         Result         `json:"result"`
	}
)

func (s SubjectScore) Failed() bool {
	return SubjectFailed(s.Obtained, s.Max)
}

// ScoreSubject computes the subject-teacher view of one student: the pass mark applies to the
// total of the sheet, which for a single subject is the subject maximum.
func ScoreSubject(student Student, marks []UnitMark, term TermConfig) SubjectResult {
	obtained := Obtained(marks, term)
	max := term.Max()
	pct := Round2(Percent(obtained, max))
	res := Pass
	if SubjectFailed(obtained, max) {
		res = Fail
	}
	return SubjectResult{
		Student:  student,
		Obtained: obtained,
		Max:      max,
		Percent:  pct,
		Grade:    GradeFromPercent(pct),
		Result:   res,
	}
}

// Consolidate aggregates a student's subject scores. The student fails when any subject
// is under its own pass mark, whatever the aggregate percentage.
func Consolidate(student Student, scores []SubjectScore) StudentResult {
	res := StudentResult{
		Student:        student,
		Subjects:       scores,
		FailedSubjects: []string{},
	}
	for _, s := range scores {
		res.TotalObtained += s.Obtained
		res.TotalMax += s.Max
		if s.Failed() {
			name := s.SubjectName
			if name == "" {
				name = s.SubjectID
			}
			res.FailedSubjects = append(res.FailedSubjects, name)
		}
	}
	res.Percent = Round2(Percent(res.TotalObtained, res.TotalMax))
	res.Grade = GradeFromPercent(res.Percent)
	res.Result = Pass
	if len(res.FailedSubjects) > 0 {
		res.Result = Fail
	}
	return res
}
