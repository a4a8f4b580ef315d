package gradebook

import (
	"fmt"
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolportal/core"
)

var (
	academicYearTag   = "academicyear"
	academicYearText  = "academic year must look like 2024 or 2024-2025"
	academicYearRegex = regexp.MustCompile(`^\d{4}(-\d{2}|-\d{4})?$`)
)

// InitValidators registers the gradebook validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(academicYearTag, academicYearValidation)
	core.RegisterCustomTranslation(validate, translator, academicYearTag, academicYearText)
}

func academicYearValidation(fl validator.FieldLevel) bool {
	return academicYearRegex.MatchString(fl.Field().String())
}

// checkRanges reports every mark outside the unit range or the maxima of the term,
// and every student listed more than once.
func checkRanges(sheet Sheet, term TermConfig) error {
	var flds []core.FieldError
	seen := make(map[string]int, len(sheet.StudentMarks))
	for i, sm := range sheet.StudentMarks {
		sid := core.CleanString(sm.StudentID)
		if first, dup := seen[sid]; dup {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("studentMarks[%d].studentId", i),
				Error: fmt.Sprintf("%q already has marks at studentMarks[%d]", sid, first),
			})
			continue
		}
		seen[sid] = i
		for j, m := range sm.Marks {
			prefix := fmt.Sprintf("studentMarks[%d].marks[%d]", i, j)
			max, ok := term.UnitMax(m.UnitIndex)
			if !ok {
				flds = append(flds, core.FieldError{
					Field: prefix + ".unitIndex",
					Error: fmt.Sprintf("%q has %d unit(s)", term.Name, term.UnitsCount()),
				})
				continue
			}
			if m.Theory < 0 || m.Theory > max.Theory {
				flds = append(flds, core.FieldError{
					Field: prefix + ".theory",
					Error: fmt.Sprintf("must be between 0 and %g", max.Theory),
				})
			}
			if m.Practical < 0 || m.Practical > max.Practical {
				flds = append(flds, core.FieldError{
					Field: prefix + ".practical",
					Error: fmt.Sprintf("must be between 0 and %g", max.Practical),
				})
			}
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
