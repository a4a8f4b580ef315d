package gradebook

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

var ErrNotFound = errors.New("marks not found")

type (
	Repository interface {
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		QuerySubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error)
		// GetSheet returns ErrNotFound when no marks were ever saved for the key.
		GetSheet(ctx context.Context, key SheetKey) (Sheet, error)
		SaveSheet(ctx context.Context, sheet Sheet) (Sheet, error)
	}

	Service struct {
		repo       Repository
		terms      Terms
		validate   *validator.Validate
		translator ut.Translator
	}

	// ClassReport is the consolidated class-teacher view. Only locked subjects are counted;
	// the others are listed in Pending.
	ClassReport struct {
		Key      ClassKey        `json:"key"`
		Term     TermConfig      `json:"term"`
		Subjects []Subject       `json:"subjects"`
		Pending  []string        `json:"pending"`
		Students []StudentResult `json:"students"`
	}
)

func NewService(repo Repository, terms Terms, validate *validator.Validate, translator ut.Translator) *Service {
	if terms == nil {
		terms = DefaultTerms
	}
	InitValidators(validate, translator)
	return &Service{
		repo:       repo,
		terms:      terms,
		validate:   validate,
		translator: translator,
	}
}

func (svc *Service) Terms() Terms {
	return svc.terms
}

func (svc *Service) Students(ctx context.Context, filter StudentFilter) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, filter)
	return students, errors.Wrap(err, "querying students")
}

func (svc *Service) Subjects(ctx context.Context, filter SubjectFilter) ([]Subject, error) {
	subjects, err := svc.repo.QuerySubjects(ctx, filter)
	return subjects, errors.Wrap(err, "querying subjects")
}

func (svc *Service) validateStruct(s interface{}) error {
	if err := svc.validate.Struct(s); err != nil {
		return core.TranslateValidationErrors(err, svc.translator)
	}
	return nil
}

func (svc *Service) lookupTerm(name string) (TermConfig, error) {
	term, err := svc.terms.Lookup(name)
	if err != nil {
		return TermConfig{}, core.NewValidationError(err, core.FieldError{Field: "term", Error: err.Error()})
	}
	return term, nil
}

// OpenSheet loads the marks of a SheetKey, or starts an empty unlocked sheet.
func (svc *Service) OpenSheet(ctx context.Context, key SheetKey) (*MarkSheet, error) {
	key.Clean()
	if err := svc.validateStruct(key); err != nil {
		return nil, err
	}
	term, err := svc.lookupTerm(key.Term)
	if err != nil {
		return nil, err
	}
	key.Term = term.Name

	sheet, err := svc.repo.GetSheet(ctx, key)
	switch {
	case errors.Cause(err) == ErrNotFound:
		sheet = Sheet{SheetKey: key}
	case err != nil:
		return nil, errors.Wrap(err, "getting sheet")
	}
	return NewMarkSheet(sheet, term), nil
}

// SaveSheet validates and stores a sheet. Marks must lie within the term maxima.
// A stored sheet that is locked can never be written again.
func (svc *Service) SaveSheet(ctx context.Context, sheet Sheet) (Sheet, error) {
	sheet.Clean()
	if err := svc.validateStruct(sheet); err != nil {
		return Sheet{}, err
	}
	term, err := svc.lookupTerm(sheet.Term)
	if err != nil {
		return Sheet{}, err
	}
	sheet.Term = term.Name
	if err = checkRanges(sheet, term); err != nil {
		return Sheet{}, err
	}

	stored, err := svc.repo.GetSheet(ctx, sheet.SheetKey)
	switch {
	case err == nil:
		if stored.IsLocked {
			return Sheet{}, ErrLocked
		}
	case errors.Cause(err) != ErrNotFound:
		return Sheet{}, errors.Wrap(err, "getting stored sheet")
	}

	if sheet.IsLocked {
		if sheet.LockedAt == nil {
			now := nowFunc().UTC()
			sheet.LockedAt = &now
		}
	} else {
		sheet.LockedAt = nil
	}
	saved, err := svc.repo.SaveSheet(ctx, sheet)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "saving sheet")
	}
	return saved, nil
}

// Save stores the current state of an editable sheet.
func (svc *Service) Save(ctx context.Context, ms *MarkSheet) (*MarkSheet, error) {
	if !ms.Editable() {
		return nil, ErrLocked
	}
	saved, err := svc.SaveSheet(ctx, ms.Sheet())
	if err != nil {
		return nil, err
	}
	return NewMarkSheet(saved, ms.Term()), nil
}

// SaveAndLock is the final save: the marks are stored and frozen.
func (svc *Service) SaveAndLock(ctx context.Context, ms *MarkSheet) (*MarkSheet, error) {
	if !ms.Editable() {
		return nil, ErrLocked
	}
	locked := NewMarkSheet(ms.Sheet(), ms.Term())
	locked.Lock()

	saved, err := svc.SaveSheet(ctx, locked.Sheet())
	if err != nil {
		return nil, err
	}
	return NewMarkSheet(saved, ms.Term()), nil
}

// SubjectReport is the subject-teacher view of a sheet.
func (svc *Service) SubjectReport(ctx context.Context, key SheetKey) (*MarkSheet, []SubjectResult, error) {
	ms, err := svc.OpenSheet(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	key = ms.Key()
	students, err := svc.Students(ctx, StudentFilter{
		ClassID:      key.ClassID,
		SectionID:    key.SectionID,
		AcademicYear: key.AcademicYear,
	})
	if err != nil {
		return nil, nil, err
	}
	return ms, ms.Results(students), nil
}

// ClassReport consolidates the locked marks of every subject of a class section.
func (svc *Service) ClassReport(ctx context.Context, key ClassKey) (ClassReport, error) {
	key.Clean()
	if err := svc.validateStruct(key); err != nil {
		return ClassReport{}, err
	}
	term, err := svc.lookupTerm(key.Term)
	if err != nil {
		return ClassReport{}, err
	}
	key.Term = term.Name

	subjects, err := svc.Subjects(ctx, SubjectFilter{ClassID: key.ClassID})
	if err != nil {
		return ClassReport{}, err
	}
	students, err := svc.Students(ctx, StudentFilter{
		ClassID:      key.ClassID,
		SectionID:    key.SectionID,
		AcademicYear: key.AcademicYear,
	})
	if err != nil {
		return ClassReport{}, err
	}

	report := ClassReport{
		Key:      key,
		Term:     term,
		Subjects: make([]Subject, 0, len(subjects)),
		Pending:  []string{},
		Students: make([]StudentResult, 0, len(students)),
	}
	sheets := make([]Sheet, 0, len(subjects))
	for _, subj := range subjects {
		sheet, err := svc.repo.GetSheet(ctx, key.SheetKey(subj.ID))
		if err != nil && errors.Cause(err) != ErrNotFound {
			return ClassReport{}, errors.Wrapf(err, "getting sheet of %q", subj.Name)
		}
		if err != nil || !sheet.IsLocked {
			report.Pending = append(report.Pending, subjectLabel(subj))
			continue
		}
		report.Subjects = append(report.Subjects, subj)
		sheets = append(sheets, sheet)
	}

	for _, st := range students {
		scores := make([]SubjectScore, 0, len(sheets))
		for i, sheet := range sheets {
			subj := report.Subjects[i]
			scores = append(scores, SubjectScore{
				SubjectID:   subj.ID,
				SubjectName: subjectLabel(subj),
				Obtained:    Obtained(sheet.MarksFor(st.ID), term),
				Max:         term.Max(),
			})
		}
		report.Students = append(report.Students, Consolidate(st, scores))
	}
	return report, nil
}

func subjectLabel(subj Subject) string {
	if subj.Name != "" {
		return subj.Name
	}
	return subj.ID
}
