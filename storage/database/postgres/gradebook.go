package pgrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

type sheetRow struct {
	ClassID      string    `db:"class_id"`
	SectionID    string    `db:"section_id"`
	SubjectID    string    `db:"subject_id"`
	AcademicYear string    `db:"academic_year"`
	Term         string    `db:"term"`
	StudentMarks []byte    `db:"student_marks"`
	IsLocked     bool      `db:"is_locked"`
	LockedAt     null.Time `db:"locked_at"`
}

type gradebookRepository struct {
	exec    sqlx.ExtContext
	records records.Repository
}

var _ gradebook.Repository = (*gradebookRepository)(nil) // interface compliance check

func NewGradebookRepository(exec sqlx.ExtContext) gradebook.Repository {
	return &gradebookRepository{exec: exec, records: NewRecordRepository(exec)}
}

func (repo gradebookRepository) toRow(sheet gradebook.Sheet) (sheetRow, error) {
	marks := sheet.StudentMarks
	if marks == nil {
		marks = []gradebook.StudentMarks{}
	}
	data, err := json.Marshal(marks)
	if err != nil {
		return sheetRow{}, errors.Wrap(err, "encoding student marks")
	}
	row := sheetRow{
		ClassID:      sheet.ClassID,
		SectionID:    sheet.SectionID,
		SubjectID:    sheet.SubjectID,
		AcademicYear: sheet.AcademicYear,
		Term:         sheet.Term,
		StudentMarks: data,
		IsLocked:     sheet.IsLocked,
		LockedAt:     null.TimeFromPtr(sheet.LockedAt),
	}
	if row.LockedAt.Valid {
		row.LockedAt.Time = row.LockedAt.Time.UTC()
	}
	return row, nil
}

// trapConnErr maps a lost DB connection to a shutdown error.
func trapConnErr(err error, msg string) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return core.NewShutdownError(msg + ": " + err.Error())
	}
	return errors.Wrap(err, msg)
}

func (repo gradebookRepository) fromRow(row sheetRow) (gradebook.Sheet, error) {
	sheet := gradebook.Sheet{
		SheetKey: gradebook.SheetKey{
			ClassID:      row.ClassID,
			SectionID:    row.SectionID,
			SubjectID:    row.SubjectID,
			AcademicYear: row.AcademicYear,
			Term:         row.Term,
		},
		IsLocked: row.IsLocked,
		LockedAt: row.LockedAt.Ptr(),
	}
	if err := json.Unmarshal(row.StudentMarks, &sheet.StudentMarks); err != nil {
		return gradebook.Sheet{}, errors.Wrap(err, "decoding student marks")
	}
	return sheet, nil
}

func (repo gradebookRepository) QueryStudents(ctx context.Context, filter gradebook.StudentFilter) ([]gradebook.Student, error) {
	recs, err := repo.records.QueryRecords(ctx, "students", filter.Fields())
	if err != nil {
		return nil, err
	}
	students := make([]gradebook.Student, 0, len(recs))
	for _, rec := range recs {
		students = append(students, gradebook.StudentFromMap(rec))
	}
	return students, nil
}

func (repo gradebookRepository) QuerySubjects(ctx context.Context, filter gradebook.SubjectFilter) ([]gradebook.Subject, error) {
	recs, err := repo.records.QueryRecords(ctx, "subjects", filter.Fields())
	if err != nil {
		return nil, err
	}
	subjects := make([]gradebook.Subject, 0, len(recs))
	for _, rec := range recs {
		subjects = append(subjects, gradebook.SubjectFromMap(rec))
	}
	return subjects, nil
}

func (repo gradebookRepository) GetSheet(ctx context.Context, key gradebook.SheetKey) (gradebook.Sheet, error) {
	var row sheetRow
	err := sqlx.GetContext(ctx, repo.exec, &row, `
		SELECT class_id, section_id, subject_id, academic_year, term, student_marks, is_locked, locked_at
		FROM gradebook_sheet
		WHERE class_id = $1 AND section_id = $2 AND subject_id = $3 AND academic_year = $4 AND term = $5`,
		key.ClassID, key.SectionID, key.SubjectID, key.AcademicYear, key.Term)
	if err != nil {
		if err == sql.ErrNoRows {
			return gradebook.Sheet{}, gradebook.ErrNotFound
		}
		return gradebook.Sheet{}, errors.Wrap(err, "finding sheet")
	}
	return repo.fromRow(row)
}

// SaveSheet upserts the sheet; a locked row is never overwritten.
func (repo gradebookRepository) SaveSheet(ctx context.Context, sheet gradebook.Sheet) (gradebook.Sheet, error) {
	row, err := repo.toRow(sheet)
	if err != nil {
		return gradebook.Sheet{}, err
	}
	query, args, err := sqlx.Named(`
		INSERT INTO gradebook_sheet
			(class_id, section_id, subject_id, academic_year, term, student_marks, is_locked, locked_at)
		VALUES
			(:class_id, :section_id, :subject_id, :academic_year, :term, :student_marks, :is_locked, :locked_at)
		ON CONFLICT (class_id, section_id, subject_id, academic_year, term) DO UPDATE SET
			student_marks = EXCLUDED.student_marks,
			is_locked     = EXCLUDED.is_locked,
			locked_at     = EXCLUDED.locked_at,
			updated_at    = now()
		WHERE gradebook_sheet.is_locked = false`, row)
	if err != nil {
		return gradebook.Sheet{}, errors.Wrap(err, "binding sheet")
	}
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(query), args...)
	if err != nil {
		return gradebook.Sheet{}, trapConnErr(err, "saving sheet")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return gradebook.Sheet{}, errors.Wrap(err, "saving sheet")
	}
	if cnt == 0 {
		return gradebook.Sheet{}, gradebook.ErrLocked
	}
	return repo.fromRow(row)
}
