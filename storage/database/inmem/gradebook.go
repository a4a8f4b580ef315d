package inmemdb

import (
	"context"

	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

// gradebookRepository reads students & subjects from the record tables.
type gradebookRepository struct {
	db      *DB
	records records.Repository
}

var _ gradebook.Repository = (*gradebookRepository)(nil) // interface compliance check

func NewGradebookRepository(db *DB) gradebook.Repository {
	return &gradebookRepository{db: db, records: NewRecordRepository(db)}
}

func (repo *gradebookRepository) QueryStudents(ctx context.Context, filter gradebook.StudentFilter) ([]gradebook.Student, error) {
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

func (repo *gradebookRepository) QuerySubjects(ctx context.Context, filter gradebook.SubjectFilter) ([]gradebook.Subject, error) {
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

func (repo *gradebookRepository) GetSheet(_ context.Context, key gradebook.SheetKey) (gradebook.Sheet, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sheet, ok := repo.db.sheets[key]; ok {
		return sheet.Copy(), nil
	}
	return gradebook.Sheet{}, gradebook.ErrNotFound
}

func (repo *gradebookRepository) SaveSheet(_ context.Context, sheet gradebook.Sheet) (gradebook.Sheet, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if stored, ok := repo.db.sheets[sheet.SheetKey]; ok && stored.IsLocked {
		return gradebook.Sheet{}, gradebook.ErrLocked
	}
	repo.db.sheets[sheet.SheetKey] = sheet.Copy()
	return sheet.Copy(), nil
}
