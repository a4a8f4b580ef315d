package apiclient

import (
	"context"
	"net/http"

	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

type recordRepository struct {
	c *Client
}

var _ records.Repository = (*recordRepository)(nil) // interface compliance check

// Records exposes the client as a records.Repository.
func (c *Client) Records() records.Repository {
	return &recordRepository{c: c}
}

func trapNotFound(err, notFound error) error {
	if IsStatus(err, http.StatusNotFound) {
		return notFound
	}
	return err
}

func (repo recordRepository) QueryRecords(ctx context.Context, kind string, filter map[string]string) ([]records.Record, error) {
	return repo.c.List(ctx, kind, filter)
}

func (repo recordRepository) GetRecord(ctx context.Context, kind, id string) (records.Record, error) {
	rec, err := repo.c.Get(ctx, kind, id)
	return rec, trapNotFound(err, records.ErrNotFound)
}

func (repo recordRepository) CreateRecord(ctx context.Context, kind string, rec records.Record) (records.Record, error) {
	return repo.c.Create(ctx, kind, rec)
}

func (repo recordRepository) UpdateRecord(ctx context.Context, kind, id string, rec records.Record) (records.Record, error) {
	updated, err := repo.c.Update(ctx, kind, id, rec)
	return updated, trapNotFound(err, records.ErrNotFound)
}

func (repo recordRepository) DeleteRecord(ctx context.Context, kind, id string) error {
	return trapNotFound(repo.c.Delete(ctx, kind, id), records.ErrNotFound)
}

type gradebookRepository struct {
	c *Client
}

var _ gradebook.Repository = (*gradebookRepository)(nil) // interface compliance check

// Gradebook exposes the client as a gradebook.Repository.
func (c *Client) Gradebook() gradebook.Repository {
	return &gradebookRepository{c: c}
}

func (repo gradebookRepository) QueryStudents(ctx context.Context, filter gradebook.StudentFilter) ([]gradebook.Student, error) {
	return repo.c.GradebookStudents(ctx, filter)
}

func (repo gradebookRepository) QuerySubjects(ctx context.Context, filter gradebook.SubjectFilter) ([]gradebook.Subject, error) {
	recs, err := repo.c.List(ctx, "subjects", filter.Fields())
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
	sheet, err := repo.c.GradebookMarks(ctx, key)
	return sheet, trapNotFound(err, gradebook.ErrNotFound)
}

func (repo gradebookRepository) SaveSheet(ctx context.Context, sheet gradebook.Sheet) (gradebook.Sheet, error) {
	saved, err := repo.c.GradebookSave(ctx, sheet)
	if IsStatus(err, http.StatusConflict) {
		return gradebook.Sheet{}, gradebook.ErrLocked
	}
	return saved, err
}
