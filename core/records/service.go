package records

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

var (
	// errors
	ErrNotFound    = errors.New("record not found")
	ErrUnknownKind = errors.New("unknown resource")
	ErrEmptyRecord = errors.New("record has no fields")
)

type (
	Repository interface {
		// QueryRecords returns the records of a kind whose fields equal every value of the filter.
		QueryRecords(ctx context.Context, kind string, filter map[string]string) ([]Record, error)
		GetRecord(ctx context.Context, kind, id string) (Record, error)
		CreateRecord(ctx context.Context, kind string, rec Record) (Record, error)
		UpdateRecord(ctx context.Context, kind, id string, rec Record) (Record, error)
		DeleteRecord(ctx context.Context, kind, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkKind(kind string) (string, error) {
	kind = CleanKind(kind)
	if IsKind(kind) {
		return kind, nil
	}
	msg := ErrUnknownKind.Error()
	if sugg := Suggest(kind); len(sugg) > 0 {
		msg += "; did you mean " + strings.Join(sugg, ", ") + "?"
	}
	return "", core.NewValidationError(errors.Wrapf(ErrUnknownKind, "%q", kind), core.FieldError{Field: "resource", Error: msg})
}

// Matches reports whether every filter value equals the field value of the record.
func Matches(rec Record, filter map[string]string) bool {
	for fld, val := range filter {
		if rec.String(fld) != val {
			return false
		}
	}
	return true
}

func (svc *Service) Query(ctx context.Context, kind string, filter map[string]string) ([]Record, error) {
	kind, err := svc.checkKind(kind)
	if err != nil {
		return nil, err
	}
	recs, err := svc.repo.QueryRecords(ctx, kind, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", kind)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

func (svc *Service) Get(ctx context.Context, kind, id string) (Record, error) {
	kind, err := svc.checkKind(kind)
	if err != nil {
		return nil, err
	}
	rec, err := svc.repo.GetRecord(ctx, kind, core.CleanString(id))
	return rec, errors.Wrapf(err, "getting %s", kind)
}

func (svc *Service) Create(ctx context.Context, kind string, rec Record) (Record, error) {
	kind, err := svc.checkKind(kind)
	if err != nil {
		return nil, err
	}
	rec = rec.Copy()
	delete(rec, IDField)
	if len(rec) == 0 {
		return nil, core.NewValidationError(ErrEmptyRecord)
	}
	created, err := svc.repo.CreateRecord(ctx, kind, rec)
	return created, errors.Wrapf(err, "creating %s", kind)
}

func (svc *Service) Update(ctx context.Context, kind, id string, rec Record) (Record, error) {
	kind, err := svc.checkKind(kind)
	if err != nil {
		return nil, err
	}
	id = core.CleanString(id)
	rec = rec.Copy()
	delete(rec, IDField)
	if len(rec) == 0 {
		return nil, core.NewValidationError(ErrEmptyRecord)
	}
	updated, err := svc.repo.UpdateRecord(ctx, kind, id, rec)
	return updated, errors.Wrapf(err, "updating %s", kind)
}

func (svc *Service) Delete(ctx context.Context, kind, id string) error {
	kind, err := svc.checkKind(kind)
	if err != nil {
		return err
	}
	return errors.Wrapf(svc.repo.DeleteRecord(ctx, kind, core.CleanString(id)), "deleting %s", kind)
}
