package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/schoolportal/core/records"
)

type recordRepository struct {
	db *DB
}

var _ records.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) records.Repository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) QueryRecords(_ context.Context, kind string, filter map[string]string) ([]records.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tbl, ok := repo.db.records[kind]
	if !ok {
		return []records.Record{}, nil
	}
	recs := make([]records.Record, 0, len(tbl.order))
	for _, id := range tbl.order {
		if rec := tbl.rows[id]; records.Matches(rec, filter) {
			recs = append(recs, rec.Copy())
		}
	}
	return recs, nil
}

func (repo *recordRepository) GetRecord(_ context.Context, kind, id string) (records.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tbl, ok := repo.db.records[kind]; ok {
		if rec, ok := tbl.rows[id]; ok {
			return rec.Copy(), nil
		}
	}
	return nil, records.ErrNotFound
}

func (repo *recordRepository) CreateRecord(_ context.Context, kind string, rec records.Record) (records.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec = rec.Copy()
	id := rec.ID()
	if id == "" {
		id = uuid.New().String()
	}
	rec[records.IDField] = id

	tbl := repo.db.table(kind)
	if _, exists := tbl.rows[id]; !exists {
		tbl.order = append(tbl.order, id)
	}
	tbl.rows[id] = rec
	return rec.Copy(), nil
}

func (repo *recordRepository) UpdateRecord(_ context.Context, kind, id string, rec records.Record) (records.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tbl, ok := repo.db.records[kind]
	if !ok {
		return nil, records.ErrNotFound
	}
	if _, ok = tbl.rows[id]; !ok {
		return nil, records.ErrNotFound
	}
	rec = rec.Copy()
	rec[records.IDField] = id
	tbl.rows[id] = rec
	return rec.Copy(), nil
}

func (repo *recordRepository) DeleteRecord(_ context.Context, kind, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tbl, ok := repo.db.records[kind]
	if !ok {
		return records.ErrNotFound
	}
	if _, ok = tbl.rows[id]; !ok {
		return records.ErrNotFound
	}
	delete(tbl.rows, id)
	for i, oid := range tbl.order {
		if oid == id {
			tbl.order = append(tbl.order[:i], tbl.order[i+1:]...)
			break
		}
	}
	return nil
}
