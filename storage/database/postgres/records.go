package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core/records"
)

type recordRow struct {
	Kind string `db:"kind"`
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

type recordRepository struct {
	exec sqlx.ExtContext
}

var _ records.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(exec sqlx.ExtContext) records.Repository {
	return &recordRepository{exec: exec}
}

func (repo recordRepository) unmarshal(row recordRow) (records.Record, error) {
	rec := make(records.Record)
	if err := json.Unmarshal(row.Data, &rec); err != nil {
		return nil, errors.Wrap(err, "decoding record")
	}
	rec[records.IDField] = row.ID
	return rec, nil
}

func (repo recordRepository) marshal(rec records.Record) ([]byte, error) {
	rec = rec.Copy()
	delete(rec, records.IDField) // stored in its own column
	data, err := json.Marshal(rec)
	return data, errors.Wrap(err, "encoding record")
}

// trapNoRowsErr maps psql "no rows" err to records.ErrNotFound
func (repo recordRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return records.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo recordRepository) QueryRecords(ctx context.Context, kind string, filter map[string]string) ([]records.Record, error) {
	query := new(strings.Builder)
	query.WriteString("SELECT kind, id, data FROM record WHERE kind = $1")
	args := []interface{}{kind}

	// sorted for stable SQL
	fields := make([]string, 0, len(filter))
	for fld := range filter {
		fields = append(fields, fld)
	}
	sort.Strings(fields)
	for _, fld := range fields {
		if fld == records.IDField {
			args = append(args, filter[fld])
			fmt.Fprintf(query, " AND id = $%d", len(args))
			continue
		}
		args = append(args, fld, filter[fld])
		fmt.Fprintf(query, " AND data->>$%d = $%d", len(args)-1, len(args))
	}
	query.WriteString(" ORDER BY created_at, id")

	var rows []recordRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, query.String(), args...); err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	recs := make([]records.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := repo.unmarshal(row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (repo recordRepository) GetRecord(ctx context.Context, kind, id string) (records.Record, error) {
	var row recordRow
	err := sqlx.GetContext(ctx, repo.exec, &row, "SELECT kind, id, data FROM record WHERE kind = $1 AND id = $2", kind, id)
	if err != nil {
		return nil, repo.trapNoRowsErr(err, "finding record")
	}
	return repo.unmarshal(row)
}

func (repo recordRepository) CreateRecord(ctx context.Context, kind string, rec records.Record) (records.Record, error) {
	id := rec.ID()
	if id == "" {
		id = uuid.New().String()
	}
	data, err := repo.marshal(rec)
	if err != nil {
		return nil, err
	}
	_, err = repo.exec.ExecContext(ctx, "INSERT INTO record (kind, id, data) VALUES ($1, $2, $3)", kind, id, data)
	if err != nil {
		return nil, errors.Wrap(err, "inserting record")
	}
	return repo.unmarshal(recordRow{Kind: kind, ID: id, Data: data})
}

func (repo recordRepository) UpdateRecord(ctx context.Context, kind, id string, rec records.Record) (records.Record, error) {
	data, err := repo.marshal(rec)
	if err != nil {
		return nil, err
	}
	res, err := repo.exec.ExecContext(ctx,
		"UPDATE record SET data = $3, updated_at = now() WHERE kind = $1 AND id = $2", kind, id, data)
	if err != nil {
		return nil, errors.Wrap(err, "updating record")
	}
	if cnt, err := res.RowsAffected(); err != nil {
		return nil, errors.Wrap(err, "updating record")
	} else if cnt == 0 {
		return nil, records.ErrNotFound
	}
	return repo.unmarshal(recordRow{Kind: kind, ID: id, Data: data})
}

func (repo recordRepository) DeleteRecord(ctx context.Context, kind, id string) error {
	res, err := repo.exec.ExecContext(ctx, "DELETE FROM record WHERE kind = $1 AND id = $2", kind, id)
	if err != nil {
		return errors.Wrap(err, "deleting record")
	}
	if cnt, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting record")
	} else if cnt == 0 {
		return records.ErrNotFound
	}
	return nil
}
