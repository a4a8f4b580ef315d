package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core/records"
)

func seedFromFile(ctx context.Context, repo records.Repository, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()
	return seed(ctx, repo, file)
}

// seed loads {"<kind>": [{...}, ...]} into the repository, keeping the given ids.
func seed(ctx context.Context, repo records.Repository, r io.Reader) (int, error) {
	data := make(map[string][]records.Record)
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return 0, errors.Wrap(err, "decoding seed data")
	}

	kinds := make([]string, 0, len(data))
	for kind := range data {
		if !records.IsKind(kind) {
			return 0, errors.Wrapf(records.ErrUnknownKind, "%q", kind)
		}
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var n int
	for _, kind := range kinds {
		for _, rec := range data[kind] {
			if _, err := repo.CreateRecord(ctx, records.CleanKind(kind), rec); err != nil {
				return n, errors.Wrapf(err, "creating %s", kind)
			}
			n++
		}
	}
	return n, nil
}
