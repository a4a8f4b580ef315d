package main

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/listing"
	"github.com/trezcool/schoolportal/core/records"
)

var resourceCommands = []string{"list", "get", "create", "update", "delete", "stats"}

func (cli *commandLine) resources(args []string) error {
	if len(args) < 1 {
		cli.printUsage()
		return errHelp
	}

	switch args[0] {
	case "list":
		return cli.resourcesList(args[1:])
	case "get":
		return cli.resourcesGet(args[1:])
	case "create":
		return cli.resourcesCreate(args[1:])
	case "update":
		return cli.resourcesUpdate(args[1:])
	case "delete":
		return cli.resourcesDelete(args[1:])
	case "stats":
		return cli.resourcesStats(args[1:])
	default:
		cli.printUsage()
		cli.suggest(args[0], resourceCommands)
		return errHelp
	}
}

// positional checks the count of positional arguments.
func (cli *commandLine) positional(name string, got []string, want ...string) error {
	if len(got) != len(want) {
		cli.printf("Usage: resources %s %s\n", name, strings.Join(want, " "))
		return errHelp
	}
	return nil
}

// parseWhere reads k=v,k2=v2 into the exact-match filter sent to the server.
func parseWhere(s string) (map[string]string, error) {
	filter := make(map[string]string)
	for _, pair := range splitList(s) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "where", Error: "expected key=value, got " + strconv.Quote(pair)})
		}
		filter[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return filter, nil
}

// parseRecord reads the -data flag: a non-empty JSON object.
func parseRecord(data string) (records.Record, error) {
	if strings.TrimSpace(data) == "" {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "data", Error: "this field is required"})
	}
	rec := make(records.Record)
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "data", Error: "must be a JSON object"})
	}
	return rec, nil
}

// columns returns the fields to print: the requested ones, or the union of every field with id first.
func columns(recs []records.Record, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	seen := map[string]bool{records.IDField: true}
	cols := make([]string, 0)
	for _, rec := range recs {
		for _, fld := range rec.Fields() {
			if !seen[fld] {
				seen[fld] = true
				cols = append(cols, fld)
			}
		}
	}
	sort.Strings(cols)
	return append([]string{records.IDField}, cols...)
}

func (cli *commandLine) printRecords(recs []records.Record, cols []string) error {
	if len(recs) == 0 {
		cli.printf("No records found\n")
		return nil
	}
	tbl := newTable(cli.out, cols...)
	for _, rec := range recs {
		cells := make([]string, 0, len(cols))
		for _, col := range cols {
			cells = append(cells, rec.String(col))
		}
		tbl.row(cells...)
	}
	return tbl.flush()
}

func (cli *commandLine) printRecord(rec records.Record) error {
	tbl := newTable(cli.out)
	tbl.row(records.IDField+":", rec.ID())
	for _, fld := range rec.Fields() {
		if fld == records.IDField {
			continue
		}
		tbl.row(fld+":", rec.String(fld))
	}
	return tbl.flush()
}

func (cli *commandLine) resourcesList(args []string) error {
	listCmd := cli.newFlagSet("resources list")
	search := listCmd.String("search", "", "Case-insensitive text to look for.")
	fields := listCmd.String("fields", "", "Comma separated fields the search looks into (default: all).")
	where := listCmd.String("where", "", "Comma separated key=value exact matches, applied by the server.")
	ordering := listCmd.String("ordering", "", "Comma separated fields to sort by; prefix with - for descending.")
	page := listCmd.Int("page", 1, "The page to show.")
	perPage := listCmd.Int("per-page", listing.DefaultPerPage, "Records per page.")
	cols := listCmd.String("columns", "", "Comma separated fields to print (default: all).")
	pos, err := cli.parse(listCmd, args)
	if err != nil {
		return err
	}
	if err = cli.positional("list", pos, "KIND"); err != nil {
		return err
	}

	filter, err := parseWhere(*where)
	if err != nil {
		return err
	}
	recs, err := cli.recordSvc().Query(context.Background(), pos[0], filter)
	if err != nil {
		return err
	}

	recs = listing.Search(recs, *search, splitList(*fields)...)
	recs = listing.Sort(recs, core.ParseOrdering(*ordering)...)
	pg := listing.Paginate(recs, *page, *perPage)

	if err = cli.printRecords(pg.Items, columns(pg.Items, splitList(*cols))); err != nil {
		return err
	}
	if pg.Total > 0 {
		cli.printf("\nPage %d/%d (%d records)\n", pg.Page, pg.Pages, pg.Total)
	}
	return nil
}

func (cli *commandLine) resourcesGet(args []string) error {
	getCmd := cli.newFlagSet("resources get")
	pos, err := cli.parse(getCmd, args)
	if err != nil {
		return err
	}
	if err = cli.positional("get", pos, "KIND", "ID"); err != nil {
		return err
	}

	rec, err := cli.recordSvc().Get(context.Background(), pos[0], pos[1])
	if err != nil {
		return err
	}
	return cli.printRecord(rec)
}

func (cli *commandLine) resourcesCreate(args []string) error {
	createCmd := cli.newFlagSet("resources create")
	data := createCmd.String("data", "", "The record as a JSON object.")
	pos, err := cli.parse(createCmd, args)
	if err != nil {
		return err
	}
	if err = cli.positional("create", pos, "KIND"); err != nil {
		return err
	}
	rec, err := parseRecord(*data)
	if err != nil {
		return err
	}

	svc := cli.recordSvc()
	created, err := svc.Create(context.Background(), pos[0], rec)
	if err != nil {
		return err
	}
	// re-fetch, the server owns the stored state
	created, err = svc.Get(context.Background(), pos[0], created.ID())
	if err != nil {
		return errors.Wrap(err, "fetching created record")
	}
	cli.printf("Created:\n")
	return cli.printRecord(created)
}

func (cli *commandLine) resourcesUpdate(args []string) error {
	updateCmd := cli.newFlagSet("resources update")
	data := updateCmd.String("data", "", "The full record as a JSON object.")
	pos, err := cli.parse(updateCmd, args)
	if err != nil {
		return err
	}
	if err = cli.positional("update", pos, "KIND", "ID"); err != nil {
		return err
	}
	rec, err := parseRecord(*data)
	if err != nil {
		return err
	}

	svc := cli.recordSvc()
	if _, err = svc.Update(context.Background(), pos[0], pos[1], rec); err != nil {
		return err
	}
	updated, err := svc.Get(context.Background(), pos[0], pos[1])
	if err != nil {
		return errors.Wrap(err, "fetching updated record")
	}
	cli.printf("Updated:\n")
	return cli.printRecord(updated)
}

func (cli *commandLine) resourcesDelete(args []string) error {
	deleteCmd := cli.newFlagSet("resources delete")
	pos, err := cli.parse(deleteCmd, args)
	if err != nil {
		return err
	}
	if err = cli.positional("delete", pos, "KIND", "ID"); err != nil {
		return err
	}

	if err = cli.recordSvc().Delete(context.Background(), pos[0], pos[1]); err != nil {
		return err
	}
	cli.printf("Deleted %s %s\n", records.CleanKind(pos[0]), pos[1])
	return nil
}

func (cli *commandLine) resourcesStats(args []string) error {
	statsCmd := cli.newFlagSet("resources stats")
	by := statsCmd.String("by", "", "The field to count by, eg. status.")
	where := statsCmd.String("where", "", "Comma separated key=value exact matches, applied by the server.")
	pos, err := cli.parse(statsCmd, args)
	if err != nil {
		return err
	}
	if err = cli.positional("stats", pos, "KIND"); err != nil {
		return err
	}
	if *by == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "by", Error: "this field is required"})
	}

	filter, err := parseWhere(*where)
	if err != nil {
		return err
	}
	recs, err := cli.recordSvc().Query(context.Background(), pos[0], filter)
	if err != nil {
		return err
	}

	tbl := newTable(cli.out, strings.ToUpper(*by), "COUNT")
	for _, cnt := range listing.CountBy(recs, *by) {
		val := cnt.Value
		if val == "" {
			val = "(none)"
		}
		tbl.row(val, strconv.Itoa(cnt.Count))
	}
	tbl.row("TOTAL", strconv.Itoa(len(recs)))
	return tbl.flush()
}
