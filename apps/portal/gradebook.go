package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
)

var (
	gradebookCommands = []string{"students", "sheet", "enter", "lock", "class", "terms"}

	errNotConfirmed = errors.New("final save & lock is irreversible; confirm or re-run with -yes")
)

func (cli *commandLine) gradebook(args []string) error {
	if len(args) < 1 {
		cli.printUsage()
		return errHelp
	}

	switch args[0] {
	case "students":
		return cli.gradebookStudents(args[1:])
	case "sheet":
		return cli.gradebookSheet(args[1:])
	case "enter":
		return cli.gradebookEnter(args[1:])
	case "lock":
		return cli.gradebookLock(args[1:])
	case "class":
		return cli.gradebookClass(args[1:])
	case "terms":
		return cli.gradebookTerms()
	default:
		cli.printUsage()
		cli.suggest(args[0], gradebookCommands)
		return errHelp
	}
}

func (cli *commandLine) classFlags(fs *flag.FlagSet) *gradebook.ClassKey {
	key := new(gradebook.ClassKey)
	fs.StringVar(&key.ClassID, "class", "", "The class ID.")
	fs.StringVar(&key.SectionID, "section", "", "The section ID.")
	fs.StringVar(&key.AcademicYear, "year", "", "The academic year, eg. 2024-25.")
	fs.StringVar(&key.Term, "term", "", "The term: "+strings.Join(gradebook.TermsFromConfig(cli.conf.Terms).Names(), ", ")+".")
	return key
}

func (cli *commandLine) sheetFlags(fs *flag.FlagSet) (*gradebook.ClassKey, *string) {
	key := cli.classFlags(fs)
	subject := fs.String("subject", "", "The subject ID.")
	return key, subject
}

func (cli *commandLine) gradebookStudents(args []string) error {
	studentsCmd := cli.newFlagSet("gradebook students")
	var filter gradebook.StudentFilter
	studentsCmd.StringVar(&filter.ClassID, "class", "", "The class ID.")
	studentsCmd.StringVar(&filter.SectionID, "section", "", "The section ID.")
	studentsCmd.StringVar(&filter.AcademicYear, "year", "", "The academic year, eg. 2024-25.")
	if _, err := cli.parse(studentsCmd, args); err != nil {
		return err
	}

	students, err := cli.gradebookSvc().Students(context.Background(), filter)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		cli.printf("No records found\n")
		return nil
	}
	tbl := newTable(cli.out, "ID", "ROLL", "NAME", "CLASS", "SECTION")
	for _, st := range students {
		tbl.row(st.ID, st.RollNo, st.Name, st.ClassID, st.SectionID)
	}
	return tbl.flush()
}

func (cli *commandLine) printSheet(ms *gradebook.MarkSheet, results []gradebook.SubjectResult) error {
	key := ms.Key()
	state := "editable"
	if ms.IsLocked() {
		state = "LOCKED"
		if at := ms.LockedAt(); at != nil {
			state += " since " + at.Format("2006-01-02 15:04 MST")
		}
	}
	cli.printf("%s %s | %s | %s %s | %s\n", key.ClassID, key.SectionID, key.SubjectID, key.Term, key.AcademicYear, state)

	if len(results) == 0 {
		cli.printf("No records found\n")
		return nil
	}

	term := ms.Term()
	header := []string{"ROLL", "STUDENT"}
	for u, um := range term.Units {
		n := strconv.Itoa(u + 1)
		header = append(header, "U"+n+" TH/"+num(um.Theory), "U"+n+" PR/"+num(um.Practical))
	}
	header = append(header, "TOTAL/"+num(term.Max()), "%", "GRADE", "RESULT")

	tbl := newTable(cli.out, header...)
	for _, res := range results {
		cells := []string{res.Student.RollNo, res.Student.Name}
		for _, m := range ms.Marks(res.Student.ID) {
			cells = append(cells, num(m.Theory), num(m.Practical))
		}
		cells = append(cells, num(res.Obtained), num(res.Percent), string(res.Grade), string(res.Result))
		tbl.row(cells...)
	}
	return tbl.flush()
}

// gradebookSheet is the subject-teacher view.
func (cli *commandLine) gradebookSheet(args []string) error {
	sheetCmd := cli.newFlagSet("gradebook sheet")
	key, subject := cli.sheetFlags(sheetCmd)
	if _, err := cli.parse(sheetCmd, args); err != nil {
		return err
	}

	ms, results, err := cli.gradebookSvc().SubjectReport(context.Background(), key.SheetKey(*subject))
	if err != nil {
		return err
	}
	return cli.printSheet(ms, results)
}

func parseMark(field, s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: field, Error: "must be a number"})
	}
	return &v, nil
}

// gradebookEnter sets the marks of one unit of one student, then saves and re-fetches the sheet.
func (cli *commandLine) gradebookEnter(args []string) error {
	enterCmd := cli.newFlagSet("gradebook enter")
	key, subject := cli.sheetFlags(enterCmd)
	studentID := enterCmd.String("student", "", "The student ID.")
	unit := enterCmd.Int("unit", 1, "The unit number, starting at 1.")
	theoryStr := enterCmd.String("theory", "", "Theory marks; values above the unit maximum are reduced to it.")
	practicalStr := enterCmd.String("practical", "", "Practical marks; values above the unit maximum are reduced to it.")
	if _, err := cli.parse(enterCmd, args); err != nil {
		return err
	}

	var flds []core.FieldError
	if core.CleanString(*studentID) == "" {
		flds = append(flds, core.FieldError{Field: "student", Error: "this field is required"})
	}
	theory, err := parseMark("theory", *theoryStr)
	if err != nil {
		return err
	}
	practical, err := parseMark("practical", *practicalStr)
	if err != nil {
		return err
	}
	if theory == nil && practical == nil {
		flds = append(flds, core.FieldError{Field: "theory", Error: "one of theory or practical is required"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}

	ctx := context.Background()
	svc := cli.gradebookSvc()
	ms, err := svc.OpenSheet(ctx, key.SheetKey(*subject))
	if err != nil {
		return err
	}
	if !ms.Editable() {
		return gradebook.ErrLocked
	}

	sid := core.CleanString(*studentID)
	set := func(name string, value *float64, setter func(string, int, float64) (float64, error)) error {
		if value == nil {
			return nil
		}
		stored, err := setter(sid, *unit-1, *value)
		if err != nil {
			return err
		}
		if stored != *value {
			cli.printf("%s marks %s adjusted to %s\n", name, num(*value), num(stored))
		}
		return nil
	}
	if err = set("theory", theory, ms.SetTheory); err != nil {
		return err
	}
	if err = set("practical", practical, ms.SetPractical); err != nil {
		return err
	}

	if _, err = svc.Save(ctx, ms); err != nil {
		return err
	}
	ms, results, err := svc.SubjectReport(ctx, ms.Key())
	if err != nil {
		return errors.Wrap(err, "fetching saved marks")
	}
	return cli.printSheet(ms, results)
}

// gradebookLock is the "Final Save & Lock" of a sheet.
func (cli *commandLine) gradebookLock(args []string) error {
	lockCmd := cli.newFlagSet("gradebook lock")
	key, subject := cli.sheetFlags(lockCmd)
	yes := lockCmd.Bool("yes", false, "Confirm: locked marks can never be edited again.")
	if _, err := cli.parse(lockCmd, args); err != nil {
		return err
	}

	ctx := context.Background()
	svc := cli.gradebookSvc()
	ms, err := svc.OpenSheet(ctx, key.SheetKey(*subject))
	if err != nil {
		return err
	}
	if !ms.Editable() {
		return gradebook.ErrLocked
	}
	if !*yes && !cli.confirm(fmt.Sprintf("Final save & lock %s %s %s (%s)? Locked marks can never be edited again.", ms.Key().SubjectID, ms.Key().ClassID, ms.Key().SectionID, ms.Key().Term)) {
		return errNotConfirmed
	}

	if _, err = svc.SaveAndLock(ctx, ms); err != nil {
		return err
	}
	ms, results, err := svc.SubjectReport(ctx, ms.Key())
	if err != nil {
		return errors.Wrap(err, "fetching locked marks")
	}
	return cli.printSheet(ms, results)
}

// gradebookClass is the consolidated class-teacher view.
func (cli *commandLine) gradebookClass(args []string) error {
	classCmd := cli.newFlagSet("gradebook class")
	key := cli.classFlags(classCmd)
	if _, err := cli.parse(classCmd, args); err != nil {
		return err
	}

	report, err := cli.gradebookSvc().ClassReport(context.Background(), *key)
	if err != nil {
		return err
	}

	cli.printf("%s %s | %s %s\n", report.Key.ClassID, report.Key.SectionID, report.Key.Term, report.Key.AcademicYear)
	if len(report.Pending) > 0 {
		cli.printf("Pending (not locked): %s\n", strings.Join(report.Pending, ", "))
	}
	if len(report.Students) == 0 {
		cli.printf("No records found\n")
		return nil
	}

	header := []string{"ROLL", "STUDENT"}
	for _, subj := range report.Subjects {
		name := subj.Name
		if name == "" {
			name = subj.ID
		}
		header = append(header, strings.ToUpper(name))
	}
	header = append(header, "TOTAL", "%", "GRADE", "RESULT", "FAILED IN")

	tbl := newTable(cli.out, header...)
	for _, res := range report.Students {
		cells := []string{res.Student.RollNo, res.Student.Name}
		for _, s := range res.Subjects {
			cells = append(cells, num(s.Obtained)+"/"+num(s.Max))
		}
		cells = append(cells,
			num(res.TotalObtained)+"/"+num(res.TotalMax),
			num(res.Percent),
			string(res.Grade),
			string(res.Result),
			strings.Join(res.FailedSubjects, ", "),
		)
		tbl.row(cells...)
	}
	return tbl.flush()
}

func (cli *commandLine) gradebookTerms() error {
	tbl := newTable(cli.out, "TERM", "UNITS", "UNIT MAX (TH+PR)", "TOTAL")
	for _, tc := range gradebook.TermsFromConfig(cli.conf.Terms) {
		maxima := make([]string, 0, tc.UnitsCount())
		for _, u := range tc.Units {
			maxima = append(maxima, num(u.Theory)+"+"+num(u.Practical))
		}
		tbl.row(tc.Name, strconv.Itoa(tc.UnitsCount()), strings.Join(maxima, ", "), num(tc.Max()))
	}
	return tbl.flush()
}
