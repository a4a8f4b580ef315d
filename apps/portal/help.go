package main

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/helpinfo"
)

func (cli *commandLine) help(args []string) error {
	helpCmd := cli.newFlagSet("help")
	all := helpCmd.Bool("all", false, "Open every section.")
	open := helpCmd.String("open", "", "Comma separated section numbers to open, eg. 1,3.")
	positional, err := cli.parse(helpCmd, args)
	if err != nil {
		return err
	}

	if len(positional) == 0 {
		cli.printUsage()
		cli.printf("\nHelp topics:\n")
		for _, name := range helpinfo.TopicNames() {
			cli.printf("  %s\n", name)
		}
		return nil
	}

	panel, ok := helpinfo.Topic(positional[0])
	if !ok {
		cli.printf("No help topic %q.\n", positional[0])
		cli.suggest(positional[0], helpinfo.TopicNames())
		return errHelp
	}

	if *all {
		panel.ExpandAll()
	}
	for _, s := range splitList(*open) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "open", Error: "must be a list of section numbers"})
		}
		if panel.IsOpen(n - 1) {
			continue
		}
		if _, err = panel.Toggle(n - 1); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "open", Error: errors.Cause(err).Error() + ": " + s})
		}
	}
	return panel.Render(cli.out)
}
