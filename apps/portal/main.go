package main

import (
	"fmt"
	"os"

	"github.com/trezcool/schoolportal/core"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	cli := newCommandLine(conf, os.Stdout)
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprint(os.Stderr, formatError(err))
		}
		os.Exit(1)
	}
}
