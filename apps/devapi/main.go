package main

import (
	"log"
	"os"

	"github.com/trezcool/schoolportal/core"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "DEVAPI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}

	cli := commandLine{conf: conf, out: os.Stdout}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
