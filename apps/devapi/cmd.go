package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/trezcool/schoolportal/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  serve [-addr ADDRESS] [-seed FILE]   - start the development API (default)")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]            - run a goose command against the postgres database")
	_, _ = fmt.Fprintln(cli.out, "  token -sub ID -role ROLE[,ROLE] [-name NAME] - print a signed access token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		return cli.serve(nil)
	}

	switch args[1] {
	case "serve":
		return cli.serve(args[2:])
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "token":
		return cli.token(args[2:])
	case "help", "-h", "-help", "--help":
		cli.printUsage()
		return errHelp
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) serve(args []string) error {
	serveCmd := cli.newFlagSet("serve")
	addr := serveCmd.String("addr", cli.conf.DevAPI.Address, "The address to listen on.")
	seedFile := serveCmd.String("seed", "", "A JSON file of records to load at start up: {\"<kind>\": [{...}]}")
	if err := cli.parse(serveCmd, args); err != nil {
		return err
	}
	cli.conf.DevAPI.Address = *addr
	return serveFunc(cli.conf, *seedFile)
}

func (cli *commandLine) token(args []string) error {
	tokenCmd := cli.newFlagSet("token")
	sub := tokenCmd.String("sub", "", "The user ID.")
	name := tokenCmd.String("name", "", "The user's name.")
	roles := tokenCmd.String("role", "", "Comma separated roles, eg. teacher:,teacher:class")
	if err := cli.parse(tokenCmd, args); err != nil {
		return err
	}
	if *sub == "" || *roles == "" {
		tokenCmd.Usage()
		return errHelp
	}

	token, err := makeToken(cli.conf, *sub, *name, strings.Split(*roles, ","))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}
