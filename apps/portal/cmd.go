package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/schoolportal/apiclient"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
)

var (
	newClientFunc  = apiclient.NewFromConfig // mockable
	isTerminalFunc = term.IsTerminal         // mockable

	errHelp = errors.New("help provided")

	commands = []string{"resources", "gradebook", "help"}
)

type commandLine struct {
	conf       *core.Config
	in         io.Reader
	out        io.Writer
	validate   *validator.Validate
	translator ut.Translator

	client *apiclient.Client
}

func newCommandLine(conf *core.Config, out io.Writer) *commandLine {
	validate, translator := core.NewValidator()
	return &commandLine{conf: conf, in: os.Stdin, out: out, validate: validate, translator: translator}
}

// confirm asks a yes/no question on an interactive stdin; anything but "yes" declines.
func (cli *commandLine) confirm(question string) bool {
	f, ok := cli.in.(interface{ Fd() uintptr })
	if !ok || !isTerminalFunc(int(f.Fd())) {
		return false
	}
	cli.printf("%s Type yes to confirm: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

func (cli *commandLine) api() *apiclient.Client {
	if cli.client == nil {
		cli.client = newClientFunc(cli.conf)
	}
	return cli.client
}

func (cli *commandLine) recordSvc() *records.Service {
	return records.NewService(cli.api().Records())
}

func (cli *commandLine) gradebookSvc() *gradebook.Service {
	return gradebook.NewService(cli.api().Gradebook(), gradebook.TermsFromConfig(cli.conf.Terms), cli.validate, cli.translator)
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  resources list KIND [-search S] [-fields a,b] [-where k=v,...] [-ordering -name] [-page N] [-per-page N] [-columns a,b]\n")
	cli.printf("  resources get|delete KIND ID\n")
	cli.printf("  resources create KIND -data JSON\n")
	cli.printf("  resources update KIND ID -data JSON\n")
	cli.printf("  resources stats KIND -by FIELD\n")
	cli.printf("  gradebook students -class C -section S -year Y\n")
	cli.printf("  gradebook sheet -class C -section S -subject SUB -year Y -term T\n")
	cli.printf("  gradebook enter -class C -section S -subject SUB -year Y -term T -student ID -unit N [-theory X] [-practical Y]\n")
	cli.printf("  gradebook lock -class C -section S -subject SUB -year Y -term T -yes\n")
	cli.printf("  gradebook class -class C -section S -year Y -term T\n")
	cli.printf("  gradebook terms\n")
	cli.printf("  help [TOPIC] [-all] [-open N,...]\n")
	cli.printf("\nServer: %s\n", cli.conf.APIBaseURL())
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "resources":
		return cli.resources(args[2:])
	case "gradebook":
		return cli.gradebook(args[2:])
	case "help", "-h", "-help", "--help":
		return cli.help(args[2:])
	default:
		cli.printUsage()
		cli.suggest(args[1], commands)
		return errHelp
	}
}

func (cli *commandLine) suggest(word string, candidates []string) {
	if sugg := records.SuggestFrom(strings.ToLower(word), candidates, 3); len(sugg) > 0 {
		cli.printf("\nUnknown command %q; did you mean %s?\n", word, strings.Join(sugg, ", "))
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses the flags of a subcommand; flags may come before or after the positional arguments.
func (cli *commandLine) parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return nil, errHelp
			}
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// splitList reads a comma separated flag value.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// formatError renders an error for the terminal, one line per invalid field.
func formatError(err error) string {
	var b strings.Builder
	switch origErr := errors.Cause(err).(type) {
	case *core.ValidationError:
		if len(origErr.Fields) == 0 {
			fmt.Fprintf(&b, "error: %s\n", origErr.Error())
			break
		}
		b.WriteString("error: invalid input\n")
		fields := origErr.FieldMap()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %s\n", name, fields[name])
		}
	case *apiclient.APIError:
		if len(origErr.Fields) == 0 {
			fmt.Fprintf(&b, "error: server responded %d: %s\n", origErr.StatusCode, origErr.Message)
			break
		}
		fmt.Fprintf(&b, "error: server responded %d: invalid input\n", origErr.StatusCode)
		names := make([]string, 0, len(origErr.Fields))
		for name := range origErr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %s\n", name, origErr.Fields[name])
		}
	default:
		fmt.Fprintf(&b, "error: %s\n", err)
	}
	return b.String()
}
