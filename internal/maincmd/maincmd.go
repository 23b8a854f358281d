// Package maincmd implements the qorcc command-line entry point: flag
// parsing, usage text, and wiring the parsed options into the driver.
package maincmd

import (
	"errors"
	"fmt"

	"github.com/mna/mainer"

	"github.com/qorcc/qorcc/internal/driver"
	"github.com/qorcc/qorcc/internal/logging"
)

const binName = "qorcc"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <path>...
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <path>...
       %[1]s -h|--help
       %[1]s -v|--version

Ahead-of-time compiler from a subset of C to RISC-V (RV64I) assembly.

Each <path> is compiled independently; a "foo.c" produces "foo.s" in the
current directory unless -S is given. Compilation continues across files
after a failure, but the process exits non-zero if any file failed.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -T --tokens               Print the token stream for each file.
       -P --parsetree            Print the abstract syntax tree for each file.
       -I --intermediate         Print the lowered intermediate representation.
       -A --assembly             Print the generated assembly to stdout.
       -S --no-out               Do not write the ".s" output file.

The QOR_CC_LOG environment variable controls log verbosity (trace, debug,
info, warn, error, disabled); it defaults to trace.
`, binName)
)

// Cmd holds the parsed command-line flags and drives a single qorcc
// invocation.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Tokens       bool `flag:"T,tokens"`
	ParseTree    bool `flag:"P,parsetree"`
	Intermediate bool `flag:"I,intermediate"`
	Assembly     bool `flag:"A,assembly"`
	NoOut        bool `flag:"S,no-out"`

	args []string
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("at least one file must be provided")
	}
	return nil
}

// Main parses args and runs the driver over the positional paths, following
// the mna/mainer convention for a single-binary CLI entry point.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	log := logging.New(stdio.Stderr)
	d := driver.New(log, stdio.Stdout, stdio.Stderr, driver.Options{
		DumpTokens:    c.Tokens,
		DumpParseTree: c.ParseTree,
		DumpIR:        c.Intermediate,
		DumpAssembly:  c.Assembly,
		NoOutput:      c.NoOut,
	})
	if code := d.Run(c.args); code != 0 {
		return mainer.Failure
	}
	return mainer.Success
}
