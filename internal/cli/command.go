package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/erazemk/revival/internal/lifecycle"
)

// Command is one revival subcommand. The same definitions serve the command
// line and the shell.
type Command struct {
	Flags *flag.FlagSet

	// Usage starts with the command name, followed by its arguments.
	Usage string
	Short string
	// Long replaces Short in "revival <cmd> --help" when set.
	Long string

	// Confirms marks commands that ask before changing anything.
	Confirms bool

	Exec func(ctx context.Context, o *IO, args []string) error
}

// commandGroup is a titled section of the command listing.
type commandGroup struct {
	Title    string
	Commands []*Command
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func (c *Command) printHelp(o *IO) {
	o.Println("Usage: revival", c.Usage)
	o.Println()
	if c.Long != "" {
		o.Println(c.Long)
	} else {
		o.Println(c.Short)
	}
	if c.Confirms {
		o.Println()
		o.Println("Asks for confirmation unless -y is given.")
	}
	if c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Printf("%s", c.Flags.FlagUsages())
	}
}

// Run parses flags and executes the command. Returns the exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}
	c.Flags.SetOutput(io.Discard)

	err := c.Flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		c.printHelp(o)
		return 0
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", errUsage, err)
	} else {
		err = c.Exec(ctx, o, c.Flags.Args())
	}
	if err == nil {
		return 0
	}

	o.ErrPrintln("error:", lifecycle.Describe(err))
	if isUsageError(err) {
		o.ErrPrintln("usage: revival", c.Usage)
	}
	return 1
}

// isUsageError reports whether err was caused by the command line rather
// than by the data.
func isUsageError(err error) bool {
	return errors.Is(err, errUsage) || errors.Is(err, errInvalidID)
}

// writeCommandList writes the grouped command summaries for the usage text.
func writeCommandList(w io.Writer, groups []commandGroup) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s:\n", g.Title)
		for _, cmd := range g.Commands {
			short := cmd.Short
			if cmd.Confirms {
				short += " (confirms)"
			}
			fmt.Fprintf(tw, "  %s\t%s\n", cmd.Usage, short)
		}
	}
	tw.Flush()
}
