package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// shell runs commands read from the prompter until exit or end of input.
// A failing command prints its error and the shell continues.
func (a *app) shell(ctx context.Context, o *IO) error {
	o.Println("revival shell. Type 'help' for commands, 'exit' to leave.")

	for {
		line, err := a.prompt.Prompt("revival> ")
		if err == io.EOF || err == errAborted {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		a.prompt.AppendHistory(line)

		args, err := splitArgs(line)
		if err != nil {
			o.ErrPrintln("error:", err)
			continue
		}

		switch args[0] {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			printShellHelp(o)
		case "shell", "print-config":
			o.ErrPrintln("error:", args[0], "is not available inside the shell")
		default:
			a.dispatch(ctx, o, args[0], args[1:])
		}
	}
}

func printShellHelp(o *IO) {
	groups := (&app{}).commandGroups()
	groups = append(groups, commandGroup{"Shell", []*Command{
		{Usage: "help", Short: "Show this help"},
		{Usage: "exit", Short: "Leave the shell"},
	}})
	writeCommandList(o.out, groups)
	o.Println()
	o.Println("Quote arguments that contain spaces: edit \"Claw hammer\" TOOL")
}

// completeCommand provides tab completion for command names.
func completeCommand(line string) []string {
	var completions []string
	for _, cmd := range (&app{}).commands() {
		if strings.HasPrefix(cmd.Name(), line) {
			completions = append(completions, cmd.Name())
		}
	}
	for _, name := range []string{"help", "exit", "quit"} {
		if strings.HasPrefix(name, line) {
			completions = append(completions, name)
		}
	}
	return completions
}

// splitArgs splits a shell line into arguments. Single or double quotes group
// words, and a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var args []string
	var cur strings.Builder
	var quote rune
	inArg, escaped := false, false

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inArg = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, inArg = r, true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
