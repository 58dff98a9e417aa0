package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

// errAborted is returned by a prompter when the user presses Ctrl-C.
var errAborted = errors.New("aborted")

// prompter reads answers and shell lines from the user.
type prompter interface {
	// Prompt shows prompt and returns the entered line. io.EOF signals
	// the end of input.
	Prompt(prompt string) (string, error)
	// PromptDefault is like Prompt but starts from def, which an empty
	// answer keeps.
	PromptDefault(prompt, def string) (string, error)
	AppendHistory(line string)
	Close() error
}

// newPrompter uses a line editor when in is an interactive terminal and plain
// line reading otherwise.
func newPrompter(in io.Reader, out io.Writer, env map[string]string) prompter {
	if f, ok := in.(*os.File); ok && f == os.Stdin && isatty.IsTerminal(f.Fd()) {
		return newLinePrompter(historyFile(env))
	}
	if in == nil {
		in = strings.NewReader("")
	}
	return &plainPrompter{scanner: bufio.NewScanner(in), out: out}
}

// historyFile returns the path to the shell history file, or "".
func historyFile(env map[string]string) string {
	home := env["HOME"]
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".revival_history")
}

type linePrompter struct {
	state   *liner.State
	history string
}

func newLinePrompter(history string) *linePrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeCommand)

	if history != "" {
		if f, err := os.Open(history); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return &linePrompter{state: state, history: history}
}

func (p *linePrompter) Prompt(prompt string) (string, error) {
	return p.translate(p.state.Prompt(prompt))
}

func (p *linePrompter) PromptDefault(prompt, def string) (string, error) {
	return p.translate(p.state.PromptWithSuggestion(prompt, def, -1))
}

func (p *linePrompter) translate(line string, err error) (string, error) {
	if err == liner.ErrPromptAborted {
		return "", errAborted
	}
	return line, err
}

func (p *linePrompter) AppendHistory(line string) {
	p.state.AppendHistory(line)
}

// Close saves the history and restores the terminal.
func (p *linePrompter) Close() error {
	if p.history != "" {
		if f, err := os.Create(p.history); err == nil {
			p.state.WriteHistory(f)
			f.Close()
		}
	}
	return p.state.Close()
}

type plainPrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *plainPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		fmt.Fprintln(p.out)
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (p *plainPrompter) PromptDefault(prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s[%s] ", prompt, def)
	}
	line, err := p.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) == "" {
		return def, nil
	}
	return line, nil
}

func (p *plainPrompter) AppendHistory(string) {}

func (p *plainPrompter) Close() error { return nil }

// confirm asks a yes/no question. End of input counts as no.
func confirm(p prompter, question string) (bool, error) {
	answer, err := p.Prompt(question + " (yes/no): ")
	if err == io.EOF || err == errAborted {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
