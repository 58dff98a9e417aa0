package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testCLI runs commands against a database in a temporary directory.
type testCLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	return &testCLI{t: t, Dir: t.TempDir(), Env: map[string]string{}}
}

// RunWithInput executes the CLI with stdin and returns stdout, stderr and the
// exit code. Args should not include the program name or --cwd.
func (c *testCLI) RunWithInput(stdin string, args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"revival", "--cwd", c.Dir}, args...)
	code := Run(strings.NewReader(stdin), &outBuf, &errBuf, fullArgs, c.Env)

	return outBuf.String(), errBuf.String(), code
}

// Run executes the CLI without input.
func (c *testCLI) Run(args ...string) (string, string, int) {
	return c.RunWithInput("", args...)
}

// MustRun fails the test if the command exits non-zero. Returns stdout.
func (c *testCLI) MustRun(args ...string) string {
	c.t.Helper()
	return c.MustRunWithInput("", args...)
}

// MustRunWithInput is MustRun with stdin.
func (c *testCLI) MustRunWithInput(stdin string, args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.RunWithInput(stdin, args...)
	if code != 0 {
		c.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}
	return stdout
}

// MustFail fails the test if the command succeeds. Returns stderr.
func (c *testCLI) MustFail(args ...string) string {
	c.t.Helper()

	_, stderr, code := c.Run(args...)
	if code == 0 {
		c.t.Fatalf("command %v should have failed", args)
	}
	return stderr
}

func (c *testCLI) WriteFile(name string, data []byte) string {
	c.t.Helper()
	path := filepath.Join(c.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.t.Fatal(err)
	}
	return path
}
