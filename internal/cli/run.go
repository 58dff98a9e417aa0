// Package cli implements the revival command line and interactive shell.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/erazemk/revival/internal/config"
	"github.com/erazemk/revival/internal/db"
	"github.com/erazemk/revival/internal/lifecycle"
)

// app is the state shared by the commands of one invocation.
type app struct {
	cfg    config.Config
	db     *sql.DB
	mgr    *lifecycle.Manager
	log    *slog.Logger
	prompt prompter
	yes    bool
}

type globalFlags struct {
	workDir    string
	configPath string
	dbPath     string
	logPath    string
	yes        bool
	verbose    bool
	help       bool
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var g globalFlags

	fs := flag.NewFlagSet("revival", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	fs.StringVarP(&g.workDir, "cwd", "C", "", "run as if started in `dir`")
	fs.StringVarP(&g.configPath, "config", "c", "", "use the specified config `file`")
	fs.StringVarP(&g.dbPath, "db", "d", "", "SQLite database `path`")
	fs.StringVarP(&g.logPath, "log", "l", "", "append logs to `file`")
	fs.BoolVarP(&g.yes, "yes", "y", false, "answer yes to confirmations")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "show operation logs")
	fs.BoolVarP(&g.help, "help", "h", false, "show this help")

	if err := fs.Parse(args); err != nil {
		return globalFlags{}, err
	}
	g.remaining = fs.Args()
	return g, nil
}

// Run is the main entry point. args includes the program name. Returns the
// exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	o := NewIO(out, errOut)

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	g, err := parseGlobalFlags(rest)
	if err != nil {
		o.ErrPrintln("error:", err)
		printUsage(errOut)
		return 1
	}
	if g.help || len(g.remaining) == 0 {
		printUsage(out)
		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDir:    g.workDir,
		ConfigPath: g.configPath,
		Overrides:  config.Overrides{DBPath: g.dbPath, LogFile: g.logPath},
		Env:        env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	name, cmdArgs := g.remaining[0], g.remaining[1:]
	if name == "print-config" {
		if err := printConfig(o, cfg); err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
		return 0
	}
	if name == "help" {
		printUsage(out)
		return 0
	}

	logger, closeLog, err := newLogger(out, errOut, g.verbose, cfg.LogFileAbs())
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	defer closeLog()

	database, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPathAbs(), "error", err)
		o.ErrPrintln("error:", err)
		return 1
	}
	defer database.Close()

	mgr := lifecycle.NewManager(database)
	mgr.Logger = logger
	mgr.ConflictCheck = cfg.ConflictCheck()
	mgr.Photos = cfg.Photos()

	p := newPrompter(in, out, env)
	defer p.Close()

	a := &app{cfg: cfg, db: database, mgr: mgr, log: logger, prompt: p, yes: g.yes}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if name == "shell" {
		if err := a.shell(ctx, o); err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
		return 0
	}
	return a.dispatch(ctx, o, name, cmdArgs)
}

func openDatabase(cfg config.Config) (*sql.DB, error) {
	database, err := db.Open(cfg.DBPathAbs(), cfg.BusyTimeout())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

// errUnknownCommand is returned for a command name that does not exist.
var errUnknownCommand = errors.New("unknown command")

// dispatch runs one command and returns its exit code.
func (a *app) dispatch(ctx context.Context, o *IO, name string, args []string) int {
	for _, cmd := range a.commands() {
		if cmd.Name() == name {
			return cmd.Run(ctx, o, args)
		}
	}

	o.ErrPrintln("error:", fmt.Errorf("%w: %s", errUnknownCommand, name))
	printUsage(o.errOut)
	return 1
}

// commandGroups returns fresh command definitions. Flag sets keep parsed
// values, so every invocation gets its own.
func (a *app) commandGroups() []commandGroup {
	return []commandGroup{
		{"Items", []*Command{
			a.listCommand(),
			a.showCommand(),
			a.addCommand(),
			a.editCommand(),
			a.searchCommand(),
		}},
		{"Recycle bin", []*Command{
			a.binCommand(),
			a.deleteCommand(),
			a.restoreCommand(),
			a.purgeCommand(),
			a.emptyBinCommand(),
		}},
		{"Other", []*Command{
			a.photoCommand(),
			a.exportCommand(),
		}},
	}
}

func (a *app) commands() []*Command {
	var cmds []*Command
	for _, g := range a.commandGroups() {
		cmds = append(cmds, g.Commands...)
	}
	return cmds
}

func printConfig(o *IO, cfg config.Config) error {
	formatted, err := config.Format(cfg)
	if err != nil {
		return err
	}
	o.Println(formatted)

	o.Println("")
	o.Println("# Database:", cfg.DBPathAbs())
	o.Println("# Sources:")
	if cfg.Sources.Global != "" {
		o.Println("#   global:", cfg.Sources.Global)
	}
	if cfg.Sources.Project != "" {
		o.Println("#   project:", cfg.Sources.Project)
	}
	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("#   (using defaults only)")
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `revival - lost and found item registry

Usage: revival [options] <command> [args]

Options:
  -C, --cwd <dir>       Run as if started in <dir>
  -c, --config <file>   Use the specified config file
  -d, --db <path>       SQLite database path
  -l, --log <file>      Append logs to <file>
  -y, --yes             Answer yes to confirmations
  -v, --verbose         Show operation logs
  -h, --help            Show this help

`)
	groups := (&app{}).commandGroups()
	groups = append(groups, commandGroup{"Session", []*Command{
		{Usage: "shell", Short: "Start an interactive shell"},
		{Usage: "print-config", Short: "Show resolved configuration"},
	}})
	writeCommandList(w, groups)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'revival <command> --help' for details.")
}
