package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/erazemk/revival/internal/export"
	"github.com/erazemk/revival/internal/search"
)

func (a *app) searchCommand() *Command {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	category := fs.StringP("category", "c", "", "only items of this category")

	return &Command{
		Flags: fs,
		Usage: "search [-c category] [keyword]",
		Short: "Search active items",
		Long: "List active items of a category, items containing a keyword, or both.\n" +
			"The keyword is matched case-sensitively against every text field and\n" +
			"attribute value.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			items, err := search.Search(ctx, a.db, search.Query{
				Category: *category,
				Keyword:  strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			printItems(o.out, items)
			return nil
		},
	}
}

func (a *app) photoCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("photo", flag.ContinueOnError),
		Usage: "photo <id> <file>",
		Short: "Attach a JPEG or PNG photo to an active item",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: photo takes an id and a file", errUsage)
			}
			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}

			f, err := os.Open(a.resolve(args[1]))
			if err != nil {
				return fmt.Errorf("opening photo: %w", err)
			}
			defer f.Close()

			item, err := a.mgr.SetPhoto(ctx, ids[0], f)
			if err != nil {
				return err
			}
			o.Printf("photo attached to %d: %s\n", item.ID, item.Key())
			return nil
		},
	}
}

func (a *app) exportCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("export", flag.ContinueOnError),
		Usage: "export <file>",
		Short: "Write all items and the recycle bin to a JSON file",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: export takes a file", errUsage)
			}

			path := a.resolve(args[0])
			snap, err := export.WriteFile(ctx, a.mgr, path)
			if err != nil {
				return err
			}
			a.log.Info("exported items", "path", path, "items", len(snap.Items), "deleted", len(snap.Deleted))
			o.Printf("exported %d item(s) and %d deleted item(s) to %s\n", len(snap.Items), len(snap.Deleted), path)
			return nil
		},
	}
}

// resolve makes path relative to the configured working directory.
func (a *app) resolve(path string) string {
	if filepath.IsAbs(path) || a.cfg.WorkDir == "" {
		return path
	}
	return filepath.Join(a.cfg.WorkDir, path)
}
