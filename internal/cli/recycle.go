package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/erazemk/revival/internal/lifecycle"
	"github.com/erazemk/revival/internal/model"
)

// confirmed asks question unless confirmations were switched off with --yes.
func (a *app) confirmed(question string) (bool, error) {
	if a.yes {
		return true, nil
	}
	return confirm(a.prompt, question)
}

// errBatchFailed is returned when some items of a batch could not be
// processed. The individual failures have already been printed.
var errBatchFailed = errors.New("some items failed")

// printBatch reports what happened to each selected item. err is the batch
// error returned with res; its causes are printed per item and replaced by
// errBatchFailed. done formats a processed item.
func printBatch(o *IO, res lifecycle.BatchResult, err error, done func(model.Item) string) error {
	for _, it := range res.Done {
		o.Println(done(it))
	}
	for _, it := range res.Skipped {
		o.Printf("skipped %d: %s (an active item with that name and category exists)\n", it.ID, it.Key())
	}
	for _, id := range res.Missing {
		o.Printf("not found: %d\n", id)
	}
	for _, f := range res.Failed {
		o.ErrPrintln(fmt.Sprintf("failed %d:", f.ID), lifecycle.Describe(f.Err))
	}
	if err != nil {
		return fmt.Errorf("%w: %d of %d", errBatchFailed, len(res.Failed),
			len(res.Done)+len(res.Skipped)+len(res.Missing)+len(res.Failed))
	}
	return nil
}

func (a *app) deleteCommand() *Command {
	return &Command{
		Flags:    flag.NewFlagSet("delete", flag.ContinueOnError),
		Usage:    "delete <id>...",
		Confirms: true,
		Short:    "Move active items to the recycle bin",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			ok, err := a.confirmed(fmt.Sprintf("Move %d item(s) to the recycle bin?", len(ids)))
			if err != nil {
				return err
			}
			if !ok {
				o.Println("nothing deleted")
				return nil
			}

			res, err := a.mgr.Delete(ctx, ids, true)
			return printBatch(o, res, err, func(it model.Item) string {
				return fmt.Sprintf("deleted %s (recycle bin id %d)", it.Key(), it.ID)
			})
		},
	}
}

// Replace modes of the restore command.
const (
	replaceAsk    = "ask"
	replaceAlways = "always"
	replaceNever  = "never"
)

func (a *app) restoreCommand() *Command {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	mode := fs.String("replace", replaceAsk, "what to do when an active item has the same name and category: ask, always or never")

	return &Command{
		Flags:    fs,
		Usage:    "restore [--replace mode] <id>...",
		Confirms: true,
		Short:    "Restore items from the recycle bin",
		Long: "Move items from the recycle bin back to the active items. When an active\n" +
			"item already has the same name and category it is either replaced by the\n" +
			"restored item or the restore is skipped, as chosen by --replace.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			var decide lifecycle.Decider
			switch *mode {
			case replaceAsk:
				decide = a.askReplace
			case replaceAlways:
				decide = lifecycle.ReplaceAlways
			case replaceNever:
				decide = lifecycle.ReplaceNever
			default:
				return fmt.Errorf("%w: unknown replace mode %q", errUsage, *mode)
			}

			res, err := a.mgr.Restore(ctx, ids, decide)
			return printBatch(o, res, err, func(it model.Item) string {
				return fmt.Sprintf("restored %s (id %d)", it.Key(), it.ID)
			})
		},
	}
}

// askReplace asks whether restoring should replace the existing active item.
// With --yes the existing item is replaced.
func (a *app) askReplace(restoring, existing model.Item) bool {
	ok, err := a.confirmed(fmt.Sprintf("Active item %d %s already exists. Replace it with deleted item %d?",
		existing.ID, existing.Key(), restoring.ID))
	if err != nil {
		a.log.Warn("reading restore decision", "error", err)
		return false
	}
	return ok
}

func (a *app) purgeCommand() *Command {
	return &Command{
		Flags:    flag.NewFlagSet("purge", flag.ContinueOnError),
		Usage:    "purge <id>...",
		Confirms: true,
		Short:    "Permanently remove items from the recycle bin",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			ok, err := a.confirmed(fmt.Sprintf("Permanently remove %d item(s)? This cannot be undone.", len(ids)))
			if err != nil {
				return err
			}
			if !ok {
				o.Println("nothing purged")
				return nil
			}

			res, err := a.mgr.Purge(ctx, ids, true)
			return printBatch(o, res, err, func(it model.Item) string {
				return fmt.Sprintf("purged %d: %s", it.ID, it.Key())
			})
		},
	}
}

func (a *app) emptyBinCommand() *Command {
	return &Command{
		Flags:    flag.NewFlagSet("empty-bin", flag.ContinueOnError),
		Usage:    "empty-bin",
		Confirms: true,
		Short:    "Permanently remove every item in the recycle bin",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: empty-bin takes no arguments", errUsage)
			}

			ok, err := a.confirmed("Permanently remove every item in the recycle bin? This cannot be undone.")
			if err != nil {
				return err
			}
			if !ok {
				o.Println("nothing purged")
				return nil
			}

			n, err := a.mgr.EmptyBin(ctx, true)
			if err != nil {
				return err
			}
			o.Printf("purged %d item(s)\n", n)
			return nil
		},
	}
}
