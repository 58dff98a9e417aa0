package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/erazemk/revival/internal/model"
	"github.com/erazemk/revival/internal/schema"
	"github.com/erazemk/revival/internal/store"
)

// Errors reported for malformed command arguments.
var (
	errUsage     = errors.New("invalid arguments")
	errInvalidID = errors.New("invalid item id")
	errCancelled = errors.New("cancelled")
)

func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one id is required", errUsage)
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %s", errInvalidID, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *app) listCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("list", flag.ContinueOnError),
		Usage: "list",
		Short: "List active items",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: list takes no arguments", errUsage)
			}
			items, err := a.mgr.List(ctx)
			if err != nil {
				return err
			}
			printItems(o.out, items)
			return nil
		},
	}
}

func (a *app) binCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("bin", flag.ContinueOnError),
		Usage: "bin",
		Short: "List items in the recycle bin",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: bin takes no arguments", errUsage)
			}
			items, err := a.mgr.ListDeleted(ctx)
			if err != nil {
				return err
			}
			printItems(o.out, items)
			return nil
		},
	}
}

func (a *app) showCommand() *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fromBin := fs.BoolP("bin", "b", false, "show an item from the recycle bin")

	return &Command{
		Flags: fs,
		Usage: "show [--bin] <id>",
		Short: "Show all fields of an item",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: show takes one id", errUsage)
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			c := store.Active
			if *fromBin {
				c = store.Deleted
			}
			item, err := a.mgr.Get(ctx, c, ids[0])
			if err != nil {
				return err
			}
			printItem(o.out, *item)
			return nil
		},
	}
}

// fieldFlags are the item field flags shared by add and edit.
type fieldFlags struct {
	name, category, description, address, phone, email string
	attrs                                              map[string]string
}

func (ff *fieldFlags) register(fs *flag.FlagSet) {
	fs.StringVarP(&ff.name, "name", "n", "", "item name")
	fs.StringVarP(&ff.category, "category", "t", "", "category (FOOD, BOOK, TOOL or any other)")
	fs.StringVar(&ff.description, "description", "", "description")
	fs.StringVar(&ff.address, "address", "", "where the item was found or is kept")
	fs.StringVar(&ff.phone, "phone", "", "contact phone")
	fs.StringVar(&ff.email, "email", "", "contact email")
	fs.StringToStringVarP(&ff.attrs, "attr", "a", nil, "category attribute as `name=value` (repeatable)")
}

var fieldFlagNames = []string{"name", "category", "description", "address", "phone", "email", "attr"}

func anyFieldChanged(fs *flag.FlagSet) bool {
	for _, name := range fieldFlagNames {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

// apply overrides the fields whose flags were given.
func (ff *fieldFlags) apply(fs *flag.FlagSet, f model.Fields) model.Fields {
	if fs.Changed("name") {
		f.Name = ff.name
	}
	if fs.Changed("category") {
		f.Category = model.Category(ff.category)
	}
	if fs.Changed("description") {
		f.Description = ff.description
	}
	if fs.Changed("address") {
		f.Address = ff.address
	}
	if fs.Changed("phone") {
		f.ContactPhone = ff.phone
	}
	if fs.Changed("email") {
		f.ContactEmail = ff.email
	}
	if fs.Changed("attr") {
		attrs := make(map[string]string, len(f.Attributes)+len(ff.attrs))
		for k, v := range f.Attributes {
			attrs[k] = v
		}
		for k, v := range ff.attrs {
			attrs[strings.ToLower(strings.TrimSpace(k))] = v
		}
		f.Attributes = attrs
	}
	return f
}

// fillForm asks for every field, offering the values of f as defaults. The
// attribute questions follow the category entered.
func (a *app) fillForm(f model.Fields) (model.Fields, error) {
	ask := func(label, def string) (string, error) {
		answer, err := a.prompt.PromptDefault(label+": ", def)
		if err == io.EOF || err == errAborted {
			return "", errCancelled
		}
		return strings.TrimSpace(answer), err
	}

	var err error
	steps := []struct {
		label string
		dst   *string
	}{
		{"Name", &f.Name},
		{"Description", &f.Description},
		{"Address", &f.Address},
		{"Phone", &f.ContactPhone},
		{"Email", &f.ContactEmail},
	}
	for _, s := range steps {
		if *s.dst, err = ask(s.label, *s.dst); err != nil {
			return f, err
		}
	}

	category, err := ask("Category (FOOD, BOOK, TOOL or other)", string(f.Category))
	if err != nil {
		return f, err
	}
	f.Category = schema.ParseCategory(category)

	attrs := make(map[string]string)
	for _, name := range schema.Fields(f.Category) {
		if attrs[name], err = ask(schema.Label(f.Category, name), f.Attributes[name]); err != nil {
			return f, err
		}
	}
	f.Attributes = attrs
	return f, nil
}

func (a *app) addCommand() *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	var ff fieldFlags
	ff.register(fs)

	return &Command{
		Flags: fs,
		Usage: "add [flags]",
		Short: "Add an item",
		Long: "Add an active item. Without field flags every field is asked for\n" +
			"interactively, including the attributes of the chosen category.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: add takes no arguments", errUsage)
			}

			var f model.Fields
			if anyFieldChanged(fs) {
				f = ff.apply(fs, f)
			} else {
				var err error
				if f, err = a.fillForm(f); err != nil {
					return err
				}
			}

			item, err := a.mgr.Add(ctx, f)
			if err != nil {
				return err
			}
			o.Printf("added %d: %s\n", item.ID, item.Key())
			return nil
		},
	}
}

func (a *app) editCommand() *Command {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	var ff fieldFlags
	ff.register(fs)

	return &Command{
		Flags: fs,
		Usage: "edit <name> <category> [flags]",
		Short: "Edit an active item",
		Long: "Replace the fields of the active item with the given name and category.\n" +
			"Fields without a flag keep their value. Without field flags every field\n" +
			"is asked for interactively, starting from the current values.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: edit takes a name and a category", errUsage)
			}

			item, err := a.mgr.Find(ctx, model.Key{Name: args[0], Category: model.Category(args[1])})
			if err != nil {
				return err
			}

			f := model.FieldsOf(*item)
			if anyFieldChanged(fs) {
				f = ff.apply(fs, f)
			} else if f, err = a.fillForm(f); err != nil {
				return err
			}

			edited, err := a.mgr.Edit(ctx, item.Key(), f)
			if err != nil {
				return err
			}
			o.Printf("edited %d: %s\n", edited.ID, edited.Key())
			return nil
		},
	}
}
