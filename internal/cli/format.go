package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/erazemk/revival/internal/model"
	"github.com/erazemk/revival/internal/schema"
)

// attributeNames returns the attribute names of it in display order: schema
// fields first, then any other stored keys sorted.
func attributeNames(it model.Item) []string {
	names := schema.Fields(it.Category)
	for _, k := range slices.Sorted(maps.Keys(it.Attributes)) {
		if !slices.Contains(names, k) {
			names = append(names, k)
		}
	}
	return names
}

func formatAttributes(it model.Item) string {
	var parts []string
	for _, name := range attributeNames(it) {
		if v := it.Attributes[name]; v != "" {
			parts = append(parts, schema.Label(it.Category, name)+"="+v)
		}
	}
	return strings.Join(parts, ", ")
}

// printItems writes items as an aligned table.
func printItems(w io.Writer, items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no items)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tDESCRIPTION\tADDRESS\tPHONE\tEMAIL\tATTRIBUTES")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Name, it.Category, it.Description, it.Address,
			it.ContactPhone, it.ContactEmail, formatAttributes(it))
	}
	tw.Flush()
}

// printItem writes every field of one item.
func printItem(w io.Writer, it model.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", it.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", it.Name)
	fmt.Fprintf(tw, "Category:\t%s\n", it.Category)
	fmt.Fprintf(tw, "Description:\t%s\n", it.Description)
	fmt.Fprintf(tw, "Address:\t%s\n", it.Address)
	fmt.Fprintf(tw, "Phone:\t%s\n", it.ContactPhone)
	fmt.Fprintf(tw, "Email:\t%s\n", it.ContactEmail)
	for _, name := range attributeNames(it) {
		fmt.Fprintf(tw, "%s:\t%s\n", schema.Label(it.Category, name), it.Attributes[name])
	}
	if it.HasPhoto() {
		fmt.Fprintf(tw, "Photo:\t%s\n", it.PhotoMIME)
	}
	tw.Flush()
}
