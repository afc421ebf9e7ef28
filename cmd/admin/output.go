package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"sangihetrip/internal/apiclient"
)

// printPage prints items as an id/name/status table followed by the paging
// line.
func printPage(w io.Writer, items []json.RawMessage, meta apiclient.Meta) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
		for _, raw := range items {
			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				fmt.Fprintf(tw, "?\t%s\t\n", raw)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n",
				field(fields, "id", "_id"),
				field(fields, "name", "title", "email"),
				field(fields, "status", "role"),
			)
		}
		_ = tw.Flush()
	}

	totalPages := meta.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	fmt.Fprintf(w, "Page %d of %d, %d total.\n", max(meta.Page, 1), totalPages, meta.TotalItems)
}

// field returns the first of keys present in fields, formatted.
func field(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return fmt.Sprintf("%g", t)
		default:
			return fmt.Sprint(t)
		}
	}
	return "-"
}
