package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// render writes data as indented JSON, or calls text when the text format is
// selected.
func render(w io.Writer, opts *RootOptions, data any, text func(w io.Writer) error) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	}
	return text(w)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
