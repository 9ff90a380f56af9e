package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteTable prints rows under a bold header, aligned in columns.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	styled := make([]string, len(header))
	rules := make([]string, len(header))
	for i, h := range header {
		styled[i] = TableHeaderStyle.Render(h)
		rules[i] = strings.Repeat("-", len(h))
	}

	if _, err := fmt.Fprintln(tw, strings.Join(styled, "\t")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(tw, strings.Join(rules, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
