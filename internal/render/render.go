// Package render turns content trees into HTML and Markdown and formats CLI output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	columnGap   = 2
	tabWidth    = 2
	cellNewline = " "
)

// JSON writes v as two-space indented JSON. Markup inside string values is not escaped to
// \u003c sequences.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Table writes headers and rows as aligned columns. Newlines and tabs inside a cell are
// flattened to spaces so one row stays one line.
func Table(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, tabWidth, columnGap, ' ', 0)

	lines := rows
	if len(headers) > 0 {
		lines = append([][]string{headers}, rows...)
	}
	for _, cells := range lines {
		if _, err := io.WriteString(tw, tableLine(cells)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}

var cellFlattener = strings.NewReplacer("\r\n", cellNewline, "\n", cellNewline, "\t", cellNewline)

func tableLine(cells []string) string {
	flat := make([]string, len(cells))
	for i, cell := range cells {
		flat[i] = cellFlattener.Replace(cell)
	}
	return strings.Join(flat, "\t") + "\n"
}
