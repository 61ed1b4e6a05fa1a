package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PlainTableWriter provides kubectl-style plain table output without box-drawing characters.
// It is used when output is piped so that grep, awk and cut see one row per line.
type PlainTableWriter struct {
	headers      []string
	rows         [][]string
	columnWidths []int
	// minPadding is the minimum space between columns
	minPadding  int
	showHeaders bool
	output      io.Writer
}

// NewPlainTableWriter creates a new plain table writer.
func NewPlainTableWriter(output io.Writer) *PlainTableWriter {
	return &PlainTableWriter{
		minPadding:  3,
		showHeaders: true,
		output:      output,
	}
}

// SetHeaders sets the column headers, displayed in uppercase.
func (w *PlainTableWriter) SetHeaders(headers []string) {
	w.headers = make([]string, len(headers))
	w.columnWidths = make([]int, len(headers))
	for i, h := range headers {
		upper := strings.ToUpper(h)
		w.headers[i] = upper
		w.columnWidths[i] = len(upper)
	}
}

// SetNoHeaders controls whether to suppress the header row.
func (w *PlainTableWriter) SetNoHeaders(noHeaders bool) {
	w.showHeaders = !noHeaders
}

// AppendRow adds a row, padding or truncating it to the header count.
func (w *PlainTableWriter) AppendRow(row []string) {
	normalized := make([]string, len(w.headers))
	for i := range w.headers {
		if i < len(row) {
			normalized[i] = row[i]
			if width := text.RuneWidthWithoutEscSequences(row[i]); width > w.columnWidths[i] {
				w.columnWidths[i] = width
			}
		}
	}
	w.rows = append(w.rows, normalized)
}

// Render writes the table.
func (w *PlainTableWriter) Render() {
	if len(w.headers) == 0 || (len(w.rows) == 0 && !w.showHeaders) {
		return
	}
	if w.showHeaders {
		w.printRow(w.headers)
	}
	for _, row := range w.rows {
		w.printRow(row)
	}
}

func (w *PlainTableWriter) printRow(row []string) {
	var sb strings.Builder
	for i, cell := range row {
		sb.WriteString(cell)
		if i < len(row)-1 {
			pad := w.columnWidths[i] + w.minPadding - text.RuneWidthWithoutEscSequences(cell)
			sb.WriteString(strings.Repeat(" ", pad))
		}
	}
	fmt.Fprintln(w.output, strings.TrimRight(sb.String(), " "))
}

// TableOptions controls RenderTable.
type TableOptions struct {
	// Plain selects the kubectl-style writer instead of a rounded table.
	Plain     bool
	NoHeaders bool
	// Title is shown above a rounded table.
	Title string
}

// RenderTable writes rows either as a rounded go-pretty table or as a plain
// table.
func RenderTable(w io.Writer, headers []string, rows [][]string, opts TableOptions) {
	if opts.Plain {
		pt := NewPlainTableWriter(w)
		pt.SetHeaders(headers)
		pt.SetNoHeaders(opts.NoHeaders)
		for _, row := range rows {
			pt.AppendRow(row)
		}
		pt.Render()
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if opts.Title != "" {
		t.SetTitle(opts.Title)
	}
	if !opts.NoHeaders {
		header := make(table.Row, len(headers))
		for i, h := range headers {
			header[i] = h
		}
		t.AppendHeader(header)
	}
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		t.AppendRow(r)
	}
	t.Render()
}
