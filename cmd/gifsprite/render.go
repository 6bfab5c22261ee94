package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct{ tag, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

// statusLabelWidth fits the longest label, "State directory:".
const statusLabelWidth = 16

// statusPrinter writes "  Label:  [TAG] message" lines, colored on terminals.
type statusPrinter struct {
	out   io.Writer
	color bool
}

func newStatusPrinter(out io.Writer) statusPrinter {
	return statusPrinter{out: out, color: isTerminal(out)}
}

func (p statusPrinter) line(label string, kind statusKind, format string, args ...any) {
	fmt.Fprintln(p.out, formatStatus(label, kind, fmt.Sprintf(format, args...), p.color))
}

// detail writes an indented list item under the previous status line.
func (p statusPrinter) detail(item string) {
	fmt.Fprintf(p.out, "%s- %s\n", strings.Repeat(" ", statusLabelWidth+3), item)
}

func formatStatus(label string, kind statusKind, message string, color bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.tag)
	if message != "" {
		line += " " + message
	}
	if color {
		return style.color + line + ansiReset
	}
	return line
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type column struct {
	title string
	right bool
}

// renderTable lays rows out under columns. Short rows are padded with blanks.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.right {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
