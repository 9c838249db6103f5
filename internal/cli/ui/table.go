package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders aligned columns with a colored header.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a table with the given headers.
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{
		writer:  w,
		headers: headers,
		noColor: noColor,
	}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	header := t.color(color.Bold, color.FgCyan)
	for i, h := range t.headers {
		header.Fprint(t.writer, t.pad(h, widths[i], i))
	}
	fmt.Fprintln(t.writer)

	rule := t.color(color.FgHiBlack)
	for i, width := range widths {
		rule.Fprint(t.writer, t.pad(strings.Repeat("─", width), width, i))
	}
	fmt.Fprintln(t.writer)

	for _, row := range t.rows {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprint(t.writer, t.pad(cell, widths[i], i))
		}
		fmt.Fprintln(t.writer)
	}
}

// Heading prints a bold label followed by value.
func Heading(w io.Writer, noColor bool, label, value string) {
	c := color.New(color.Bold)
	if noColor {
		c.DisableColor()
	}
	c.Fprintf(w, "%s: ", label)
	fmt.Fprintln(w, value)
}

// YesNo renders a boolean as a green "yes" or a yellow "no".
func YesNo(v bool, noColor bool) string {
	c := color.New(color.FgYellow)
	text := "no"
	if v {
		c = color.New(color.FgGreen)
		text = "yes"
	}
	if noColor {
		c.DisableColor()
	}
	return c.Sprint(text)
}

func (t *Table) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.noColor {
		c.DisableColor()
	}
	return c
}

func (t *Table) pad(s string, width, column int) string {
	if column == len(t.headers)-1 {
		return s
	}
	if n := visibleLen(s); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s + "  "
}

// visibleLen ignores ANSI escape sequences.
func visibleLen(s string) int {
	n, escape := 0, false
	for _, r := range s {
		switch {
		case r == '\x1b':
			escape = true
		case escape:
			if r == 'm' {
				escape = false
			}
		default:
			n++
		}
	}
	return n
}
