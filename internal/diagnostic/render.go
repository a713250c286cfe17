package diagnostic

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Printer renders diagnostics with source context.
type Printer struct {
	Color       bool
	ShowRelated bool

	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	noteStyle    lipgloss.Style
	gutterStyle  lipgloss.Style
	caretStyle   lipgloss.Style
}

// NewPrinter returns a printer that colors its output when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		Color:        IsTerminal(w),
		ShowRelated:  true,
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		warningStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		noteStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		gutterStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		caretStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *Printer) paint(style lipgloss.Style, s string) string {
	if !p.Color {
		return s
	}

	return style.Render(s)
}

func (p *Printer) levelStyle(level Level) lipgloss.Style {
	switch level {
	case LevelError:
		return p.errorStyle
	case LevelWarning:
		return p.warningStyle
	default:
		return p.noteStyle
	}
}

// Format renders a single diagnostic.
func (p *Printer) Format(d *Diagnostic) string {
	var b strings.Builder

	header := fmt.Sprintf("%s[%s]", d.Level, d.Code)
	b.WriteString(p.paint(p.levelStyle(d.Level), header))
	b.WriteString(": " + d.Title + "\n")

	if d.Start.IsValid() {
		b.WriteString(p.paint(p.gutterStyle, "  --> ") + d.Start.String() + "\n")
	}

	if src := d.Source; src != nil && d.Start.IsValid() {
		line := src.Text(src.LineSpan(d.Start.Line))
		gutter := fmt.Sprintf("%4d | ", d.Start.Line)
		b.WriteString(p.paint(p.gutterStyle, gutter) + line + "\n")

		width := 1
		if d.End.Line == d.Start.Line && d.End.Column > d.Start.Column {
			width = d.End.Column - d.Start.Column
		}
		pad := strings.Repeat(" ", len(gutter)+d.Start.Column-1)
		b.WriteString(pad + p.paint(p.caretStyle, strings.Repeat("^", width)) + "\n")
	}

	if d.Message != "" {
		b.WriteString("  " + d.Message + "\n")
	}

	if p.ShowRelated {
		for _, related := range d.Related {
			where := related.Span.String()
			if d.Source != nil && related.Span.IsValid() {
				where = d.Source.Position(related.Span.Start).String()
			}
			b.WriteString(p.paint(p.noteStyle, "  note: ") + where + ": " + related.Message + "\n")
		}
	}

	return b.String()
}

// FormatAll renders every diagnostic of the engine followed by a summary.
func (p *Printer) FormatAll(e *Engine) string {
	e.Sort()

	var b strings.Builder
	for i, d := range e.Diagnostics() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Format(&d))
	}

	s := e.Summary()
	if s.Total == 0 {
		return "no issues found\n"
	}

	var parts []string
	if s.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", s.Errors))
	}
	if s.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", s.Warnings))
	}
	if len(parts) > 0 {
		b.WriteString("\nfound " + strings.Join(parts, ", ") + "\n")
	}

	return b.String()
}
