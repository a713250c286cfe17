// Package format writes generic trees back as host language source and
// renders unified diffs between source versions.
package format

import (
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
)

// Options controls text normalization.
type Options struct {
	// PreserveNewlineStyle: when true, CRLF in input keeps CRLF in output; else LF.
	PreserveNewlineStyle bool
}

// FormatText trims trailing blanks from every line and ends the text with
// exactly one newline, in the input's newline style when preserved.
func FormatText(text string, opts Options) string {
	sep := "\n"
	if opts.PreserveNewlineStyle && strings.Contains(text, "\r\n") {
		sep = "\r\n"
	}
	norm := strings.ReplaceAll(text, "\r\n", "\n")
	norm = strings.ReplaceAll(norm, "\r", "\n")
	norm = strings.TrimRight(norm, "\n")
	if norm == "" {
		return sep
	}
	lines := strings.Split(norm, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, sep) + sep
}

// Node writes n as source and normalizes the result for display or for
// writing to a file of its own.
func Node(n ast.Node, extras ast.ExtrasMap) string {
	w := NewWriter(DefaultWriterOptions())
	if extras != nil {
		w.WithExtras(extras)
	}
	return FormatText(w.Write(n), Options{})
}
