package format

import (
	"bytes"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// DiffOptions controls diff generation.
type DiffOptions struct {
	Context     int  // Number of context lines to show
	IgnoreSpace bool // Ignore trailing whitespace differences
	TabWidth    int  // Tab width used when ignoring whitespace
}

// DefaultDiffOptions returns default diff options.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		Context:     3,
		IgnoreSpace: false,
		TabWidth:    4,
	}
}

// DiffStat contains statistics about changes.
type DiffStat struct {
	LinesAdded   int // Number of lines added
	LinesRemoved int // Number of lines removed
}

// DiffFormatter generates unified diffs between two versions of a file.
// Hunks are computed here and rendered by go-diff's printer.
type DiffFormatter struct {
	options DiffOptions
}

// NewDiffFormatter creates a new diff formatter.
func NewDiffFormatter(options DiffOptions) *DiffFormatter {
	return &DiffFormatter{options: options}
}

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type op struct {
	kind opKind
	a, b int // zero-based line indices in original and modified
}

// GenerateDiff computes the file diff between original and modified. The
// result has no hunks when the texts are equal.
func (df *DiffFormatter) GenerateDiff(filename, original, modified string) *diff.FileDiff {
	a, b := splitLines(original), splitLines(modified)
	ka, kb := a, b
	if df.options.IgnoreSpace {
		ka, kb = df.normalizeWhitespace(a), df.normalizeWhitespace(b)
	}
	return &diff.FileDiff{
		OrigName: "a/" + filename,
		NewName:  "b/" + filename,
		Hunks:    df.hunks(a, b, lineOps(ka, kb)),
	}
}

// FormatDiff renders fd as unified diff text, or "" when nothing changed.
func (df *DiffFormatter) FormatDiff(fd *diff.FileDiff) (string, error) {
	if len(fd.Hunks) == 0 {
		return "", nil
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Stats counts added and removed lines of fd.
func Stats(fd *diff.FileDiff) DiffStat {
	var st DiffStat
	for _, h := range fd.Hunks {
		for _, line := range bytes.SplitAfter(h.Body, []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			switch line[0] {
			case '+':
				st.LinesAdded++
			case '-':
				st.LinesRemoved++
			}
		}
	}
	return st
}

// Diff renders the unified diff between original and modified with the
// default options and counts its changed lines.
func Diff(filename, original, modified string) (string, DiffStat, error) {
	df := NewDiffFormatter(DefaultDiffOptions())
	fd := df.GenerateDiff(filename, original, modified)
	out, err := df.FormatDiff(fd)
	if err != nil {
		return "", DiffStat{}, err
	}
	return out, Stats(fd), nil
}

// splitLines splits text into lines without their terminators.
func splitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// normalizeWhitespace normalizes whitespace for comparison.
func (df *DiffFormatter) normalizeWhitespace(lines []string) []string {
	normalized := make([]string, len(lines))
	for i, line := range lines {
		expanded := strings.ReplaceAll(line, "\t", strings.Repeat(" ", df.options.TabWidth))
		normalized[i] = strings.TrimRight(expanded, " \t\r")
	}
	return normalized
}

// lineOps computes an edit script over lines from a longest common
// subsequence table.
func lineOps(a, b []string) []op {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}
	ops := make([]op, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, op{opEqual, i, j})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, op{opDelete, i, j})
			i++
		default:
			ops = append(ops, op{opInsert, i, j})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, op{opDelete, i, j})
	}
	for ; j < m; j++ {
		ops = append(ops, op{opInsert, i, j})
	}
	return ops
}

// hunks groups ops into hunks with the configured context. Changes closer
// than twice the context share a hunk.
func (df *DiffFormatter) hunks(a, b []string, ops []op) []*diff.Hunk {
	ctx := df.options.Context
	var out []*diff.Hunk
	for start := 0; start < len(ops); {
		for start < len(ops) && ops[start].kind == opEqual {
			start++
		}
		if start == len(ops) {
			break
		}
		end := start
		for k := start; k < len(ops); k++ {
			if ops[k].kind != opEqual {
				end = k + 1
				continue
			}
			if k-end >= 2*ctx {
				break
			}
		}
		lo := start - ctx
		if lo < 0 {
			lo = 0
		}
		hi := end + ctx
		if hi > len(ops) {
			hi = len(ops)
		}
		out = append(out, buildHunk(a, b, ops[lo:hi]))
		start = hi
	}
	return out
}

func buildHunk(a, b []string, ops []op) *diff.Hunk {
	h := &diff.Hunk{
		OrigStartLine: int32(ops[0].a + 1),
		NewStartLine:  int32(ops[0].b + 1),
	}
	var body bytes.Buffer
	for _, o := range ops {
		switch o.kind {
		case opEqual:
			body.WriteString(" " + a[o.a] + "\n")
			h.OrigLines++
			h.NewLines++
		case opDelete:
			body.WriteString("-" + a[o.a] + "\n")
			h.OrigLines++
		case opInsert:
			body.WriteString("+" + b[o.b] + "\n")
			h.NewLines++
		}
	}
	// unified diffs number an empty side from the line before it
	if h.OrigLines == 0 {
		h.OrigStartLine--
	}
	if h.NewLines == 0 {
		h.NewStartLine--
	}
	h.Body = body.Bytes()
	return h
}
