// Diagnostic reporting for quotation and macro processing.
// Recovered failures become diagnostics anchored at the construct that
// triggered them; reporting never fails.

package diagnostic

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orizon-lang/quasi/internal/position"
)

// Level represents the severity level of a diagnostic message.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelHint
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Code identifies the kind of a diagnostic.
type Code string

const (
	CodeClassNotFound         Code = "MACRO_CLASS_NOT_FOUND"
	CodeNoMatchingConstructor Code = "MACRO_NO_MATCHING_CONSTRUCTOR"
	CodeMethodNotFound        Code = "MACRO_METHOD_NOT_FOUND"
	CodeInvocationFailure     Code = "MACRO_INVOCATION_FAILURE"
	CodeQuotationInit         Code = "QUOTATION_INITIALIZATION_ERROR"
	CodeAmbiguousResolution   Code = "MACRO_AMBIGUOUS_RESOLUTION"
	CodeTooManyErrors         Code = "TOO_MANY_ERRORS"
)

var titles = map[Code]string{
	CodeClassNotFound:         "Macro class not found",
	CodeNoMatchingConstructor: "No matching macro constructor",
	CodeMethodNotFound:        "Macro entry point not found",
	CodeInvocationFailure:     "Macro invocation failed",
	CodeQuotationInit:         "Quotation could not be initialized",
	CodeAmbiguousResolution:   "Ambiguous macro annotation",
	CodeTooManyErrors:         "Too many errors",
}

// Title returns the human readable headline of the code.
func (c Code) Title() string {
	if t, ok := titles[c]; ok {
		return t
	}
	return string(c)
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code    Code
	Level   Level
	Title   string
	Message string
	Span    position.Span
	Related []RelatedInformation
	Tags    []string

	// Start and End are resolved from Source when the anchor is set.
	Start  position.Position
	End    position.Position
	Source *position.SourceFile
}

// RelatedInformation provides additional context for a diagnostic.
type RelatedInformation struct {
	Message string
	Span    position.Span
}

// Filename returns the name of the file the diagnostic is anchored in.
func (d *Diagnostic) Filename() string {
	if d.Source != nil {
		return d.Source.Filename
	}
	return d.Start.Filename
}

func (d *Diagnostic) String() string {
	loc := d.Start.String()
	if d.Source == nil && !d.Start.IsValid() {
		loc = d.Span.String()
	}
	if d.Message == "" {
		return fmt.Sprintf("%s: %s[%s]: %s", loc, d.Level, d.Code, d.Title)
	}
	return fmt.Sprintf("%s: %s[%s]: %s: %s", loc, d.Level, d.Code, d.Title, d.Message)
}

// Builder helps construct diagnostic messages with a fluent API.
type Builder struct {
	diagnostic *Diagnostic
}

// New starts an error diagnostic of the given code.
func New(code Code) *Builder {
	return &Builder{diagnostic: &Diagnostic{Code: code, Level: LevelError, Title: code.Title()}}
}

func (b *Builder) Warning() *Builder {
	b.diagnostic.Level = LevelWarning

	return b
}

func (b *Builder) Level(level Level) *Builder {
	b.diagnostic.Level = level

	return b
}

func (b *Builder) Title(title string) *Builder {
	b.diagnostic.Title = title

	return b
}

func (b *Builder) Message(message string) *Builder {
	b.diagnostic.Message = message

	return b
}

func (b *Builder) Messagef(format string, args ...interface{}) *Builder {
	b.diagnostic.Message = fmt.Sprintf(format, args...)

	return b
}

// At anchors the diagnostic at span of src. src may be nil.
func (b *Builder) At(src *position.SourceFile, span position.Span) *Builder {
	b.diagnostic.Span = span
	b.diagnostic.Source = src
	if src != nil && span.IsValid() {
		b.diagnostic.Start = src.Position(span.Start)
		b.diagnostic.End = src.Position(span.End)
	}

	return b
}

func (b *Builder) Related(span position.Span, message string) *Builder {
	b.diagnostic.Related = append(b.diagnostic.Related, RelatedInformation{Span: span, Message: message})

	return b
}

func (b *Builder) Tag(tag string) *Builder {
	b.diagnostic.Tags = append(b.diagnostic.Tags, tag)

	return b
}

func (b *Builder) Build() *Diagnostic {
	return b.diagnostic
}

// Sink receives diagnostics. Report must not fail.
type Sink interface {
	Report(d *Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d *Diagnostic)

func (f SinkFunc) Report(d *Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(*Diagnostic) {})

// Config controls engine behavior.
type Config struct {
	IgnoreCodes      []Code
	MaxErrors        int
	WarningsAsErrors bool
	ShowRelatedInfo  bool
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{MaxErrors: 100, ShowRelatedInfo: true}
}

// Engine collects diagnostics. It is safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	errors      int
	truncated   bool
	config      Config
}

// NewEngine creates a new diagnostic engine.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Report implements Sink.
func (e *Engine) Report(d *Diagnostic) {
	if d == nil || e.shouldIgnore(d) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.truncated {
		return
	}
	if e.config.WarningsAsErrors && d.Level == LevelWarning {
		d.Level = LevelError
	}
	e.diagnostics = append(e.diagnostics, *d)
	if d.Level == LevelError {
		e.errors++
	}

	if e.config.MaxErrors > 0 && e.errors >= e.config.MaxErrors {
		e.truncated = true
		stop := New(CodeTooManyErrors).
			Messagef("stopping after %d errors", e.config.MaxErrors).
			Build()
		e.diagnostics = append(e.diagnostics, *stop)
	}
}

func (e *Engine) shouldIgnore(d *Diagnostic) bool {
	for _, code := range e.config.IgnoreCodes {
		if d.Code == code {
			return true
		}
	}

	return false
}

// Diagnostics returns a copy of all diagnostics.
func (e *Engine) Diagnostics() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]Diagnostic(nil), e.diagnostics...)
}

// Errors returns only error-level diagnostics.
func (e *Engine) Errors() []Diagnostic {
	return e.filter(LevelError)
}

// Warnings returns only warning-level diagnostics.
func (e *Engine) Warnings() []Diagnostic {
	return e.filter(LevelWarning)
}

func (e *Engine) filter(level Level) []Diagnostic {
	var out []Diagnostic
	for _, d := range e.Diagnostics() {
		if d.Level == level {
			out = append(out, d)
		}
	}

	return out
}

// HasErrors returns true if there are any errors.
func (e *Engine) HasErrors() bool {
	return len(e.Errors()) > 0
}

// Clear removes all diagnostics.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.diagnostics = e.diagnostics[:0]
	e.errors = 0
	e.truncated = false
}

// Sort orders diagnostics by file, offset and severity.
func (e *Engine) Sort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	sort.SliceStable(e.diagnostics, func(i, j int) bool {
		a, b := &e.diagnostics[i], &e.diagnostics[j]

		if a.Filename() != b.Filename() {
			return a.Filename() < b.Filename()
		}

		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}

		return a.Level < b.Level
	})
}

// Summary counts diagnostics by level.
type Summary struct {
	Total    int
	Errors   int
	Warnings int
	ByCode   map[Code]int
}

// Summary returns the counts of the collected diagnostics.
func (e *Engine) Summary() Summary {
	s := Summary{ByCode: make(map[Code]int)}
	for _, d := range e.Diagnostics() {
		s.Total++
		s.ByCode[d.Code]++
		switch d.Level {
		case LevelError:
			s.Errors++
		case LevelWarning:
			s.Warnings++
		}
	}

	return s
}
