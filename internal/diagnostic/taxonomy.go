package diagnostic

import (
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/position"
)

// Site is the kind of construct a failure was recovered at.
type Site int

const (
	SiteMacro Site = iota
	SiteQuotation
)

var macroCodes = map[qerrors.Kind]Code{
	qerrors.KindClassNotFound:         CodeClassNotFound,
	qerrors.KindNoMatchingConstructor: CodeNoMatchingConstructor,
	qerrors.KindMethodNotFound:        CodeMethodNotFound,
	qerrors.KindInvocationFailure:     CodeInvocationFailure,
	qerrors.KindConversionFailure:     CodeInvocationFailure,
	qerrors.KindAmbiguousResolution:   CodeAmbiguousResolution,
}

// CodeFor returns the diagnostic code for a taxonomy error recovered at
// site. Every failure at a quotation is a QUOTATION_INITIALIZATION_ERROR.
func CodeFor(site Site, err error) (Code, bool) {
	kind, ok := qerrors.KindOf(err)
	if !ok {
		return "", false
	}
	if site == SiteQuotation {
		return CodeQuotationInit, true
	}
	code, ok := macroCodes[kind]

	return code, ok
}

// FromError builds the diagnostic for a taxonomy error anchored at span.
// The second result is false when err is not recoverable.
func FromError(site Site, err error, src *position.SourceFile, span position.Span) (*Diagnostic, bool) {
	code, ok := CodeFor(site, err)
	if !ok {
		return nil, false
	}

	return New(code).Message(err.Error()).At(src, span).Tag(site.tag()).Build(), true
}

func (s Site) tag() string {
	if s == SiteQuotation {
		return "quotation"
	}

	return "macro"
}
