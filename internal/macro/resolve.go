package macro

import (
	"strings"

	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/parser"
)

// ResolveName returns the class name an annotation refers to. A qualified
// annotation names its class directly. A simple name is looked up among the
// explicit imports whose alias, or last segment when there is no alias,
// equals it: no match leaves the simple name, one match yields the imported
// name and several distinct matches are an AmbiguousResolution.
func ResolveName(ann *parser.Annotation, imports []*parser.ImportDirective) (string, error) {
	if len(ann.Names) != 1 {
		return ann.Name(), nil
	}
	short := ann.Names[0]

	var matches []string
	seen := make(map[string]bool)
	for _, imp := range imports {
		if imp.Wildcard || len(imp.Names) == 0 {
			continue
		}
		local := imp.Alias
		if local == "" {
			local = imp.Names[len(imp.Names)-1]
		}
		if local != short {
			continue
		}
		fqn := strings.Join(imp.Names, ".")
		if !seen[fqn] {
			seen[fqn] = true
			matches = append(matches, fqn)
		}
	}

	switch len(matches) {
	case 0:
		return short, nil
	case 1:
		return matches[0], nil
	default:
		return "", qerrors.AmbiguousResolution(short, matches)
	}
}
