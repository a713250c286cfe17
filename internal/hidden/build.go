package hidden

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/quasi/internal/ast"
	qerrors "github.com/orizon-lang/quasi/internal/errors"
	"github.com/orizon-lang/quasi/internal/format"
	"github.com/orizon-lang/quasi/internal/parser"
	"github.com/orizon-lang/quasi/internal/quotation"
)

const splicePrefix = "__splice_"

// BuildQuotation converts the quotation of c and builds its hidden element:
// the serialized generic tree re-parsed as an expression, with every
// interpolation relinked to the live expression of the original file.
// A failure leaves c uninitialized and is returned.
func (o *Overlay) BuildQuotation(c *Construct, x *quotation.Extraction) error {
	generic, extras, err := x.Convert()
	if err != nil {
		return o.Fail(c, err)
	}
	text, splices, err := serializeWithSplices(generic, func(ext *ast.ExternalName) (parser.Expr, bool) {
		in, ok := x.Lookup(ext)
		if !ok {
			return nil, false
		}
		return in.Expr, true
	})
	if err != nil {
		return o.Fail(c, err)
	}
	root, err := parser.ParseExpression(text, parser.WithSplices(splices), parser.WithFilename(o.synthetic.Name))
	if err != nil {
		return o.Fail(c, qerrors.Wrap(qerrors.KindConversionFailure, err,
			"serialized quotation does not parse", map[string]interface{}{"text": text}))
	}
	c.Generic, c.Extras, c.Text, c.splices, c.Err = generic, extras, text, splices, nil
	o.install(c, root)
	c.state = HiddenBuilt
	return nil
}

// BuildMacro builds the hidden element of macro construct c from the tree
// the macro returned: the tree is written as source and parsed as a
// declaration. A failure leaves c uninitialized and is returned.
func (o *Overlay) BuildMacro(c *Construct, result ast.Node) error {
	root, text, err := o.parseMacroResult(c, result)
	if err != nil {
		return o.Fail(c, err)
	}
	c.Generic, c.Text, c.Err = result, text, nil
	o.install(c, root)
	c.state = HiddenBuilt
	return nil
}

func (o *Overlay) parseMacroResult(c *Construct, result ast.Node) (parser.Node, string, error) {
	text := format.Source(result)
	root, err := parser.ParseDeclaration(text, parser.WithFilename(o.synthetic.Name))
	if err != nil {
		return nil, "", qerrors.Wrap(qerrors.KindConversionFailure, err,
			fmt.Sprintf("result of %s does not parse as a declaration", c.Class),
			map[string]interface{}{"class": c.Class, "text": text})
	}
	return root, text, nil
}

// Fail records err on c and leaves it uninitialized.
func (o *Overlay) Fail(c *Construct, err error) error {
	c.Err = err
	c.state = Uninitialized
	o.logger.Debug("construct left uninitialized", "kind", c.Kind.String(), "error", err)
	return err
}

// rebuild creates a fresh hidden element for c from its recorded text.
func (o *Overlay) rebuild(c *Construct) error {
	var root parser.Node
	var err error
	switch c.Kind {
	case KindQuotation:
		root, err = parser.ParseExpression(c.Text, parser.WithSplices(c.splices), parser.WithFilename(o.synthetic.Name))
	case KindMacro:
		root, err = parser.ParseDeclaration(c.Text, parser.WithFilename(o.synthetic.Name))
	}
	if err != nil {
		return err
	}
	o.install(c, root)
	return nil
}

// install records root and its descendants as the hidden element of c and
// places it in the synthetic file, replacing any previous element.
func (o *Overlay) install(c *Construct, root parser.Node) {
	live := make(map[parser.Node]bool, len(c.splices))
	for _, e := range c.splices {
		live[e] = true
	}

	previous := o.records[c.ID].Hidden
	rootID := o.record(root, Role{Kind: RoleHiddenRoot, Ref: c.ID})
	o.records[c.ID].Hidden = rootID
	parser.Inspect(root, func(n parser.Node) bool {
		switch {
		case n == root:
			return true
		case live[n]:
			o.record(n, Role{Kind: RoleOriginal, Ref: NoID})
			return false
		}
		o.record(n, Role{Kind: RoleHiddenDescendant, Ref: rootID})
		return true
	})

	var old parser.Node
	if previous != NoID {
		old = o.records[previous].Node
	}
	o.place(old, root)
}

func (o *Overlay) place(old, root parser.Node) {
	if d, ok := root.(parser.Decl); ok {
		for i, x := range o.synthetic.Decls {
			if old != nil && parser.Node(x) == old {
				o.synthetic.Decls[i] = d
				return
			}
		}
		o.synthetic.Decls = append(o.synthetic.Decls, d)
		return
	}
	for i, x := range o.synthetic.Stmts {
		if old != nil && x == old {
			o.synthetic.Stmts[i] = root
			return
		}
	}
	o.synthetic.Stmts = append(o.synthetic.Stmts, root)
}

// serializeWithSplices serializes n, writing every external name as a
// placeholder identifier bound to the expression lookup returns for it. The
// placeholder prefix is extended until it does not occur in the plain
// serialization.
func serializeWithSplices(n ast.Node, lookup func(*ast.ExternalName) (parser.Expr, bool)) (string, map[string]parser.Expr, error) {
	plain := ast.Serialize(n)
	prefix := splicePrefix
	for strings.Contains(plain, prefix) {
		prefix += "_"
	}

	splices := make(map[string]parser.Expr)
	var missing []string
	s := ast.Serializer{External: func(ext *ast.ExternalName) string {
		e, ok := lookup(ext)
		if !ok {
			missing = append(missing, ext.Name)
			return ext.Name
		}
		name := fmt.Sprintf("%s%d__", prefix, len(splices))
		splices[name] = e
		return name
	}}
	text := s.Serialize(n)
	if len(missing) > 0 {
		return "", nil, qerrors.ConversionFailure("quotation",
			fmt.Sprintf("no interpolation for %s", strings.Join(missing, ", ")))
	}
	return text, splices, nil
}
