package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/quasi/internal/diagnostic"
	"github.com/orizon-lang/quasi/internal/format"
	"github.com/orizon-lang/quasi/internal/hidden"
	"github.com/orizon-lang/quasi/internal/parser"
)

func newExpandCmd(a *app) *cobra.Command {
	var (
		line  int
		all   bool
		diff  bool
		write bool
	)
	cmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "Replace macro annotated declarations by their expansion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if line <= 0 && !all {
				return errors.New("expand: one of --line or --all is required")
			}
			ctx := cmd.Context()
			sources, err := loadFiles(ctx, args)
			if err != nil {
				return err
			}
			src := sources[0]

			pp, err := a.preprocessor(diagnostic.Discard)
			if err != nil {
				return err
			}
			defer pp.Close()

			r, err := pp.Process(ctx, src.file)
			if err != nil {
				return err
			}

			text := src.text
			var keys []string
			for _, c := range r.Overlay.Constructs() {
				if !c.Expandable() || (!all && !covers(src.file, c, line)) {
					continue
				}
				if outer, ok := r.Overlay.ExpandedAround(c); ok {
					fmt.Fprintf(a.stderr, "skipped %s inside expanded %s\n", c.Class, outer.Class)
					continue
				}
				out, rec, err := r.Overlay.Expand(ctx, c, text)
				if err != nil {
					return rollback(ctx, r.Overlay, text, keys, err)
				}
				text = out
				keys = append(keys, rec.Key)
				fmt.Fprintf(a.stderr, "expanded %s at offset %d, key %s\n", c.Class, rec.Start, rec.Key)
			}
			if len(keys) == 0 {
				return errors.New("expand: no expandable macro found")
			}

			switch {
			case diff:
				d, st, err := format.Diff(src.path, src.text, text)
				if err != nil {
					return err
				}
				fmt.Fprint(a.stdout, d)
				fmt.Fprintf(a.stderr, "%d line(s) added, %d removed\n", st.LinesAdded, st.LinesRemoved)
			case write:
				return os.WriteFile(src.path, []byte(text), 0o644)
			default:
				fmt.Fprint(a.stdout, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&line, "line", 0, "expand the macro covering this 1-based line")
	cmd.Flags().BoolVar(&all, "all", false, "expand every macro of the file")
	cmd.Flags().BoolVar(&diff, "diff", false, "print a unified diff instead of the text")
	cmd.Flags().BoolVar(&write, "write", false, "write the result back to the file")
	cmd.MarkFlagsMutuallyExclusive("line", "all")
	cmd.MarkFlagsMutuallyExclusive("diff", "write")
	return cmd
}

// rollback undoes the expansions recorded under keys, newest first, so a
// failed run leaves no records behind.
func rollback(ctx context.Context, o *hidden.Overlay, text string, keys []string, cause error) error {
	for i := len(keys) - 1; i >= 0; i-- {
		var err error
		if text, err = o.Undo(ctx, text, keys[i]); err != nil {
			return fmt.Errorf("%w (rollback of %s failed: %v)", cause, keys[i], err)
		}
	}
	return cause
}

// covers reports whether the declaration of c spans line.
func covers(f *parser.File, c *hidden.Construct, line int) bool {
	span := c.Node.GetSpan()
	return f.Source.Position(span.Start).Line <= line && line <= f.Source.Position(span.End).Line
}
