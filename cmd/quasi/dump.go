package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/astbridge"
	"github.com/orizon-lang/quasi/internal/diagnostic"
	"github.com/orizon-lang/quasi/internal/format"
	"github.com/orizon-lang/quasi/internal/hidden"
)

func newDumpCmd(a *app) *cobra.Command {
	var (
		asSource bool
		read     bool
	)
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the generic tree of every construct",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			for _, c := range r.Overlay.Constructs() {
				if err := dumpConstruct(a, src.file.Source.Describe(c.Node.GetSpan()), c, asSource, read); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asSource, "source", false, "print host source instead of the serialized tree")
	cmd.Flags().BoolVar(&read, "read", false, "check that the serialized tree reads back unchanged")
	return cmd
}

func dumpConstruct(a *app, where string, c *hidden.Construct, asSource, read bool) error {
	header := fmt.Sprintf("== %s %s [%s]", c.Kind, where, c.State())
	if c.Class != "" {
		header += " " + c.Class
	}
	fmt.Fprintln(a.stdout, header)
	if c.Generic == nil {
		fmt.Fprintf(a.stdout, "error: %v\n", c.Err)
		return nil
	}

	text := ast.Serialize(c.Generic)
	if asSource {
		var extras ast.ExtrasMap
		if c.Extras != nil {
			extras = c.Extras
		}
		fmt.Fprint(a.stdout, format.Node(c.Generic, extras))
	} else {
		fmt.Fprintln(a.stdout, text)
	}
	if read {
		back, err := astbridge.Read(text)
		if err != nil {
			return fmt.Errorf("%s: read back: %w", where, err)
		}
		if !ast.Equal(c.Generic, back) {
			return fmt.Errorf("%s: serialized tree does not read back unchanged", where)
		}
	}
	return nil
}
