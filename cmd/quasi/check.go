package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/quasi/internal/cli"
	"github.com/orizon-lang/quasi/internal/diagnostic"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <files...>",
		Short: "Preprocess files and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sources, err := loadFiles(ctx, args)
			if err != nil {
				return err
			}

			engine := diagnostic.NewEngine(diagnostic.DefaultConfig())
			pp, err := a.preprocessor(engine)
			if err != nil {
				return err
			}
			defer pp.Close()

			for _, src := range sources {
				r, err := pp.Process(ctx, src.file)
				if err != nil {
					return fmt.Errorf("%s: %w", src.path, err)
				}
				a.logger.Info("checked file", "file", src.path, "constructs", len(r.Overlay.Constructs()),
					"diagnostics", len(r.Diagnostics))
			}

			fmt.Fprint(a.stdout, diagnostic.NewPrinter(a.stdout).FormatAll(engine))
			if engine.HasErrors() {
				return cli.Findings()
			}
			return nil
		},
	}
}
