package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/quasi/internal/config"
	"github.com/orizon-lang/quasi/internal/hidden"
	"github.com/orizon-lang/quasi/internal/store"
)

func newUndoCmd(a *app) *cobra.Command {
	var (
		key   string
		write bool
	)
	cmd := &cobra.Command{
		Use:   "undo <file>",
		Short: "Restore the text an expansion replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return errors.New("undo: --key is required")
			}
			if a.cfg.Store.Kind != config.StoreBadger {
				a.logger.Warn("expansion store is not persistent; only expansions of this run can be undone",
					"store", a.cfg.Store.Kind)
			}
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			s, err := store.Open(a.cfg.Store, a.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			text, rec, err := hidden.Undo(ctx, s, string(data), key)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "restored %s at offset %d\n", rec.Class, rec.Start)
			if write {
				return os.WriteFile(args[0], []byte(text), 0o644)
			}
			fmt.Fprint(a.stdout, text)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "key reported by expand")
	cmd.Flags().BoolVar(&write, "write", false, "write the result back to the file")
	return cmd
}
