// Command quasi preprocesses quotations and macro annotations.
//
// Usage:
//
//	quasi check <files...>
//	quasi expand <file> (--line N | --all) [--diff] [--write]
//	quasi undo <file> --key K [--write]
//	quasi dump <file> [--source] [--read]
//	quasi version [--json]
package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/quasi/internal/cli"
	_ "github.com/orizon-lang/quasi/internal/macro/builtin"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line args and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(ctx); err == nil {
		err = cerr
	}
	return cli.HandleError(stderr, err)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "quasi",
		Short:         "Quotation and macro expansion engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// version needs no configuration.
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./quasi.yaml when present)")
	flags.StringSliceVar(&a.classpath, "classpath", nil, "macro classpath entries, overriding the config")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	flags.BoolVar(&a.trace, "trace", false, "print spans to stderr")

	root.AddCommand(
		newCheckCmd(a),
		newExpandCmd(a),
		newUndoCmd(a),
		newDumpCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cli.PrintVersion(a.stdout, "quasi", jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	return cmd
}
