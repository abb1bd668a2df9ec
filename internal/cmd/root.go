package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	fChdir      string
	fLog        bool
	fLogVerbose bool
	fTrace      bool
	fProvider   string
	fModel      string
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "workshop",
		Short:         "Rework text paragraph by paragraph and sentence by sentence",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fChdir != "" && fChdir != "." {
				if err := os.Chdir(fChdir); err != nil {
					return errors.Wrapf(err, "failed to change directory to %q", fChdir)
				}
			}
			return nil
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fChdir, "chdir", ".", "Switch to a different working directory before executing the command.")
	pflags.BoolVar(&fLog, "log", false, "Enable logging to stderr.")
	pflags.BoolVar(&fLogVerbose, "log-verbose", false, "Enable verbose logging. Implies --log.")
	pflags.BoolVar(&fTrace, "trace", false, "Trace HTTP calls.")
	pflags.StringVar(&fProvider, "provider", "", "Rewrite provider (gemini, openai). Overrides the configuration.")
	pflags.StringVar(&fModel, "model", "", "Rewrite model. Overrides the configuration.")

	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(blocksCmd())
	cmd.AddCommand(rewriteCmd())
	cmd.AddCommand(tuiCmd())

	return &cmd
}
