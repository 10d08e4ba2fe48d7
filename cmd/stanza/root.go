package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stanzalang/stanza/internal/logging"
)

var (
	flagLanguage string
	flagVerbose  bool

	logger *slog.Logger
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "stanza",
		Short:         "Build labelled graphs from syntax trees with the stanza DSL",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flagVerbose {
				level = slog.LevelDebug
			}
			logger = slog.New(logging.NewHumanHandler(os.Stderr, level))
		},
	}

	root.PersistentFlags().StringVar(&flagLanguage, "language", "python", "target grammar (python, go)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log interpreter trace output")

	root.AddCommand(newRunCommand())
	root.AddCommand(newCheckCommand())
	root.AddCommand(newExplainCommand())
	return root
}
