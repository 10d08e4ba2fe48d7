package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stanzalang/stanza/internal/graph/export"
)

func newRunCommand() *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "run <program.stanza> <source-file>",
		Short: "Run a stanza program against a source file and report the resulting graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			rc, err := runAgainst(program, args[1])
			if err != nil {
				return err
			}

			nodes := rc.Graph().Nodes()
			edges := rc.Graph().Edges()
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d node(s), %d edge(s)\n", rc.ID(), len(nodes), len(edges))

			if exportPath != "" {
				if err := export.SQLite(exportPath, rc.Graph()); err != nil {
					return fmt.Errorf("exporting graph: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", exportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export-sqlite", "", "persist the resulting graph to a SQLite file")
	return cmd
}
