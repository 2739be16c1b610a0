package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the requests volley files describe without sending them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .yml or .yaml files found")
	}

	bold := color.New(color.Bold).SprintFunc()

	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d requests)\n", bold(file), len(f.Requests))
		for _, req := range f.Requests {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", req.Method, req.URL())
		}
	}

	return nil
}
