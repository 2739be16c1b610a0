package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Check volley files against the document schema without sending anything",
	Long: `Check that the given volley files are well-formed: valid YAML, the
right document shape, and every required field present. Schema checking
reports all defects in a file, not just the first one. Nothing is sent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .yml or .yaml files found")
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	hasErrors := false
	for _, file := range files {
		err := parser.ValidateDocumentFile(file)
		if err == nil {
			// The schema pass accepts shapes the strict decoder still
			// rejects, e.g. values that cannot decode into their field type.
			_, err = parser.ParseFile(file)
		}
		if err != nil {
			hasErrors = true
			var perr *parser.ParseError
			if errors.As(err, &perr) {
				err = perr.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", red("Error in"), file, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("Valid:"), file)
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}
	return nil
}
