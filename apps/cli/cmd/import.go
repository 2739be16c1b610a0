package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
	"github.com/abdul-hamid-achik/volley/packages/import/curl"
	"github.com/abdul-hamid-achik/volley/packages/import/openapi"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert curl commands or OpenAPI documents into volley files",
}

var (
	importOutput  string
	importBaseURL string
	importTags    []string
)

var importCurlCmd = &cobra.Command{
	Use:   "curl <command|file>",
	Short: "Convert curl command lines into a volley file",
	Long: `Convert curl command lines into a volley file. The argument is either
a path to a script of curl commands or a curl command itself (quote it, or
separate it with --).

Examples:
  volley import curl 'curl -X POST http://localhost:8080/login -d user=admin'
  volley import curl -- curl http://localhost:8080/health
  volley import curl requests.curl -o requests.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: importCurlCommand,
}

var importOpenAPICmd = &cobra.Command{
	Use:   "openapi <spec-file>",
	Short: "Convert an OpenAPI 3 document into a volley file",
	Long: `Convert an OpenAPI 3 document into a volley file with one request per
operation, filled with the document's example values.

Examples:
  volley import openapi api.yaml -o requests.yml
  volley import openapi api.yaml --base-url http://localhost:3000
  volley import openapi api.yaml --tag public`,
	Args: cobra.ExactArgs(1),
	RunE: importOpenAPICommand,
}

func init() {
	importCmd.PersistentFlags().StringVarP(&importOutput, "output", "o", "", "Write the document to this file instead of stdout")
	importOpenAPICmd.Flags().StringVar(&importBaseURL, "base-url", "", "Base URL to convert against, overriding the document's servers")
	importOpenAPICmd.Flags().StringSliceVar(&importTags, "tag", nil, "Keep only operations with this tag (repeatable)")

	importCmd.AddCommand(importCurlCmd)
	importCmd.AddCommand(importOpenAPICmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	var requests []*parser.Request

	if len(args) == 1 {
		if _, err := os.Stat(args[0]); err == nil {
			requests, err = curl.ParseFile(args[0])
			if err != nil {
				return err
			}
			return writeDocument(cmd, requests)
		}
	}

	req, err := curl.Parse(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return writeDocument(cmd, []*parser.Request{req})
}

func importOpenAPICommand(cmd *cobra.Command, args []string) error {
	var opts []openapi.Option
	if importBaseURL != "" {
		opts = append(opts, openapi.WithBaseURL(importBaseURL))
	}
	if len(importTags) > 0 {
		opts = append(opts, openapi.WithTags(importTags))
	}

	requests, err := openapi.NewConverter(opts...).ConvertFile(args[0])
	if err != nil {
		return err
	}
	return writeDocument(cmd, requests)
}

func writeDocument(cmd *cobra.Command, requests []*parser.Request) error {
	if len(requests) == 0 {
		return fmt.Errorf("nothing to convert")
	}

	data, err := yaml.Marshal(requests)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	if importOutput == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(importOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", importOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d requests to %s\n", len(requests), importOutput)
	return nil
}
