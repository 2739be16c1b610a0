package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/volley/packages/core/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter volley.yml and .volley.yaml in the current directory",
	Long: `Create a starter request file (volley.yml) and a config file
(.volley.yaml) in the current directory. Existing files are left alone
unless --force is given.`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
}

const skeletonFile = `# Requests are sent top to bottom, one at a time.
#
# Body encoding is chosen by the Content-Type header:
#   application/x-www-form-urlencoded  -> data entries become a form body
#   application/json                   -> data entries become a JSON object
#   text/plain                         -> the "txt" entry is sent as-is
# Without one of those, data is ignored and the request goes out bodyless.

- target: localhost
  port: 8080
  endpoint: /health
  method: GET

- target: localhost
  port: 8080
  endpoint: /login
  method: POST
  headers:
    Content-Type: application/x-www-form-urlencoded
  data:
    username: admin
    password: secret
`

func initCommand(cmd *cobra.Command, args []string) error {
	if err := writeSkeleton("volley.yml", []byte(skeletonFile)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Created: volley.yml")

	configData, err := yaml.Marshal(map[string]interface{}{
		"output":  config.DefaultOutput,
		"timeout": "30s",
	})
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := writeSkeleton(".volley.yaml", configData); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Created: .volley.yaml")

	fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'volley run volley.yml' to send the example requests.")
	return nil
}

func writeSkeleton(path string, data []byte) error {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
