package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/volley/packages/record"
)

var (
	recordTarget  string
	recordPort    int
	recordOutput  string
	recordExclude []string
	recordRedact  []string
	recordDedupe  bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record live traffic through a reverse proxy into a volley file",
	Long: `Start a reverse proxy in front of a service and record every request
that passes through it, in arrival order. Stop with Ctrl+C and the recorded
document is written out, ready for volley run.

Examples:
  volley record --target http://localhost:3000
  volley record --target http://localhost:3000 --port 9090 -o captured.yml
  volley record --target http://localhost:3000 --exclude /metrics --dedupe`,
	RunE: recordCommand,
}

func init() {
	recordCmd.Flags().StringVar(&recordTarget, "target", "", "Base URL of the service to forward to (required)")
	recordCmd.Flags().IntVar(&recordPort, "port", 8080, "Port the recording proxy listens on")
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "recorded.yml", "File the recorded document is written to")
	recordCmd.Flags().StringSliceVar(&recordExclude, "exclude", nil, "Skip recording requests whose path contains this fragment (repeatable)")
	recordCmd.Flags().StringSliceVar(&recordRedact, "redact", nil, "Extra header to redact in the recorded document (repeatable)")
	recordCmd.Flags().BoolVar(&recordDedupe, "dedupe", false, "Record each method and endpoint pair only once")
	_ = recordCmd.MarkFlagRequired("target")
}

func recordCommand(cmd *cobra.Command, args []string) error {
	opts := []record.Option{
		record.WithPort(recordPort),
		record.WithLogWriter(cmd.OutOrStdout()),
	}
	if len(recordExclude) > 0 {
		opts = append(opts, record.WithExclude(recordExclude))
	}
	if len(recordRedact) > 0 {
		defaults := []string{"Authorization", "Cookie", "X-Api-Key", "Api-Key"}
		opts = append(opts, record.WithRedact(append(defaults, recordRedact...)))
	}
	if recordDedupe {
		opts = append(opts, record.WithDedupe(true))
	}

	recorder, err := record.NewRecorder(recordTarget, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop recording and write the document.")
	if err := recorder.Run(ctx); err != nil {
		return err
	}

	requests := recorder.Requests()
	if len(requests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing recorded.")
		return nil
	}

	data, err := yaml.Marshal(requests)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := os.WriteFile(recordOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", recordOutput, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d requests to %s\n", len(requests), recordOutput)
	return nil
}
