package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/volley/packages/core/config"
	"github.com/abdul-hamid-achik/volley/packages/history"
	"github.com/abdul-hamid-achik/volley/packages/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past runs stored with --history-db",
}

var (
	historyDBPath string
	historyLimit  int
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the records of one stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDBPath, "db", getEnvString("VOLLEY_HISTORY_DB", ""), "SQLite history database (env: VOLLEY_HISTORY_DB)")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*history.Store, error) {
	dbPath := historyDBPath
	if dbPath == "" {
		fileConfig, err := config.LoadConfig("")
		if err != nil {
			return nil, err
		}
		dbPath = fileConfig.HistoryDB
	}
	if dbPath == "" {
		return nil, fmt.Errorf("no history database configured (use --db, VOLLEY_HISTORY_DB, or historyDb in .volley.yaml)")
	}
	return history.Open(dbPath)
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	bold := color.New(color.Bold).SprintFunc()
	for _, run := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d requests (%d skipped)  %dms  %s\n",
			bold(run.ID),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Total,
			run.Skipped,
			run.Duration.Milliseconds(),
			run.Source,
		)
	}
	return nil
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Records(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records found for run %s", args[0])
	}

	console := output.NewConsole(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithErrWriter(cmd.ErrOrStderr()),
	)
	for _, rec := range records {
		console.RequestCompleted(rec)
	}
	return nil
}
