package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/volley/packages/core/config"
	"github.com/abdul-hamid-achik/volley/packages/core/parser"
	"github.com/abdul-hamid-achik/volley/packages/core/runner"
	"github.com/abdul-hamid-achik/volley/packages/history"
	"github.com/abdul-hamid-achik/volley/packages/metrics"
	"github.com/abdul-hamid-achik/volley/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Send the requests in volley files and write the JSON report",
	Long: `Send every request described by the given volley files, strictly in
file order, one at a time. Completed exchanges are printed as they happen
and collected into a JSON report when the run ends.

Examples:
  volley run requests.yml
  volley run requests.yml --output report.json
  volley run ./requests/ --timeout 30s
  volley run requests.yml --rate 10 --history-db runs.db
  volley run requests.yml --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	outputFlag    string
	timeoutFlag   string
	rateFlag      float64
	quietFlag     bool
	verboseFlag   bool
	noColorFlag   bool
	dryRunFlag    bool
	watchFlag     bool
	historyDBFlag string
	configFlag    string
)

func init() {
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("VOLLEY_OUTPUT", ""), "Report file path (default volley.json) (env: VOLLEY_OUTPUT)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("VOLLEY_TIMEOUT", ""), "Per-request timeout, e.g. 30s, 1m; empty waits forever (env: VOLLEY_TIMEOUT)")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", getEnvFloat("VOLLEY_RATE", 0), "Pace dispatch at this many requests per second (env: VOLLEY_RATE)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("VOLLEY_QUIET", false), "Suppress all output except errors (env: VOLLEY_QUIET)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print timing and body details per exchange")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("VOLLEY_NO_COLOR", false), "Disable colored output (env: VOLLEY_NO_COLOR)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and show what would be sent without sending")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run")
	runCmd.Flags().StringVar(&historyDBFlag, "history-db", getEnvString("VOLLEY_HISTORY_DB", ""), "SQLite database to append run history to (env: VOLLEY_HISTORY_DB)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("VOLLEY_CONFIG", ""), "Path to config file (env: VOLLEY_CONFIG)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return err
	}

	outputPath := fileConfig.Output
	if outputFlag != "" {
		outputPath = outputFlag
	}
	if outputPath == "" {
		outputPath = config.DefaultOutput
	}

	timeoutStr := fileConfig.Timeout
	if timeoutFlag != "" {
		timeoutStr = timeoutFlag
	}
	var timeout time.Duration
	if timeoutStr != "" {
		timeout, err = time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutStr, err)
		}
	}

	rps := fileConfig.Rate
	if rateFlag > 0 {
		rps = rateFlag
	}

	historyDB := fileConfig.HistoryDB
	if historyDBFlag != "" {
		historyDB = historyDBFlag
	}

	quiet := quietFlag || fileConfig.GetQuiet()

	console := output.NewConsole(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithErrWriter(cmd.ErrOrStderr()),
		output.WithVerbose(verboseFlag),
		output.WithQuiet(quiet),
		output.WithNoColor(noColorFlag || fileConfig.GetNoColor() || quiet),
	)

	console.Header(version)

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no .yml or .yaml files found")
	}

	runnerCfg := &runner.Config{
		Timeout:         timeout,
		FollowRedirects: fileConfig.GetFollowRedirects(),
		MaxRedirects:    fileConfig.MaxRedirects,
		DefaultHeaders:  fileConfig.Headers,
		Rate:            rps,
		Reporter:        console,
	}

	runOnce := func() error {
		// Parse everything up front. A bad entry anywhere fails the run
		// before a single request goes out.
		var requests []*parser.Request
		for _, file := range files {
			f, err := parser.ParseFile(file)
			if err != nil {
				return err
			}
			requests = append(requests, f.Requests...)
		}

		if dryRunFlag {
			for _, req := range requests {
				console.DryRunRequest(req)
			}
			return nil
		}

		startedAt := time.Now()
		result, runErr := runner.NewRunner(runnerCfg).Run(cmd.Context(), requests)

		// The report reflects whatever completed, transport failure or not:
		// partial results are worth more than no results.
		if err := output.WriteReport(outputPath, result.Records); err != nil {
			if runErr != nil {
				console.Error(runErr)
			}
			return err
		}
		console.ReportSaved(outputPath)

		if historyDB != "" {
			if err := saveHistory(historyDB, files, startedAt, result); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to save history: %v\n", err)
			}
		}

		console.Summary(result)

		if len(result.Records) > 0 {
			collector := metrics.NewCollector()
			for _, rec := range result.Records {
				collector.Record(rec.ServerResponseTimeMS)
			}
			console.Stats(collector.Summary())
		}

		return runErr
	}

	err = runOnce()

	// If watch mode is not enabled, exit normally
	if !watchFlag {
		return err
	}
	if err != nil {
		// Watch mode keeps going after a failed run; the next save may fix it.
		console.Error(err)
	}

	// Watch mode: set up file watcher
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				console.Error(fmt.Errorf("failed to watch %s: %w", dir, err))
			}
			watchedDirs[dir] = true
		}
	}

	// Also watch the original args if they're directories
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write) && isVolleyFile(event.Name) {
				// Debounce: reset timer on each event
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n\n", event.Name)
					if err := runOnce(); err != nil {
						console.Error(err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			console.Error(fmt.Errorf("watcher error: %w", err))
		}
	}
}

func saveHistory(dbPath string, files []string, startedAt time.Time, result *runner.Result) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.NewRun(strings.Join(files, " "), startedAt, result)
	return store.SaveRun(run, result.Records)
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isVolleyFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			if isVolleyFile(arg) {
				files = append(files, arg)
			}
		}
	}

	return files, nil
}

// isVolleyFile reports whether path looks like a request file. Dotfiles are
// excluded so a .volley.yaml config sitting next to request files is never
// picked up by a directory scan.
func isVolleyFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}
