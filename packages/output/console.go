package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
	"github.com/abdul-hamid-achik/volley/packages/core/runner"
	"github.com/abdul-hamid-achik/volley/packages/metrics"
)

// Console writes the human-readable view of a run. It implements
// runner.Reporter so exchanges are printed the moment they finish, not when
// the run is over. Diagnostics (skips, errors) go to the error writer, run
// output to the standard one.
type Console struct {
	writer    io.Writer
	errWriter io.Writer
	verbose   bool
	quiet     bool
	noColor   bool
}

type ConsoleOption func(*Console)

func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.noColor {
		color.NoColor = true
	}
	return c
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.writer = w
	}
}

func WithErrWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.errWriter = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(c *Console) {
		c.verbose = v
	}
}

func WithQuiet(q bool) ConsoleOption {
	return func(c *Console) {
		c.quiet = q
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(c *Console) {
		c.noColor = nc
	}
}

func (c *Console) Header(version string) {
	if c.quiet {
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(c.writer, "%s %s\n", bold("volley"), version)
}

// RequestCompleted prints the one-line summary of a finished exchange.
func (c *Console) RequestCompleted(rec *runner.Record) {
	if c.quiet {
		return
	}

	statusColor := color.New(color.FgGreen).SprintFunc()
	if rec.Status >= 400 {
		statusColor = color.New(color.FgRed).SprintFunc()
	} else if rec.Status >= 300 {
		statusColor = color.New(color.FgYellow).SprintFunc()
	}

	fmt.Fprintf(c.writer, "Sent request to %s and got response: %s\n",
		rec.URL, statusColor(fmt.Sprintf("%d %s", rec.Status, rec.StatusText)))

	if c.verbose {
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Fprintf(c.writer, "  %s %s in %s\n", rec.Method, rec.URL, cyan(fmt.Sprintf("%dms", rec.ServerResponseTimeMS)))
		if rec.ResponseBody != "" {
			fmt.Fprintf(c.writer, "  body: %s\n", truncate(rec.ResponseBody, 200))
		}
	}
}

// RequestSkipped reports a request that never went out.
func (c *Console) RequestSkipped(req *parser.Request, reason error) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(c.errWriter, "%s %s %s: %v\n", yellow("skipped"), req.Method, req.URL(), reason)
}

// DryRunRequest prints what would be sent without sending it.
func (c *Console) DryRunRequest(req *parser.Request) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(c.writer, "%s %s %s\n", cyan("would send"), req.Method, req.URL())
}

func (c *Console) Error(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(c.errWriter, "%s %v\n", red("Error:"), err)
}

func (c *Console) ReportSaved(path string) {
	if c.quiet {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(c.writer, "%s %s\n", green("Report saved to"), path)
}

func (c *Console) Summary(result *runner.Result) {
	if c.quiet {
		return
	}

	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(c.writer, "\nRequests: %d sent", len(result.Records))
	if result.Skipped > 0 {
		fmt.Fprintf(c.writer, ", %s", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	fmt.Fprintf(c.writer, ", %d total\n", result.Total())
	fmt.Fprintf(c.writer, "Time:     %dms\n", result.Duration.Milliseconds())
}

func (c *Console) Stats(s metrics.Summary) {
	if c.quiet || s.Count == 0 {
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(c.writer, "\n%s\n", bold("Server response time"))
	fmt.Fprintf(c.writer, "  min %dms  max %dms  mean %dms\n",
		s.Min.Milliseconds(), s.Max.Milliseconds(), s.Mean.Milliseconds())
	fmt.Fprintf(c.writer, "  p50 %dms  p95 %dms  p99 %dms\n",
		s.P50.Milliseconds(), s.P95.Milliseconds(), s.P99.Milliseconds())
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
