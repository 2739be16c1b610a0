package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
	"github.com/abdul-hamid-achik/volley/packages/http"
)

// Config controls a run. The zero value is usable: no timeout, no pacing,
// no reporter.
type Config struct {
	// Timeout caps each exchange. Zero means wait forever.
	Timeout time.Duration
	// FollowRedirects makes the client chase 3xx responses.
	FollowRedirects bool
	// MaxRedirects bounds redirect chains when following is on.
	MaxRedirects int
	// DefaultHeaders are applied to every request unless the request
	// declares the same header itself.
	DefaultHeaders map[string]string
	// Rate paces dispatch in requests per second. Zero disables pacing.
	Rate float64
	// Reporter observes the run as it happens. May be nil.
	Reporter Reporter
}

// Reporter receives run events as they happen, one at a time, in dispatch
// order.
type Reporter interface {
	// RequestCompleted is called after each successful exchange, error
	// statuses included.
	RequestCompleted(rec *Record)
	// RequestSkipped is called for requests that could not be prepared,
	// e.g. an unsupported method. The run continues after a skip.
	RequestSkipped(req *parser.Request, reason error)
}

// Record is one completed exchange as it appears in the report.
type Record struct {
	Status               int    `json:"status"`
	StatusText           string `json:"status_text"`
	Method               string `json:"method"`
	URL                  string `json:"url"`
	ServerResponseTimeMS int64  `json:"server_response_time_ms"`
	ResponseBody         string `json:"response_body"`
}

// Result is the outcome of a run. Records holds one entry per completed
// exchange, in dispatch order; the slice is owned by the caller once Run
// returns.
type Result struct {
	Records  []*Record
	Skipped  int
	Duration time.Duration
}

// Total is the number of requests that produced a record plus those skipped.
func (r *Result) Total() int {
	return len(r.Records) + r.Skipped
}

type Runner struct {
	client   *http.Client
	limiter  *rate.Limiter
	reporter Reporter
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	clientOpts := []http.ClientOption{
		http.WithFollowRedirects(cfg.FollowRedirects),
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if len(cfg.DefaultHeaders) > 0 {
		clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.DefaultHeaders))
	}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	return &Runner{
		client:   http.NewClient(clientOpts...),
		limiter:  limiter,
		reporter: cfg.Reporter,
	}
}

// Run dispatches the requests strictly in order, one at a time; a request is
// only sent after the previous exchange finished. Requests that cannot be
// prepared are skipped and the run moves on. A transport failure stops the
// run: the error is returned together with the records collected so far, so
// a partial report stays available to the caller.
func (r *Runner) Run(ctx context.Context, requests []*parser.Request) (*Result, error) {
	start := time.Now()
	result := &Result{}

	for _, spec := range requests {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				result.Duration = time.Since(start)
				return result, err
			}
		}

		req, err := http.BuildRequest(spec)
		if err != nil {
			result.Skipped++
			if r.reporter != nil {
				r.reporter.RequestSkipped(spec, err)
			}
			continue
		}

		resp, err := r.client.Do(ctx, req)
		if err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("connecting to %s:%d: %w", spec.Target, spec.Port, err)
		}

		rec := &Record{
			Status:               resp.StatusCode,
			StatusText:           resp.Reason(),
			Method:               req.Method,
			URL:                  req.URL,
			ServerResponseTimeMS: resp.DurationMs(),
			ResponseBody:         resp.BodyText(),
		}
		result.Records = append(result.Records, rec)

		if r.reporter != nil {
			r.reporter.RequestCompleted(rec)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}
