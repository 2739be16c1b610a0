// Package record runs a recording reverse proxy. Traffic passing through it
// is captured as volley request specifications in arrival order, ready to
// replay with volley run.
package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
)

// Headers that describe the hop or the transport, not the request itself.
// They are recomputed on replay, so recording them would only mislead.
var dropHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
	"Accept-Encoding",
}

// Recorder is a reverse proxy that records the requests it forwards.
type Recorder struct {
	port       int
	target     *url.URL
	targetPort uint16
	logWriter  io.Writer
	exclude    []string
	redact     []string
	dedupe     bool

	mu       sync.Mutex
	requests []*parser.Request
	seen     map[string]bool
}

// Option is a functional option for Recorder.
type Option func(*Recorder)

// WithPort sets the port the proxy listens on.
func WithPort(port int) Option {
	return func(r *Recorder) {
		r.port = port
	}
}

// WithLogWriter sets the writer progress lines go to.
func WithLogWriter(w io.Writer) Option {
	return func(r *Recorder) {
		r.logWriter = w
	}
}

// WithExclude skips recording requests whose path contains any of the given
// fragments. They are still forwarded.
func WithExclude(paths []string) Option {
	return func(r *Recorder) {
		r.exclude = paths
	}
}

// WithRedact replaces the named header values with REDACTED in the recorded
// document. Defaults cover the common credential headers.
func WithRedact(headers []string) Option {
	return func(r *Recorder) {
		r.redact = headers
	}
}

// WithDedupe records each method+endpoint pair only once. Off by default:
// a replayed sequence usually wants every observed request, in order.
func WithDedupe(enabled bool) Option {
	return func(r *Recorder) {
		r.dedupe = enabled
	}
}

// NewRecorder creates a recorder forwarding to target, which must be a
// plain http URL since that is all a recorded document can replay against.
func NewRecorder(target string, opts ...Option) (*Recorder, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	switch u.Scheme {
	case "http":
	case "https":
		return nil, fmt.Errorf("%s: recorded documents replay over plain HTTP; point the recorder at the http endpoint", target)
	default:
		return nil, fmt.Errorf("%s: unsupported URL scheme %q", target, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("target URL %q has no host", target)
	}

	port := uint16(80)
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("target URL %q has invalid port %q", target, p)
		}
		port = uint16(n)
	}

	r := &Recorder{
		port:       8080,
		target:     u,
		targetPort: port,
		logWriter:  io.Discard,
		redact:     []string{"Authorization", "Cookie", "X-Api-Key", "Api-Key"},
		seen:       make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handler returns the proxy handler: capture first, then forward.
func (r *Recorder) Handler() http.Handler {
	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = r.target.Scheme
			req.URL.Host = r.target.Host
			req.Host = r.target.Host
		},
	}
	return r.capture(proxy)
}

// Run serves the proxy until ctx is canceled, then shuts down gracefully.
func (r *Recorder) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", r.port),
		Handler: r.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(r.logWriter, "Recording on http://localhost:%d, forwarding to %s\n", r.port, r.target)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Requests returns the requests recorded so far, in arrival order.
func (r *Recorder) Requests() []*parser.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*parser.Request, len(r.requests))
	copy(out, r.requests)
	return out
}

func (r *Recorder) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.excluded(req.URL.Path) {
			next.ServeHTTP(w, req)
			return
		}

		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		r.record(req, body)

		next.ServeHTTP(w, req)
	})
}

func (r *Recorder) record(req *http.Request, body []byte) {
	spec := &parser.Request{
		Target:   r.target.Hostname(),
		Port:     r.targetPort,
		Endpoint: req.URL.RequestURI(),
		Method:   req.Method,
		Headers:  r.copyHeaders(req.Header),
	}

	note := ""
	if len(body) > 0 && bodied(req.Method) {
		data, err := bodyData(headerValue(spec.Headers, "Content-Type"), string(body))
		if err != nil {
			note = fmt.Sprintf("body omitted: %v", err)
		} else {
			spec.Data = data
		}
	}
	if len(spec.Headers) == 0 {
		spec.Headers = nil
	}

	r.mu.Lock()
	if r.dedupe {
		key := spec.Method + " " + spec.Endpoint
		if r.seen[key] {
			r.mu.Unlock()
			return
		}
		r.seen[key] = true
	}
	r.requests = append(r.requests, spec)
	r.mu.Unlock()

	if note != "" {
		fmt.Fprintf(r.logWriter, "recorded %s %s (%s)\n", spec.Method, spec.Endpoint, note)
	} else {
		fmt.Fprintf(r.logWriter, "recorded %s %s\n", spec.Method, spec.Endpoint)
	}
}

func (r *Recorder) excluded(path string) bool {
	for _, fragment := range r.exclude {
		if strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}

func (r *Recorder) copyHeaders(h http.Header) map[string]string {
	result := make(map[string]string)
	for key, values := range h {
		if len(values) == 0 || dropped(key) {
			continue
		}
		if r.redacted(key) {
			result[key] = "REDACTED"
		} else {
			result[key] = values[0]
		}
	}
	return result
}

func (r *Recorder) redacted(key string) bool {
	for _, name := range r.redact {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

func dropped(key string) bool {
	for _, name := range dropHeaders {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

func bodied(method string) bool {
	return method == "POST" || method == "PUT" || method == "PATCH"
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// bodyData converts an observed request body into the data map for its
// Content-Type. Bodies with no volley form report why instead of guessing.
func bodyData(contentType, body string) (map[string]string, error) {
	switch {
	case contentType == "":
		return nil, fmt.Errorf("no Content-Type")

	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(body)
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		data := make(map[string]string, len(values))
		for key, vals := range values {
			data[key] = vals[0]
		}
		return data, nil

	case strings.HasPrefix(contentType, "application/json"):
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("body is not a JSON object")
		}
		data := make(map[string]string, len(obj))
		for key, value := range obj {
			switch v := value.(type) {
			case string:
				data[key] = v
			case json.Number:
				data[key] = v.String()
			case bool:
				data[key] = strconv.FormatBool(v)
			default:
				return nil, fmt.Errorf("nested JSON value for %q", key)
			}
		}
		return data, nil

	case strings.HasPrefix(contentType, "text/plain"):
		return map[string]string{"txt": body}, nil

	default:
		return nil, fmt.Errorf("Content-Type %q has no volley form", contentType)
	}
}
