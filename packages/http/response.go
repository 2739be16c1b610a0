package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Response captures one completed HTTP exchange. Status is the raw status
// line text as sent by the server, e.g. "200 OK".
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// Reason returns the status line's reason phrase, e.g. "OK" or "Not Found".
// When the server sent no phrase (HTTP/2 dropped them) the canonical one for
// the status code is used.
func (r *Response) Reason() string {
	reason := strings.TrimSpace(strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode)))
	if reason == "" {
		return http.StatusText(r.StatusCode)
	}
	return reason
}

// BodyText returns the body as a string, or an empty string when the body is
// not valid UTF-8. Binary payloads are recorded as empty rather than mangled.
func (r *Response) BodyText() string {
	if !utf8.Valid(r.Body) {
		return ""
	}
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
