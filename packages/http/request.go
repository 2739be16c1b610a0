package http

import (
	"encoding/json"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
)

var (
	// ErrUnsupportedMethod marks a request whose method the runner does not
	// dispatch. The request is skipped, not failed.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrMissingTextField marks a text/plain request whose data map has no
	// "txt" entry to use as the body.
	ErrMissingTextField = errors.New(`text/plain body requires a "txt" entry in data`)
)

// Request is a fully prepared HTTP exchange: final URL, verbatim headers and
// an already encoded body.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// BuildRequest turns a parsed request entry into a sendable Request.
//
// GET, HEAD and DELETE are sent without a body; any data map is ignored for
// them. POST, PUT and PATCH encode the data map according to the declared
// Content-Type. Every other method returns ErrUnsupportedMethod. Methods are
// matched exactly: "get" is not "GET".
func BuildRequest(spec *parser.Request) (*Request, error) {
	req := &Request{
		Method:  spec.Method,
		URL:     spec.URL(),
		Headers: spec.Headers,
	}

	switch spec.Method {
	case "GET", "HEAD", "DELETE":
		return req, nil
	case "POST", "PUT", "PATCH":
		body, err := encodeBody(spec)
		if err != nil {
			return nil, err
		}
		req.Body = body
		return req, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedMethod, spec.Method)
	}
}

// encodeBody renders the data map into a request body. The declared
// Content-Type picks the encoding; prefix matching keeps parameters such as
// "; charset=utf-8" from disabling it. Without a recognized Content-Type the
// data map is inert and the body stays empty.
func encodeBody(spec *parser.Request) (string, error) {
	if len(spec.Data) == 0 {
		return "", nil
	}

	contentType := spec.Header("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		form := neturl.Values{}
		for k, v := range spec.Data {
			form.Set(k, v)
		}
		return form.Encode(), nil

	case strings.HasPrefix(contentType, "application/json"):
		body, err := json.Marshal(spec.Data)
		if err != nil {
			return "", err
		}
		return string(body), nil

	case strings.HasPrefix(contentType, "text/plain"):
		txt, ok := spec.Data["txt"]
		if !ok {
			return "", ErrMissingTextField
		}
		return txt, nil

	default:
		return "", nil
	}
}
