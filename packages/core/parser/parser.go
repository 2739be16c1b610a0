package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Request is a single entry of a request file. Target, Port, Endpoint and
// Method are required; Headers and Data are optional and may be nil.
type Request struct {
	Target   string            `yaml:"target"`
	Port     uint16            `yaml:"port"`
	Endpoint string            `yaml:"endpoint"`
	Method   string            `yaml:"method"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Data     map[string]string `yaml:"data,omitempty"`
}

// URL composes the request URL from target, port and endpoint. The endpoint
// is appended verbatim, no escaping or normalization is applied.
func (r *Request) URL() string {
	return fmt.Sprintf("http://%s:%d%s", r.Target, r.Port, r.Endpoint)
}

// Header returns the value for the given header key, matched
// case-insensitively, or an empty string when the header is absent.
func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Validate checks that all required fields are present.
func (r *Request) Validate() error {
	if r.Target == "" {
		return errors.New(`missing required field "target"`)
	}
	if r.Port == 0 {
		return errors.New(`missing required field "port"`)
	}
	if r.Endpoint == "" {
		return errors.New(`missing required field "endpoint"`)
	}
	if r.Method == "" {
		return errors.New(`missing required field "method"`)
	}
	return nil
}

// File is a fully parsed request file.
type File struct {
	Path     string
	Requests []*Request
}

// ParseError describes a request file that could not be turned into a
// batch of requests. One bad entry fails the whole file.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile reads and parses the request file at path.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse parses a YAML request document. The filename is only used in error
// messages. An empty document yields an empty batch.
func Parse(data []byte, filename string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var requests []*Request
	if err := dec.Decode(&requests); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{Path: filename}, nil
		}
		return nil, &ParseError{File: filename, Err: err}
	}

	for i, req := range requests {
		if req == nil {
			return nil, &ParseError{File: filename, Err: fmt.Errorf("request %d: empty entry", i+1)}
		}
		if err := req.Validate(); err != nil {
			return nil, &ParseError{File: filename, Err: fmt.Errorf("request %d: %w", i+1, err)}
		}
	}

	return &File{Path: filename, Requests: requests}, nil
}
