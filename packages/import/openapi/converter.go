// Package openapi converts OpenAPI 3 documents into volley request
// specifications, one request per dispatchable operation. Example values are
// taken from the document where present and synthesized from types
// otherwise, so the generated file is runnable as-is.
package openapi

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
)

// Converter turns OpenAPI documents into request lists.
type Converter struct {
	baseURL string
	tags    []string
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithBaseURL overrides the document's server URL. Required when the
// document declares none, declares a templated one, or only serves https.
func WithBaseURL(raw string) Option {
	return func(c *Converter) {
		c.baseURL = raw
	}
}

// WithTags keeps only operations carrying at least one of the given tags.
func WithTags(tags []string) Option {
	return func(c *Converter) {
		c.tags = tags
	}
}

// NewConverter creates a new OpenAPI converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertFile loads an OpenAPI document (YAML or JSON) and converts it.
func (c *Converter) ConvertFile(path string) ([]*parser.Request, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading OpenAPI document: %w", err)
	}
	return c.Convert(doc)
}

// Convert walks the document's paths in sorted order and emits one request
// per operation volley can dispatch. OPTIONS and TRACE operations are
// dropped: they would only be skipped at run time.
func (c *Converter) Convert(doc *openapi3.T) ([]*parser.Request, error) {
	target, port, basePath, err := c.resolveBase(doc)
	if err != nil {
		return nil, err
	}

	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for path := range pathMap {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var requests []*parser.Request
	for _, path := range paths {
		item := pathMap[path]
		if item == nil {
			continue
		}

		operations := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", item.Get},
			{"HEAD", item.Head},
			{"DELETE", item.Delete},
			{"POST", item.Post},
			{"PUT", item.Put},
			{"PATCH", item.Patch},
		}

		for _, entry := range operations {
			if entry.op == nil || !c.includes(entry.op) {
				continue
			}
			requests = append(requests, convertOperation(target, port, basePath, path, entry.method, entry.op, item.Parameters))
		}
	}

	return requests, nil
}

// resolveBase picks the base URL (override first, then the document's first
// server) and splits it into target, port, and path prefix.
func (c *Converter) resolveBase(doc *openapi3.T) (string, uint16, string, error) {
	raw := c.baseURL
	if raw == "" && len(doc.Servers) > 0 {
		raw = doc.Servers[0].URL
	}
	if raw == "" {
		return "", 0, "", fmt.Errorf("document declares no servers; pass an explicit base URL")
	}
	if strings.Contains(raw, "{") {
		return "", 0, "", fmt.Errorf("server URL %q uses variables; pass an explicit base URL", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}

	switch u.Scheme {
	case "http":
	case "https":
		return "", 0, "", fmt.Errorf("%s: requests are sent over plain HTTP; pass the http base URL to convert against", raw)
	default:
		return "", 0, "", fmt.Errorf("%s: unsupported URL scheme %q", raw, u.Scheme)
	}

	if u.Hostname() == "" {
		return "", 0, "", fmt.Errorf("base URL %q has no host", raw)
	}

	port := uint16(80)
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return "", 0, "", fmt.Errorf("base URL %q has invalid port %q", raw, p)
		}
		port = uint16(n)
	}

	return u.Hostname(), port, strings.TrimSuffix(u.Path, "/"), nil
}

func (c *Converter) includes(op *openapi3.Operation) bool {
	if len(c.tags) == 0 {
		return true
	}
	for _, tag := range op.Tags {
		for _, want := range c.tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

func convertOperation(target string, port uint16, basePath, path, method string, op *openapi3.Operation, pathParams openapi3.Parameters) *parser.Request {
	params := make(openapi3.Parameters, 0, len(pathParams)+len(op.Parameters))
	params = append(params, pathParams...)
	params = append(params, op.Parameters...)

	endpoint := basePath + fillPathParams(path, params)

	// Required query parameters go into the endpoint verbatim; the run
	// composes URLs literally and never re-encodes them.
	var query []string
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		param := ref.Value
		if param.In == openapi3.ParameterInQuery && param.Required {
			query = append(query, param.Name+"="+paramExample(param))
		}
	}
	if len(query) > 0 {
		endpoint += "?" + strings.Join(query, "&")
	}

	headers := make(map[string]string)
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		param := ref.Value
		if param.In == openapi3.ParameterInHeader && param.Required {
			headers[param.Name] = paramExample(param)
		}
	}

	var data map[string]string
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		contentType, schema := pickMedia(op.RequestBody.Value.Content)
		if contentType != "" {
			headers["Content-Type"] = contentType
			data = dataFromSchema(schema)
		}
	}

	if len(headers) == 0 {
		headers = nil
	}

	return &parser.Request{
		Target:   target,
		Port:     port,
		Endpoint: endpoint,
		Method:   method,
		Headers:  headers,
		Data:     data,
	}
}

// fillPathParams replaces {name} segments with example values.
func fillPathParams(path string, params openapi3.Parameters) string {
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		param := ref.Value
		if param.In == openapi3.ParameterInPath {
			path = strings.ReplaceAll(path, "{"+param.Name+"}", paramExample(param))
		}
	}
	return path
}

// pickMedia chooses the request body representation volley can encode:
// JSON first, then form data. Media types are scanned in sorted order so
// conversion is deterministic.
func pickMedia(content openapi3.Content) (string, *openapi3.Schema) {
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Strings(types)

	for _, ct := range types {
		if strings.Contains(ct, "json") {
			return "application/json", schemaOf(content[ct])
		}
	}
	for _, ct := range types {
		if strings.Contains(ct, "form") {
			return "application/x-www-form-urlencoded", schemaOf(content[ct])
		}
	}
	return "", nil
}

func schemaOf(mt *openapi3.MediaType) *openapi3.Schema {
	if mt == nil || mt.Schema == nil {
		return nil
	}
	return mt.Schema.Value
}

// dataFromSchema flattens the schema's scalar top-level properties into a
// data map. Nested objects and arrays have no volley form and are dropped.
func dataFromSchema(schema *openapi3.Schema) map[string]string {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make(map[string]string)
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		if isScalar(prop) {
			data[name] = exampleForSchema(prop)
		}
	}

	if len(data) == 0 {
		return nil
	}
	return data
}

func isScalar(schema *openapi3.Schema) bool {
	if schema.Type == nil {
		return schema.Example != nil
	}
	for _, t := range schema.Type.Slice() {
		if t == "object" || t == "array" {
			return false
		}
	}
	return true
}

func paramExample(param *openapi3.Parameter) string {
	if param.Example != nil {
		return fmt.Sprintf("%v", param.Example)
	}
	if param.Schema != nil && param.Schema.Value != nil {
		return exampleForSchema(param.Schema.Value)
	}
	return "example"
}

// exampleForSchema synthesizes a stable example value from a schema: its
// own example, the first enum entry, or a constant per type and format.
func exampleForSchema(schema *openapi3.Schema) string {
	if schema.Example != nil {
		return fmt.Sprintf("%v", schema.Example)
	}
	if len(schema.Enum) > 0 {
		return fmt.Sprintf("%v", schema.Enum[0])
	}

	if schema.Type == nil || len(schema.Type.Slice()) == 0 {
		return "example"
	}

	switch schema.Type.Slice()[0] {
	case "integer":
		return "1"
	case "number":
		return "1.0"
	case "boolean":
		return "true"
	case "string":
		switch schema.Format {
		case "date":
			return "2024-01-01"
		case "date-time":
			return "2024-01-01T00:00:00Z"
		case "email":
			return "user@example.com"
		case "uuid":
			return "00000000-0000-0000-0000-000000000000"
		}
		return "example"
	}
	return "example"
}
