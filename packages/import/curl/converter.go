// Package curl converts curl command lines into volley request
// specifications. Conversion is strict: a command whose URL or body cannot
// be expressed as a volley request fails instead of producing a document
// that silently sends something else.
package curl

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
)

// Parse converts a single curl command into a request specification. The
// leading "curl" token is optional.
func Parse(command string) (*parser.Request, error) {
	command = strings.TrimSpace(command)
	if after, ok := strings.CutPrefix(command, "curl "); ok {
		command = after
	} else if command == "curl" || command == "" {
		return nil, fmt.Errorf("no URL in curl command")
	}

	var (
		method    string
		rawURL    string
		body      string
		basicAuth string
		headers   = make(map[string]string)
	)

	tokens := tokenize(command)

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		switch {
		case token == "-X" || token == "--request":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			method = strings.ToUpper(tokens[i+1])
			i += 2

		case token == "-H" || token == "--header":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			key, value, ok := strings.Cut(tokens[i+1], ":")
			if ok {
				headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
			i += 2

		case token == "-d" || token == "--data" || token == "--data-raw" || token == "--data-binary":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			body = tokens[i+1]
			i += 2

		case token == "-u" || token == "--user":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			basicAuth = tokens[i+1]
			i += 2

		case token == "-A" || token == "--user-agent":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			headers["User-Agent"] = tokens[i+1]
			i += 2

		case token == "-e" || token == "--referer":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			headers["Referer"] = tokens[i+1]
			i += 2

		case token == "-b" || token == "--cookie":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			headers["Cookie"] = tokens[i+1]
			i += 2

		case token == "-k" || token == "--insecure" || token == "-L" || token == "--location" ||
			token == "-s" || token == "--silent" || token == "-v" || token == "--verbose" ||
			token == "--compressed":
			// No volley equivalent; harmless to drop.
			i++

		case strings.HasPrefix(token, "-"):
			// Unknown flag: skip its value too when the next token is
			// clearly not a flag or the URL.
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !looksLikeURL(tokens[i+1]) {
				i += 2
			} else {
				i++
			}

		default:
			if rawURL == "" && looksLikeURL(token) {
				rawURL = token
			}
			i++
		}
	}

	if rawURL == "" {
		return nil, fmt.Errorf("no URL in curl command")
	}

	req, err := fromURL(rawURL)
	if err != nil {
		return nil, err
	}
	req.Headers = headers

	if basicAuth != "" {
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(basicAuth))
	}

	if body != "" {
		// curl promotes a defaulted GET to POST when data is given; an
		// explicit bodyless verb with data has no volley form.
		switch method {
		case "":
			method = "POST"
		case "GET", "HEAD", "DELETE":
			return nil, fmt.Errorf("a %s request cannot carry a body", method)
		}
		data, err := bodyData(headers, body)
		if err != nil {
			return nil, err
		}
		req.Data = data
	}

	if method == "" {
		method = "GET"
	}
	req.Method = method

	if len(req.Headers) == 0 {
		req.Headers = nil
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseScript converts a shell script of curl invocations, one request per
// command. Blank lines and # comments are ignored; backslash line
// continuations are joined.
func ParseScript(r io.Reader) ([]*parser.Request, error) {
	var commands []string
	var current strings.Builder

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if rest, ok := strings.CutSuffix(line, "\\"); ok {
			current.WriteString(rest)
			current.WriteString(" ")
			continue
		}

		current.WriteString(line)
		commands = append(commands, current.String())
		current.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading curl script: %w", err)
	}
	if current.Len() > 0 {
		commands = append(commands, current.String())
	}

	var requests []*parser.Request
	for i, cmd := range commands {
		req, err := Parse(cmd)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// ParseFile converts a file of curl commands.
func ParseFile(path string) ([]*parser.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	requests, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return requests, nil
}

// fromURL splits a URL into the target/port/endpoint triple. Only plain
// http URLs can be expressed; everything volley sends goes over http.
func fromURL(rawURL string) (*parser.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http":
	case "https":
		return nil, fmt.Errorf("%s: https URLs cannot be converted, requests are sent over plain HTTP", rawURL)
	default:
		return nil, fmt.Errorf("%s: unsupported URL scheme %q", rawURL, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("%s: URL has no host", rawURL)
	}

	port := uint16(80)
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("%s: invalid port %q", rawURL, p)
		}
		port = uint16(n)
	}

	return &parser.Request{
		Target:   u.Hostname(),
		Port:     port,
		Endpoint: u.RequestURI(),
	}, nil
}

// bodyData turns a raw curl body into the data map for the command's
// Content-Type. Without one, curl sends form data, so the header is added.
func bodyData(headers map[string]string, body string) (map[string]string, error) {
	contentType := ""
	for k, v := range headers {
		if strings.EqualFold(k, "Content-Type") {
			contentType = v
			break
		}
	}
	if contentType == "" {
		contentType = "application/x-www-form-urlencoded"
		headers["Content-Type"] = contentType
	}

	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(body)
		if err != nil {
			return nil, fmt.Errorf("invalid form body %q: %w", body, err)
		}
		data := make(map[string]string, len(values))
		for key, vals := range values {
			data[key] = vals[0]
		}
		return data, nil

	case strings.HasPrefix(contentType, "application/json"):
		return jsonData(body)

	case strings.HasPrefix(contentType, "text/plain"):
		return map[string]string{"txt": body}, nil

	default:
		return nil, fmt.Errorf("request body with Content-Type %q cannot be represented (supported: application/x-www-form-urlencoded, application/json, text/plain)", contentType)
	}
}

// jsonData flattens a JSON object of scalars into a data map. Nested values
// have no volley form.
func jsonData(body string) (map[string]string, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("request body is not a JSON object: %w", err)
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
			return nil, fmt.Errorf("JSON body value for %q cannot be represented (only flat objects of scalars convert)", key)
		}
	}
	return data, nil
}

// tokenize splits a command into tokens, respecting quotes and backslash
// escapes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			escaped = true
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
