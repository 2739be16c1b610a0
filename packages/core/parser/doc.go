// Package parser loads volley request files.
//
// A request file is a YAML document holding a list of request entries.
// Every entry names a target host, a port, an endpoint and an HTTP
// method, and may carry optional header and data maps:
//
//	- target: api.example.com
//	  port: 8080
//	  endpoint: /v1/login
//	  method: POST
//	  headers:
//	    Content-Type: application/json
//	  data:
//	    user: admin
//
// Parsing is strict: unknown fields, wrongly typed values and missing
// required fields all fail the whole document. A file either yields a
// complete batch of requests or a ParseError naming the file and the
// offending entry.
package parser
