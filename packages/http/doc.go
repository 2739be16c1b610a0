// Package http prepares and sends the HTTP exchanges described by a request
// file.
//
// BuildRequest handles verb dispatch and body encoding: bodyless verbs (GET,
// HEAD, DELETE) drop the data map, bodied verbs (POST, PUT, PATCH) encode it
// according to the declared Content-Type (form-urlencoded, JSON or plain
// text), and anything else is rejected as unsupported.
//
// Client wraps net/http with per-run defaults and measures server response
// time: the clock runs from dispatch until status and headers arrive, never
// over the body read.
package http
