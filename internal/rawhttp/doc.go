// Package rawhttp implements the small subset of HTTP/1.1 the service speaks:
// a request line, ignored headers, and an optional body after the first blank
// line. Parsing works on byte slices and is independent of socket I/O.
package rawhttp
