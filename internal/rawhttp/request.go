package rawhttp

import (
	"bytes"
	"strings"
	"unicode"
)

var headerEnd = []byte("\r\n\r\n")

// Request is the structured view of one raw request.
type Request struct {
	Method string
	Path   string
	// ID is the third slash-delimited path segment, e.g. "42" in /users/42.
	// It is raw text; numeric parsing is left to the router.
	ID string
	// Body holds everything after the first CRLF CRLF. HasBody is false when
	// no separator was present.
	Body    []byte
	HasBody bool
}

// Parse extracts method, path, identifier and body from raw. It never fails:
// input without a recognizable request line yields empty Method and Path.
func Parse(raw []byte) Request {
	var req Request

	line := raw
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(string(line))
	if len(fields) > 0 {
		req.Method = fields[0]
	}
	if len(fields) > 1 {
		req.Path = fields[1]
	}
	req.ID = pathID(req.Path)

	if i := bytes.Index(raw, headerEnd); i >= 0 {
		req.Body = raw[i+len(headerEnd):]
		req.HasBody = true
	}
	return req
}

func pathID(path string) string {
	segments := strings.SplitN(path, "/", 4)
	if len(segments) < 3 {
		return ""
	}
	id := segments[2]
	if i := strings.IndexFunc(id, unicode.IsSpace); i >= 0 {
		id = id[:i]
	}
	return id
}
