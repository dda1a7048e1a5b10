package rawhttp

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
)

// ErrTooLarge is returned by ReadRequest when a request does not fit in the
// configured limit.
var ErrTooLarge = errors.New("request exceeds maximum size")

const readChunk = 4096

// ReadRequest reads one request from r. It stops once the header block is in
// (plus the body when Content-Length is declared; otherwise whatever arrived
// with the headers), at EOF, or when a read deadline expires after some bytes
// arrived. Requests longer than limit are rejected with ErrTooLarge
// instead of being truncated.
func ReadRequest(r io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, 0, min(limit, readChunk))
	chunk := make([]byte, readChunk)

	for {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)

		if len(buf) > limit {
			return nil, ErrTooLarge
		}
		if head, body, declared, ok := frameLength(buf); ok {
			if !declared {
				return buf, nil
			}
			if body > limit || head+body > limit {
				return nil, ErrTooLarge
			}
			if len(buf) >= head+body {
				return buf[:head+body], nil
			}
		}

		if err != nil {
			if len(buf) > 0 && (errors.Is(err, io.EOF) || isTimeout(err)) {
				return buf, nil
			}
			return nil, err
		}
	}
}

// frameLength reports the header block length and the declared body length
// once the header block is complete.
func frameLength(buf []byte) (head, body int, declared, ok bool) {
	end := bytes.Index(buf, headerEnd)
	if end < 0 {
		return 0, 0, false, false
	}
	body, declared = contentLength(buf[:end])
	return end + len(headerEnd), body, declared, true
}

func contentLength(head []byte) (int, bool) {
	for _, line := range strings.Split(string(head), "\r\n")[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
