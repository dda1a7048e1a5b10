// Package testutil provides helpers for driving the raw request listener in
// tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// Timeout bounds every Exchange.
const Timeout = 5 * time.Second

// Request renders a request line, a Host header and, when body is non-empty,
// a Content-Length header followed by the body.
func Request(method, path, body string) string {
	if body == "" {
		return fmt.Sprintf("%s %s HTTP/1.1\r\nHost: localhost\r\n\r\n", method, path)
	}
	return fmt.Sprintf("%s %s HTTP/1.1\r\nHost: localhost\r\nContent-Length: %d\r\n\r\n%s",
		method, path, len(body), body)
}

// UserJSON encodes a create/update body.
func UserJSON(name, email string) string {
	raw, _ := json.Marshal(map[string]string{"name": name, "email": email})
	return string(raw)
}

// Exchange writes raw to addr and returns everything the server sends back
// before closing the connection. It is safe to call from any goroutine.
func Exchange(addr, raw string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, Timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(Timeout)); err != nil {
		return "", err
	}
	if _, err := io.WriteString(conn, raw); err != nil {
		return "", err
	}
	resp, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(resp), nil
}
