package rawhttp

import (
	"io"
	"strconv"
)

// Status is the response classifier written on the status line.
type Status int

const (
	StatusOK              Status = 200
	StatusBadRequest      Status = 400
	StatusNotFound        Status = 404
	StatusPayloadTooLarge Status = 413
	StatusInternalError   Status = 500
)

// Reason returns the literal reason phrase used on the wire.
func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "BAD REQUEST"
	case StatusNotFound:
		return "NOT FOUND"
	case StatusPayloadTooLarge:
		return "PAYLOAD TOO LARGE"
	default:
		return "INTERNAL SERVER ERROR"
	}
}

// Code returns the numeric status code.
func (s Status) Code() int {
	switch s {
	case StatusOK, StatusBadRequest, StatusNotFound, StatusPayloadTooLarge:
		return int(s)
	}
	return int(StatusInternalError)
}

// Head renders the status line and headers, terminated by the blank line.
// Only successful responses carry a content type.
func (s Status) Head() string {
	head := "HTTP/1.1 " + strconv.Itoa(s.Code()) + " " + s.Reason() + "\r\n"
	if s == StatusOK {
		head += "Content-Type: application/json\r\n"
	}
	return head + "\r\n"
}

// Response is a status plus a JSON or short plain-text body.
type Response struct {
	Status Status
	Body   string
}

// Bytes renders the full response as written to the socket.
func (r Response) Bytes() []byte {
	return []byte(r.Status.Head() + r.Body)
}

// WriteTo writes the full response to w.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}
