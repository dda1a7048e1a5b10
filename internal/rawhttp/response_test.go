package rawhttp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBytes(t *testing.T) {
	tests := []struct {
		resp Response
		want string
	}{
		{Response{StatusOK, "User Created"}, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\nUser Created"},
		{Response{StatusNotFound, "404 not found"}, "HTTP/1.1 404 NOT FOUND\r\n\r\n404 not found"},
		{Response{StatusBadRequest, "Invalid user ID"}, "HTTP/1.1 400 BAD REQUEST\r\n\r\nInvalid user ID"},
		{Response{StatusInternalError, "Service error"}, "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\nService error"},
		{Response{StatusPayloadTooLarge, "Request too large"}, "HTTP/1.1 413 PAYLOAD TOO LARGE\r\n\r\nRequest too large"},
		{Response{Status(999), "x"}, "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\nx"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(tt.resp.Bytes()))
	}
}

func TestResponseWriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := Response{StatusOK, "[]"}.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n[]", buf.String())
}
