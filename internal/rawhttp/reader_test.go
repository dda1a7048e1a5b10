package rawhttp

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// stallingReader returns its data and then a deadline error, like a client
// that stopped sending without closing.
type stallingReader struct {
	r io.Reader
}

func (s *stallingReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, timeoutErr{}
	}
	return n, err
}

func TestReadRequestKeepsUndeclaredBodyFromSameRead(t *testing.T) {
	raw := "POST /users HTTP/1.1\r\n\r\n{\"name\":\"Ada\",\"email\":\"a@b\"}"
	got, err := ReadRequest(strings.NewReader(raw), 1024)
	require.NoError(t, err)
	assert.Equal(t, raw, string(got))
}

func TestReadRequestStopsAtHeadersWithoutBody(t *testing.T) {
	raw := "GET /users HTTP/1.1\r\nHost: x\r\n\r\n"
	got, err := ReadRequest(iotest.OneByteReader(strings.NewReader(raw+"ignored")), 1024)
	require.NoError(t, err)
	assert.Equal(t, raw, string(got))
}

func TestReadRequestWaitsForContentLength(t *testing.T) {
	body := `{"name":"Ada","email":"ada@example.com"}`
	raw := "POST /users HTTP/1.1\r\ncontent-length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
	got, err := ReadRequest(iotest.HalfReader(strings.NewReader(raw+"extra")), 1024)
	require.NoError(t, err)
	assert.Equal(t, raw, string(got))
}

func TestReadRequestReturnsPartialOnEOF(t *testing.T) {
	raw := "GET /users/1 HTTP/1.1\r\n"
	got, err := ReadRequest(strings.NewReader(raw), 1024)
	require.NoError(t, err)
	assert.Equal(t, raw, string(got))
}

func TestReadRequestReturnsPartialOnTimeout(t *testing.T) {
	raw := "GET /users/1 HTTP/1.1\r\n"
	got, err := ReadRequest(&stallingReader{r: strings.NewReader(raw)}, 1024)
	require.NoError(t, err)
	assert.Equal(t, raw, string(got))
}

func TestReadRequestEmpty(t *testing.T) {
	_, err := ReadRequest(strings.NewReader(""), 1024)
	assert.ErrorIs(t, err, io.EOF)

	_, err = ReadRequest(&stallingReader{r: strings.NewReader("")}, 1024)
	var te timeoutErr
	assert.ErrorAs(t, err, &te)
}

func TestReadRequestTooLarge(t *testing.T) {
	big := "POST /users HTTP/1.1\r\n\r\n" + strings.Repeat("x", 200)
	_, err := ReadRequest(strings.NewReader(big), 64)
	assert.ErrorIs(t, err, ErrTooLarge)

	noHeaderEnd := strings.Repeat("y", 200)
	_, err = ReadRequest(strings.NewReader(noHeaderEnd), 64)
	assert.ErrorIs(t, err, ErrTooLarge)

	declared := "POST /users HTTP/1.1\r\nContent-Length: 1000000\r\n\r\n{}"
	_, err = ReadRequest(strings.NewReader(declared), 1024)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestReadRequestIgnoresBadContentLength(t *testing.T) {
	raw := "POST /users HTTP/1.1\r\nContent-Length: lots\r\n\r\n"
	got, err := ReadRequest(strings.NewReader(raw+"{}"), 1024)
	require.NoError(t, err)
	assert.Equal(t, raw+"{}", string(got))
}
