package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(requests.WithLabelValues("read_one", "404"))
	RecordRequest("read_one", 404, 3*time.Millisecond)
	after := testutil.ToFloat64(requests.WithLabelValues("read_one", "404"))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(requests.WithLabelValues("unknown", "302"))
	RecordRequest("", 302, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(requests.WithLabelValues("unknown", "302")))
}

func TestConnectionOpened(t *testing.T) {
	base := testutil.ToFloat64(inflightConnections)
	done := ConnectionOpened()
	assert.Equal(t, base+1, testutil.ToFloat64(inflightConnections))
	done()
	assert.Equal(t, base, testutil.ToFloat64(inflightConnections))

	before := testutil.ToFloat64(connections.WithLabelValues(ConnServed))
	RecordConnection(ConnServed)
	assert.Equal(t, before+1, testutil.ToFloat64(connections.WithLabelValues(ConnServed)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordLockWait(time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "user_service_users_handle_lock_wait_seconds"))
}
