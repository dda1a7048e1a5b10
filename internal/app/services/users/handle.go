package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/R3E-Network/user_service/internal/app/metrics"
	"github.com/R3E-Network/user_service/pkg/logger"
)

// ErrServiceLock is returned when an operation running under the handle
// panicked. The handle itself stays usable.
var ErrServiceLock = errors.New("service lock error")

// Handle is the single shared entry point to a Service. One mutex serializes
// every operation, so at most one store call is in flight at a time. Waits have
// no timeout.
type Handle struct {
	mu  sync.Mutex
	svc *Service
	log *logger.Logger
}

// NewHandle wraps svc for shared use.
func NewHandle(svc *Service, log *logger.Logger) *Handle {
	if log == nil {
		log = svc.log
	}
	return &Handle{svc: svc, log: log}
}

// With runs fn while holding the handle's lock.
func (h *Handle) With(ctx context.Context, fn func(ctx context.Context, svc *Service) error) (err error) {
	start := time.Now()
	h.mu.Lock()
	metrics.RecordLockWait(time.Since(start))
	defer h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			h.log.WithField("panic", r).Error("user operation panicked")
			err = fmt.Errorf("%w: %v", ErrServiceLock, r)
		}
	}()
	return fn(ctx, h.svc)
}
