// Package server accepts TCP connections and answers one raw request per
// connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/R3E-Network/user_service/internal/app/metrics"
	"github.com/R3E-Network/user_service/internal/rawhttp"
	"github.com/R3E-Network/user_service/pkg/logger"
)

// ErrServerClosed is returned by Listen after Shutdown.
var ErrServerClosed = errors.New("server closed")

// Dispatcher turns a parsed request into a response.
type Dispatcher interface {
	Dispatch(ctx context.Context, req rawhttp.Request) rawhttp.Response
}

// Config controls the listener.
type Config struct {
	Addr            string
	MaxRequestBytes int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	// MaxConnections bounds connections served at once; 0 means unbounded.
	MaxConnections int64
	// AcceptRate limits accepted connections per second; 0 disables it.
	AcceptRate  float64
	AcceptBurst int
}

const defaultMaxRequestBytes = 64 << 10

// Server is the connection listener.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	log        *logger.Logger
	limiter    *rate.Limiter
	sem        *semaphore.Weighted

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	conns  sync.WaitGroup
}

// New creates a server; call Listen (or Serve directly) to bind it.
func New(cfg Config, dispatcher Dispatcher, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("server")
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = defaultMaxRequestBytes
	}
	s := &Server{cfg: cfg, dispatcher: dispatcher, log: log}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	if cfg.MaxConnections > 0 {
		s.sem = semaphore.NewWeighted(cfg.MaxConnections)
	}
	return s
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve binds the configured address if needed and accepts connections until
// Shutdown is called or ctx is cancelled, returning nil in both cases.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	return s.ServeListener(ctx, ln)
}

// ServeListener accepts connections on ln. Each connection is served on its
// own goroutine; accept errors are logged and retried with backoff, so only
// closing the listener ends the loop.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	case s.ln != nil && s.ln != ln:
		s.mu.Unlock()
		return errors.New("server already has a listener")
	}
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.close() })
	defer stop()

	s.log.WithField("addr", ln.Addr().String()).Info("server listening")

	// in-flight requests finish even when ctx is cancelled
	connCtx := context.WithoutCancel(ctx)

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			backoff = nextBackoff(backoff)
			s.log.WithError(err).WithField("retry_in", backoff).Warn("accept failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				conn.Close()
				return nil
			}
		}
		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				conn.Close()
				return nil
			}
		}
		if !s.track() {
			s.release()
			conn.Close()
			return nil
		}
		go s.serveConn(connCtx, conn)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}

// track registers a connection unless the server is shutting down.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer s.conns.Done()
	defer s.release()
	defer conn.Close()
	defer metrics.ConnectionOpened()()

	entry := s.log.WithFields(logrus.Fields{
		"conn_id": uuid.NewString(),
		"remote":  conn.RemoteAddr().String(),
	})

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	raw, err := rawhttp.ReadRequest(conn, s.cfg.MaxRequestBytes)

	result := metrics.ConnServed
	var resp rawhttp.Response
	switch {
	case errors.Is(err, rawhttp.ErrTooLarge):
		entry.WithField("limit", s.cfg.MaxRequestBytes).Warn("request too large")
		resp = rawhttp.Response{Status: rawhttp.StatusPayloadTooLarge, Body: "Request too large"}
		result = metrics.ConnTooLarge
	case errors.Is(err, io.EOF):
		// closed before sending anything: answered as an unmatched request
		resp = s.dispatcher.Dispatch(ctx, rawhttp.Parse(nil))
	case err != nil:
		entry.WithError(err).Warn("unable to read request")
		metrics.RecordConnection(metrics.ConnReadErr)
		return
	default:
		resp = s.dispatcher.Dispatch(ctx, rawhttp.Parse(raw))
	}

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := resp.WriteTo(conn); err != nil {
		entry.WithError(err).Warn("failed to write response")
		metrics.RecordConnection(metrics.ConnWriteErr)
		return
	}
	entry.WithField("status", resp.Status.Code()).Debug("request served")
	metrics.RecordConnection(result)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight ones to
// finish or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.close()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
