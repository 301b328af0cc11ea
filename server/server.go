package server

import (
	"context"
	"net"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/quickft/quickft/config"
	"github.com/quickft/quickft/fsutil"
	"github.com/quickft/quickft/logging"
	"github.com/quickft/quickft/metrics"
	"github.com/quickft/quickft/socket"
)

// Server is an explicit value encapsulating everything the original
// implementation kept as a global singleton and a global abort flag: the
// listener, the admission-control semaphore, and the in-flight worker
// bookkeeping, matching the Listen/Serve split this codebase already uses
// for its other long-running listener (see eventsocket.Server).
type Server struct {
	cfg     config.Config
	fs      fsutil.FS
	log     logging.Logger
	handler *handler

	listener *socket.Listener
	sem      *semaphore.Weighted
	workers  sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Server against cfg, serving files rooted at cfg.Root on
// the real filesystem. NewWithFS takes an explicit filesystem for the
// existence, copy, remove, and mkdir steps; the gzip and base64 steps of
// SEND and RECEIVE always use the real filesystem.
func New(cfg config.Config, log logging.Logger) *Server {
	return NewWithFS(cfg, fsutil.NewOS(), log)
}

// NewWithFS constructs a Server against an explicit filesystem, for tests.
func NewWithFS(cfg config.Config, fs fsutil.FS, log logging.Logger) *Server {
	return &Server{
		cfg:     cfg,
		fs:      fs,
		log:     log,
		handler: newHandler(cfg, fs, log),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConnections)),
	}
}

// Start binds the listening socket and prepares the cancellation context
// Stop will use to unblock the accept loop. It returns quickly; call Serve
// (typically in its own goroutine) to begin accepting connections.
func (s *Server) Start(ctx context.Context) error {
	l, err := socket.Listen(s.cfg.Port)
	if err != nil {
		return err
	}
	s.listener = l
	s.ctx, s.cancel = context.WithCancel(ctx)
	return nil
}

// Serve runs the accept loop until the context passed to Start is canceled
// or Stop is called. Every accepted connection is admitted against the
// MaxConnections semaphore before a worker goroutine is spawned for it; a
// connection that arrives while the semaphore is saturated is rejected
// immediately rather than queued, matching the protocol's fixed
// admission-control ceiling.
func (s *Server) Serve() error {
	go func() {
		<-s.ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				s.workers.Wait()
				return nil
			}
			s.log.Warnf("Server.Serve", "accept: %v", err)
			continue
		}
		metrics.ConnectionsAcceptedTotal.Inc()

		if !s.sem.TryAcquire(1) {
			metrics.ConnectionsRejectedTotal.Inc()
			s.log.Warnf("Server.Serve", "rejecting connection: %d concurrent workers already active", s.cfg.MaxConnections)
			conn.Close()
			continue
		}

		s.workers.Add(1)
		metrics.WorkersActive.Inc()
		go func() {
			defer s.workers.Done()
			defer s.sem.Release(1)
			defer metrics.WorkersActive.Dec()
			s.handler.Handle(conn)
		}()
	}
}

// Addr returns the listener's bound address. It is only valid after Start
// has succeeded; it exists chiefly so tests can bind port 0 and discover
// the actual port the kernel assigned.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Stop signals the accept loop to exit, which closes the listener and
// unblocks the pending Accept, and waits for every in-flight worker to
// finish its current request.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	} else if s.listener != nil {
		s.listener.Close()
	}
	s.workers.Wait()
}
