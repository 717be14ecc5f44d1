// Package relay accepts inbound connections and forwards their bytes to a
// fixed pool of worker endpoints, round-robin. No protocol parsing happens
// here; a relayed connection is two opaque byte pumps.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultDialTimeout bounds how long a dial to the chosen worker may take.
const DefaultDialTimeout = 5 * time.Second

// Relay distributes connections across an ordered worker pool with a single
// shared cursor: connection i goes to worker i mod len(workers). There is no
// health awareness; an unreachable worker just costs that one connection.
type Relay struct {
	workers     []string
	logger      *log.Logger
	dialTimeout time.Duration
	cursor      atomic.Uint64
	wg          sync.WaitGroup
}

// New creates a relay over the given worker endpoints.
func New(workers []string, logger *log.Logger) (*Relay, error) {
	if len(workers) == 0 {
		return nil, errors.New("relay: worker pool is empty")
	}
	return &Relay{
		workers:     append([]string(nil), workers...),
		logger:      logger.WithPrefix("relay"),
		dialTimeout: DefaultDialTimeout,
	}, nil
}

// Serve accepts connections from ln until ctx is cancelled or the listener
// fails, then waits for in-flight connections to drain.
func (r *Relay) Serve(ctx context.Context, ln net.Listener) error {
	r.logger.Info("relay listening", "addr", ln.Addr().String(), "workers", len(r.workers))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				acceptErr = fmt.Errorf("accept: %w", err)
			}
			break
		}

		worker := r.nextWorker()
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.relay(conn, worker)
		}()
	}

	// In-flight connections drain on every exit path, not just shutdown.
	r.wg.Wait()
	return acceptErr
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (r *Relay) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return r.Serve(ctx, ln)
}

// nextWorker advances the shared cursor and returns the chosen endpoint.
func (r *Relay) nextWorker() string {
	i := r.cursor.Add(1) - 1
	return r.workers[i%uint64(len(r.workers))]
}

// relay pumps bytes between client and the chosen worker until either side
// ends the stream. A dial failure closes the client connection; no other
// worker is tried.
func (r *Relay) relay(client net.Conn, worker string) {
	connID := uuid.NewString()
	logger := r.logger.With("conn", connID[:8], "worker", worker)

	upstream, err := net.DialTimeout("tcp", worker, r.dialTimeout)
	if err != nil {
		logger.Error("worker unreachable", "error", err)
		_ = client.Close()
		return
	}
	logger.Debug("forwarding connection", "client", client.RemoteAddr().String())

	// Two directional pumps share one cancellation signal: the first pump
	// to observe end-of-stream or an error cancels the group context, the
	// watcher closes both sockets to unblock the peer pump, and we wait
	// for both pumps before returning.
	g, ctx := errgroup.WithContext(context.Background())

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			_ = client.Close()
			_ = upstream.Close()
		})
	}
	go func() {
		<-ctx.Done()
		shutdown()
	}()

	g.Go(func() error { return pump(upstream, client) })
	g.Go(func() error { return pump(client, upstream) })

	if err := g.Wait(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		logger.Debug("connection ended", "error", err)
	}
	shutdown()
}

// pump copies src to dst until the stream ends. A clean EOF is reported as
// io.EOF so the group context is cancelled either way.
func pump(dst io.Writer, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return io.EOF
}
