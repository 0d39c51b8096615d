// Package pending correlates fire-and-forget watch requests with the
// notifications that answer them.
package pending

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
)

// DefaultTimeout bounds how long a request waits for its notification
const DefaultTimeout = 10 * time.Second

// ErrKeyPending is returned by Register when the key already has a live
// waiter. Callers issue requests strictly one after another, so this is a
// caller bug, not a condition to queue behind.
var ErrKeyPending = errors.New("pending: request already registered for key")

// Result is the terminal value of a request. A timed out request has a nil
// Value, which callers treat as "unsupported or no response".
type Result struct {
	Value    interface{}
	TimedOut bool
}

// Empty reports whether no value arrived
func (r Result) Empty() bool {
	return r.Value == nil
}

// Request is a single-shot slot for one outstanding key
type Request struct {
	Key    casio.Key
	SentAt time.Time

	resultC  chan Result
	timer    *time.Timer
	registry *Registry
}

// Stats counts how requests ended
type Stats struct {
	Fulfilled int
	TimedOut  int
	Cancelled int
	Dropped   int // notifications with no waiter
}

// Registry maps correlation keys to waiting requests. One registry serves
// one connection and is discarded with it.
type Registry struct {
	mu             sync.Mutex
	pending        map[casio.Key]*Request
	defaultTimeout time.Duration
	stats          Stats
}

// NewRegistry creates a registry. A zero timeout uses DefaultTimeout.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{
		pending:        make(map[casio.Key]*Request),
		defaultTimeout: timeout,
	}
}

// Register creates the waiter for key. The timeout starts now; a zero
// timeout uses the registry default.
func (r *Registry) Register(key casio.Key, timeout time.Duration) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pending[key]; ok {
		return nil, fmt.Errorf("%w %s (waiting %v)", ErrKeyPending, key, time.Since(existing.SentAt).Round(time.Millisecond))
	}
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	req := &Request{
		Key:      key,
		SentAt:   time.Now(),
		resultC:  make(chan Result, 1),
		registry: r,
	}
	req.timer = time.AfterFunc(timeout, func() { r.expire(req) })
	r.pending[key] = req

	logger.Trace("registry", "registered %s (timeout %v)", key, timeout)
	return req, nil
}

func (r *Registry) expire(req *Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending[req.Key] != req {
		return
	}
	delete(r.pending, req.Key)
	r.stats.TimedOut++
	req.resultC <- Result{TimedOut: true}

	logger.Debug("registry", "request %s timed out after %v", req.Key, time.Since(req.SentAt).Round(time.Millisecond))
}

// Fulfil delivers value to the waiter for key. It never blocks. A key with
// no waiter is logged and dropped; the return value reports delivery.
func (r *Registry) Fulfil(key casio.Key, value interface{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.pending[key]
	if !ok {
		r.stats.Dropped++
		logger.Debug("registry", "no waiter for %s, dropping response", key)
		return false
	}
	delete(r.pending, key)
	req.timer.Stop()
	r.stats.Fulfilled++
	req.resultC <- Result{Value: value}

	logger.Trace("registry", "fulfilled %s after %v", key, time.Since(req.SentAt).Round(time.Millisecond))
	return true
}

// Cancel removes the waiter for key, resolving it empty
func (r *Registry) Cancel(key casio.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.pending[key]
	if !ok {
		return false
	}
	r.cancelLocked(req)
	return true
}

// CancelAll resolves every waiter empty (used when the link drops)
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, req := range r.pending {
		r.cancelLocked(req)
	}
}

func (r *Registry) cancelLocked(req *Request) {
	delete(r.pending, req.Key)
	req.timer.Stop()
	r.stats.Cancelled++
	req.resultC <- Result{}
}

// Has reports whether key has a live waiter
func (r *Registry) Has(key casio.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[key]
	return ok
}

// Len returns the number of live waiters
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Keys returns the live keys in sorted order (for debugging)
func (r *Registry) Keys() []casio.Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]casio.Key, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Stats returns a snapshot of the outcome counters
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Await blocks the caller until the request is fulfilled, times out or is
// cancelled. Only cancellation of ctx produces an error; in that case the
// key is released so the registry does not leak it.
func (req *Request) Await(ctx context.Context) (Result, error) {
	r := req.registry
	select {
	case res := <-req.resultC:
		return res, nil
	case <-ctx.Done():
		r.mu.Lock()
		if r.pending[req.Key] == req {
			delete(r.pending, req.Key)
			req.timer.Stop()
			r.stats.Cancelled++
		}
		r.mu.Unlock()
		return Result{}, ctx.Err()
	}
}
