// Package optimistic implements the per-session view cache and the
// optimistic mutation protocol over it. Each cache key holds one cached view
// (a comment list, a library list). A mutation runs as an explicit state
// machine: Idle -> Optimistic at the moment the pre-mutation snapshot is
// taken and the locally-computed projection is applied, then Committed (the
// key is invalidated so the next read refetches authoritative data) or
// RolledBack (the snapshot is restored by value and the error surfaces to
// the caller).
//
// Mutations against the same key are serialized: the snapshot for mutation
// N+1 is taken only after mutation N has committed or rolled back. Mutations
// against different keys proceed concurrently. Readers are never blocked by
// an in-flight commit; they observe the snapshot, the optimistic projection,
// or nothing (post-invalidation), never a partial mix.
package optimistic

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the lifecycle position of a mutation.
type State int

const (
	StateIdle State = iota
	StateOptimistic
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateOptimistic:
		return "optimistic"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// ErrClosed is returned by Execute on a store whose session has ended.
var ErrClosed = errors.New("optimistic: store is closed")

// RetryPolicy bounds the retries of a failing commit. Retryable decides
// whether an error is worth another attempt; nil retries everything.
// Terminal errors (validation, ownership, not-found) should report false.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	Retryable func(error) bool
}

// DefaultRetryPolicy retries transient failures up to 3 attempts total with
// exponential backoff starting at 100ms.
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		Retryable: retryable,
	}
}

// Store is a keyed, session-local cache of views of type T, mutated only
// through Execute. A nil apply func turns Execute into a plain write-through
// (no optimistic projection, still serialized and invalidating).
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	closed  bool
	retry   RetryPolicy
}

type entry[T any] struct {
	flight sync.Mutex // serializes mutations on this key

	mu       sync.Mutex // guards the fields below
	value    T
	valid    bool
	inFlight bool
}

// NewStore creates a session cache with the given retry policy.
func NewStore[T any](retry RetryPolicy) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		retry:   retry,
	}
}

// Get returns the cached view for key. ok is false when the key has never
// been seeded, has been invalidated, or the store is closed — the caller
// should refetch and Seed.
func (s *Store[T]) Get(key string) (T, bool) {
	var zero T

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return zero, false
	}
	e := s.entries[key]
	s.mu.Unlock()

	if e == nil {
		return zero, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.valid {
		return zero, false
	}
	return e.value, true
}

// Seed stores a freshly fetched authoritative view for key. Seeding during
// an in-flight mutation is last-write-wins; the mutation's outcome
// (invalidate or rollback) is applied on top.
func (s *Store[T]) Seed(key string, value T) {
	e := s.entryFor(key)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.value = value
	e.valid = true
	e.mu.Unlock()
}

// Invalidate drops the cached view for key so the next read refetches.
func (s *Store[T]) Invalidate(key string) {
	s.mu.Lock()
	e := s.entries[key]
	s.mu.Unlock()
	if e == nil {
		return
	}
	e.mu.Lock()
	var zero T
	e.value = zero
	e.valid = false
	e.mu.Unlock()
}

// InFlight reports whether a mutation for key is between its optimistic
// apply and its outcome. Callers use it to disable duplicate submits.
func (s *Store[T]) InFlight(key string) bool {
	s.mu.Lock()
	e := s.entries[key]
	s.mu.Unlock()
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// Close ends the session. In-flight mutations finish their commit calls but
// apply neither rollback nor invalidation — the state they would act on no
// longer exists. Subsequent Execute calls fail with ErrClosed.
func (s *Store[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Execute runs one mutation against key:
//
//  1. take the per-key turn (serializing with other mutations on key),
//  2. snapshot the cached view and apply the optimistic projection,
//  3. run commit (the real store call) with bounded backoff retries,
//  4. on success invalidate the key; on failure restore the snapshot.
//
// apply must return a new value rather than mutating its argument in place,
// otherwise the snapshot cannot be restored by value. The returned State is
// StateCommitted or StateRolledBack; err is non-nil exactly when the
// mutation rolled back (or the store was closed before it could start).
func (s *Store[T]) Execute(ctx context.Context, key string, apply func(T) T, commit func(context.Context) error) (State, error) {
	e := s.entryFor(key)
	if e == nil {
		return StateIdle, ErrClosed
	}

	e.flight.Lock()
	defer e.flight.Unlock()

	// Idle -> Optimistic: snapshot, then project.
	e.mu.Lock()
	snapshot := e.value
	had := e.valid
	if had && apply != nil {
		e.value = apply(e.value)
	}
	e.inFlight = true
	e.mu.Unlock()

	err := s.commitWithRetry(ctx, commit)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false

	if s.isClosed() {
		// Session ended mid-flight: nothing to roll back or invalidate.
		if err != nil {
			return StateRolledBack, err
		}
		return StateCommitted, nil
	}

	if err != nil {
		// Optimistic -> RolledBack: restore the exact pre-mutation snapshot.
		e.value = snapshot
		e.valid = had
		return StateRolledBack, err
	}

	// Optimistic -> Committed: discard the projection; the next read
	// refetches server-confirmed data (real IDs and timestamps).
	var zero T
	e.value = zero
	e.valid = false
	return StateCommitted, nil
}

func (s *Store[T]) commitWithRetry(ctx context.Context, commit func(context.Context) error) error {
	attempts := s.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := s.retry.BaseDelay

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = commit(ctx); err == nil {
			return nil
		}
		if s.retry.Retryable != nil && !s.retry.Retryable(err) {
			return err
		}
	}
	return err
}

func (s *Store[T]) entryFor(key string) *entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	e := s.entries[key]
	if e == nil {
		e = &entry[T]{}
		s.entries[key] = e
	}
	return e
}

func (s *Store[T]) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
