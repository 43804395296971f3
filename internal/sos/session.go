package sos

import (
	"context"
	"sync"
	"time"

	"mountain-sentinel/internal/geo"
)

// SessionLocator answers Locate calls from fixes the client posts while the
// sequence runs. A permission denial is final for the session.
type SessionLocator struct {
	mu       sync.Mutex
	latest   *Fix
	latestAt time.Time
	denied   bool
	changed  chan struct{}
	now      func() time.Time
}

func NewSessionLocator() *SessionLocator {
	return &SessionLocator{
		changed: make(chan struct{}),
		now:     time.Now,
	}
}

// Post records a fix. Fixes outside the municipal bounds are rejected with
// the geo validation error and not stored.
func (s *SessionLocator) Post(fix Fix) error {
	if err := geo.ValidateLocation(&fix.Location); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &fix
	s.latestAt = s.now()
	s.broadcast()
	return nil
}

// Deny marks location access as refused. Pending and future Locate calls
// fail with ErrPermissionDenied.
func (s *SessionLocator) Deny() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied = true
	s.broadcast()
}

func (s *SessionLocator) Locate(ctx context.Context, opts LocateOptions) (Fix, error) {
	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.denied {
			s.mu.Unlock()
			return Fix{}, ErrPermissionDenied
		}
		if fix, ok := s.acceptable(opts); ok {
			s.mu.Unlock()
			return fix, nil
		}
		wait := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return Fix{}, ctx.Err()
		case <-timer.C:
			return Fix{}, ErrLocateTimeout
		case <-wait:
		}
	}
}

// acceptable must be called with mu held. Every fix in a session was taken
// after the session began, so a zero MaximumAge accepts any of them.
func (s *SessionLocator) acceptable(opts LocateOptions) (Fix, bool) {
	if s.latest == nil {
		return Fix{}, false
	}
	if opts.HighAccuracy && !s.latest.HighAccuracy {
		return Fix{}, false
	}
	if opts.MaximumAge > 0 && s.now().Sub(s.latestAt) > opts.MaximumAge {
		return Fix{}, false
	}
	return *s.latest, true
}

// broadcast wakes every waiter. Must be called with mu held.
func (s *SessionLocator) broadcast() {
	close(s.changed)
	s.changed = make(chan struct{})
}
