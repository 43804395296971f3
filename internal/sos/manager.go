package sos

import (
	"context"
	"errors"
	"sync"
	"time"

	"mountain-sentinel/config"
	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("sos session not found")

// Finished sessions stay queryable for this long.
const sessionRetention = time.Minute

type Session struct {
	ID      uuid.UUID
	UserID  string
	Locator *SessionLocator

	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc

	mu    sync.Mutex
	alert *model.SOSAlert
	err   error
}

// Progress yields countdown ticks. Ticks are dropped for a reader that
// falls behind.
func (s *Session) Progress() <-chan Progress { return s.progress }

// Done is closed once the sequence has finished or been cancelled.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result is valid after Done is closed. A cancelled session returns
// context.Canceled and no alert.
func (s *Session) Result() (*model.SOSAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alert, s.err
}

type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	cfg      config.SOSConfig
	notifier Notifier
	ctx      context.Context
	stop     context.CancelFunc
}

func NewManager(cfg config.SOSConfig, notifier Notifier) *Manager {
	ctx, stop := context.WithCancel(context.Background())
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		cfg:      cfg,
		notifier: notifier,
		ctx:      ctx,
		stop:     stop,
	}
}

// Start launches a sequence for user and returns immediately.
func (m *Manager) Start(user User) *Session {
	ctx, cancel := context.WithCancel(m.ctx)
	s := &Session{
		ID:       uuid.New(),
		UserID:   user.ID,
		Locator:  NewSessionLocator(),
		progress: make(chan Progress, 64),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	flow := &Flow{
		Locator:      s.Locator,
		Notifier:     m.notifier,
		Duration:     m.cfg.Duration.Duration,
		Ticks:        m.cfg.Ticks,
		FinalTimeout: m.cfg.FinalTimeout.Duration,
	}

	log := logger.Component("sos").WithField("session_id", s.ID).WithField("user_id", user.ID)
	log.Info("sos sequence started")

	go func() {
		defer cancel()
		alert, err := flow.Run(ctx, user, func(p Progress) {
			select {
			case s.progress <- p:
			default:
			}
		})

		s.mu.Lock()
		s.alert, s.err = alert, err
		s.mu.Unlock()
		close(s.done)

		switch {
		case errors.Is(err, context.Canceled):
			log.Info("sos sequence cancelled")
		case err != nil:
			log.WithError(err).Error("sos sequence failed")
		default:
			log.WithField("source", alert.Source).Info("sos alert sent")
		}

		time.AfterFunc(sessionRetention, func() { m.remove(s.ID) })
	}()

	return s
}

// Get returns the session if it belongs to userID.
func (m *Manager) Get(id uuid.UUID, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Cancel(id uuid.UUID, userID string) error {
	s, err := m.Get(id, userID)
	if err != nil {
		return err
	}
	s.cancel()
	return nil
}

// Shutdown cancels every running sequence.
func (m *Manager) Shutdown() {
	m.stop()
}

func (m *Manager) remove(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
