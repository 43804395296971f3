package messaging

import (
	"sync"
	"time"

	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/repository"

	"github.com/lib/pq"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

type changeNotifier interface {
	Notify()
}

// PGListener forwards report_changes notifications from PostgreSQL to the
// hub, so writes made by other instances reach local subscribers.
type PGListener struct {
	dsn      string
	target   changeNotifier
	listener *pq.Listener
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewPGListener(dsn string, target changeNotifier) *PGListener {
	return &PGListener{
		dsn:    dsn,
		target: target,
		done:   make(chan struct{}),
	}
}

func (l *PGListener) Start() error {
	log := logger.Component("pg_listener")
	l.listener = pq.NewListener(l.dsn, listenerMinReconnect, listenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.WithError(err).WithField("event", ev).Warn("listener event")
			}
		})
	if err := l.listener.Listen(repository.ChangeChannel); err != nil {
		l.listener.Close()
		return err
	}

	l.wg.Add(1)
	go l.loop()
	log.WithField("channel", repository.ChangeChannel).Info("listening")
	return nil
}

func (l *PGListener) loop() {
	defer l.wg.Done()
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-l.listener.Notify:
			// A nil notification follows a reconnect; events may have been
			// missed, so it also triggers a reload.
			l.target.Notify()
		case <-ticker.C:
			go l.listener.Ping()
		}
	}
}

func (l *PGListener) Stop() {
	close(l.done)
	l.wg.Wait()
	if l.listener != nil {
		l.listener.Close()
	}
	logger.Component("pg_listener").Info("stopped")
}
