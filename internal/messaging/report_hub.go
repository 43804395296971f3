package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"
)

type View string

const (
	ViewAll      View = "all"
	ViewPending  View = "pending"
	ViewApproved View = "approved"
)

func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewApproved, nil
	case ViewAll, ViewPending, ViewApproved:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

var ErrHubClosed = errors.New("report hub closed")

const refreshTimeout = 10 * time.Second

// SnapshotSource loads every report, newest first.
type SnapshotSource interface {
	FindAll(ctx context.Context) ([]model.Report, error)
}

// Subscription delivers full snapshots of one view on C. Only the latest
// snapshot is buffered. C is closed once the subscription ends. Snapshots
// are shared between subscribers and must not be modified.
type Subscription struct {
	C <-chan []model.Report

	view   View
	ch     chan []model.Report
	cancel context.CancelFunc
}

func (s *Subscription) View() View { return s.view }

// Unsubscribe ends the subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() { s.cancel() }

// ReportHub runs the live queries. Every change signal triggers one load of
// the report table and every view is derived from that single snapshot, so
// all subscribers observe a change in the same cycle.
type ReportHub struct {
	source     SnapshotSource
	register   chan *Subscription
	unregister chan *Subscription
	changed    chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	subs   map[*Subscription]struct{}
	views  map[View][]model.Report
	loaded bool
}

func NewReportHub(source SnapshotSource) *ReportHub {
	return &ReportHub{
		source:     source,
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		changed:    make(chan struct{}, 1),
		done:       make(chan struct{}),
		subs:       make(map[*Subscription]struct{}),
	}
}

func (h *ReportHub) Run() {
	for {
		select {
		case <-h.done:
			for sub := range h.subs {
				close(sub.ch)
				delete(h.subs, sub)
			}
			return

		case sub := <-h.register:
			if !h.loaded {
				h.refresh()
			}
			h.subs[sub] = struct{}{}
			if h.loaded {
				deliver(sub, h.views[sub.view])
			}

		case sub := <-h.unregister:
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.ch)
			}

		case <-h.changed:
			if !h.refresh() {
				continue
			}
			for sub := range h.subs {
				deliver(sub, h.views[sub.view])
			}
		}
	}
}

// Notify signals that reports changed. Signals arriving before the hub has
// reloaded are merged into one reload.
func (h *ReportHub) Notify() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// Subscribe starts a live query for view. The subscription ends when ctx is
// cancelled or Unsubscribe is called.
func (h *ReportHub) Subscribe(ctx context.Context, view View) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan []model.Report, 1)
	sub := &Subscription{C: ch, view: view, ch: ch, cancel: cancel}

	select {
	case h.register <- sub:
	case <-h.done:
		cancel()
		return nil, ErrHubClosed
	}

	go func() {
		<-ctx.Done()
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}()
	return sub, nil
}

func (h *ReportHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *ReportHub) refresh() bool {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	reports, err := h.source.FindAll(ctx)
	if err != nil {
		logger.Component("report_hub").WithError(err).Error("refresh snapshot")
		return false
	}
	h.views = project(reports)
	h.loaded = true
	return true
}

func project(reports []model.Report) map[View][]model.Report {
	views := map[View][]model.Report{
		ViewAll:      make([]model.Report, len(reports)),
		ViewPending:  []model.Report{},
		ViewApproved: []model.Report{},
	}
	copy(views[ViewAll], reports)
	for _, r := range reports {
		switch r.Status {
		case model.StatusPending:
			views[ViewPending] = append(views[ViewPending], r)
		case model.StatusApproved:
			views[ViewApproved] = append(views[ViewApproved], r)
		}
	}
	return views
}

// deliver replaces any snapshot the subscriber has not read yet. The hub is
// the only sender, so the send after draining cannot block.
func deliver(sub *Subscription, snapshot []model.Report) {
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snapshot
}
