// Package sos runs the timed emergency alert sequence: a fixed countdown
// while a location is acquired in the background, then exactly one alert.
package sos

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"mountain-sentinel/internal/model"

	"github.com/google/uuid"
)

type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is how old a cached fix may be. Zero demands a fresh one.
	MaximumAge time.Duration
}

var (
	HighAccuracyOptions = LocateOptions{HighAccuracy: true, Timeout: 5 * time.Second}
	LowAccuracyOptions  = LocateOptions{Timeout: 10 * time.Second, MaximumAge: 60 * time.Second}
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrLocateTimeout    = errors.New("location request timed out")
)

type Fix struct {
	Location     model.Location
	Accuracy     *float64
	HighAccuracy bool
}

type Locator interface {
	Locate(ctx context.Context, opts LocateOptions) (Fix, error)
}

type Notifier interface {
	NotifySOS(ctx context.Context, alert *model.SOSAlert) error
}

type User struct {
	ID    string
	Name  string
	Email string
}

type Progress struct {
	Step      int     `json:"step"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Countdown int     `json:"countdown"`
}

type Flow struct {
	Locator      Locator
	Notifier     Notifier
	Duration     time.Duration
	Ticks        int
	FinalTimeout time.Duration
}

// Run drives the countdown and then sends one alert with whatever location
// is on hand. Location acquisition never delays the alert past the
// countdown except for the single short final attempt. If ctx ends first
// nothing is sent and ctx.Err() is returned.
func (f *Flow) Run(ctx context.Context, user User, onProgress func(Progress)) (*model.SOSAlert, error) {
	ticks := f.Ticks
	if ticks <= 0 {
		ticks = 1
	}
	interval := f.Duration / time.Duration(ticks)
	if interval <= 0 {
		interval = time.Millisecond
	}

	acqCtx, cancelAcq := context.WithCancel(ctx)
	defer cancelAcq()

	var (
		mu  sync.Mutex
		fix *Fix
	)
	go func() {
		got, err := f.acquire(acqCtx)
		if err != nil {
			return
		}
		mu.Lock()
		fix = &got
		mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for step := 1; step <= ticks; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		if onProgress != nil {
			onProgress(progressAt(step, ticks, f.Duration))
		}
	}

	mu.Lock()
	got := fix
	mu.Unlock()
	cancelAcq()

	source := model.SourceNone
	if got != nil {
		source = model.SourceLowAccuracy
		if got.HighAccuracy {
			source = model.SourceHighAccuracy
		}
	} else if f.FinalTimeout > 0 {
		finalCtx, cancel := context.WithTimeout(ctx, f.FinalTimeout)
		final, err := f.Locator.Locate(finalCtx, LocateOptions{Timeout: f.FinalTimeout, MaximumAge: LowAccuracyOptions.MaximumAge})
		cancel()
		if err == nil {
			got = &final
			source = model.SourceLowAccuracy
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alert := &model.SOSAlert{
		ID:          uuid.New(),
		UserID:      user.ID,
		UserName:    user.Name,
		UserEmail:   user.Email,
		Source:      source,
		TriggeredAt: time.Now(),
	}
	if got != nil {
		loc := got.Location
		alert.Location = &loc
		alert.Accuracy = got.Accuracy
	}

	if err := f.Notifier.NotifySOS(context.WithoutCancel(ctx), alert); err != nil {
		return alert, err
	}
	return alert, nil
}

// acquire tries a high accuracy fix, falling back to low accuracy.
func (f *Flow) acquire(ctx context.Context) (Fix, error) {
	fix, err := f.Locator.Locate(ctx, HighAccuracyOptions)
	if err == nil || ctx.Err() != nil {
		return fix, err
	}
	return f.Locator.Locate(ctx, LowAccuracyOptions)
}

func progressAt(step, total int, d time.Duration) Progress {
	remaining := d.Seconds() * float64(total-step) / float64(total)
	return Progress{
		Step:      step,
		Total:     total,
		Percent:   float64(step) * 100 / float64(total),
		Countdown: int(math.Ceil(remaining - 1e-9)),
	}
}
