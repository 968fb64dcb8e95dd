// Package watch polls a text source and replaces URLs found there with their
// cleaned form.
package watch

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/getlantern/cleanurl"
	"github.com/getlantern/cleanurl/internal/metrics"
	"github.com/getlantern/golog"
	"github.com/getlantern/mtime"
)

var (
	log = golog.LoggerFor("cleanurl.watch")
)

// Cleaner is satisfied by *cleanurl.Cleaner.
type Cleaner interface {
	Clean(ctx context.Context, text string) (cleanurl.Result, error)
}

// Watcher polls a Source at a fixed interval. Each distinct text is cleaned
// once; a cleaned URL written back is remembered so it is not cleaned again.
type Watcher struct {
	source   Source
	cleaner  Cleaner
	interval time.Duration
	recorder *metrics.Recorder
	last     string
}

// New creates a Watcher. recorder may be nil.
func New(source Source, cleaner Cleaner, interval time.Duration, recorder *metrics.Recorder) *Watcher {
	return &Watcher{source: source, cleaner: cleaner, interval: interval, recorder: recorder}
}

// Run polls until ctx is done. Failures to read, clean or write are logged
// and polling continues.
func (w *Watcher) Run(ctx context.Context) error {
	log.Debugf("Polling every %v", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.poll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	text, err := w.source.Read()
	if err != nil {
		log.Errorf("Unable to read source: %v", err)
		return
	}
	if text == w.last || strings.TrimSpace(text) == "" {
		return
	}
	w.last = text

	start := mtime.Now()
	res, err := w.cleaner.Clean(ctx, text)
	w.observe(text, res, err, mtime.Now().Sub(start))
	if err != nil {
		log.Errorf("Unable to clean text: %v", err)
		return
	}
	if res.Status != cleanurl.Cleaned {
		return
	}
	if err := w.source.Write(res.URL); err != nil {
		log.Errorf("Unable to write cleaned URL: %v", err)
		return
	}
	w.last = res.URL
	if w.recorder != nil {
		w.recorder.Written()
	}
	log.Debug("Replaced URL with its cleaned form")
}

func (w *Watcher) observe(text string, res cleanurl.Result, err error, dur time.Duration) {
	if w.recorder == nil {
		return
	}
	outcome := res.Status.String()
	if err != nil {
		outcome = metrics.OutcomeError
	}
	var host string
	if u, perr := url.Parse(strings.TrimSpace(text)); perr == nil {
		host = u.Hostname()
	}
	w.recorder.Observe(host, outcome, dur)
}
