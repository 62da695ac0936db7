// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package nowplaying runs the protocol session on a background worker and
// publishes immutable snapshots of the playback state for a renderer to
// pick up once per frame.
package nowplaying

import (
	"errors"
	"sync/atomic"
	"time"

	"mpdscreen/art"
	"mpdscreen/logger"
	"mpdscreen/mpd"
)

const (
	defaultPollInterval = 5 * time.Second
	// overtimeInterval is used when elapsed has run past the duration:
	// the track most likely just changed, so re-poll quickly.
	overtimeInterval = 500 * time.Millisecond

	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Snapshot is the one type crossing from the worker to the renderer. Art,
// when present, was decoded for the same TrackIdentity as Now.Track; a
// snapshot never mixes one track's metadata with another track's art.
type Snapshot struct {
	Now mpd.NowPlaying
	Art *art.DecodedArt // nil when no art is available
	At  time.Time       // when Now was polled
}

// Elapsed reports the playback position adjusted for the time since the
// poll, so the renderer can show a smooth counter between poll cycles.
func (s *Snapshot) Elapsed() time.Duration {
	elapsed := s.Now.Elapsed
	if s.Now.State == mpd.StatePlaying {
		elapsed += time.Since(s.At)
	}
	if s.Now.Duration > 0 && elapsed > s.Now.Duration {
		elapsed = s.Now.Duration
	}
	return elapsed
}

type Config struct {
	Host         string
	Port         int
	Password     string
	PollInterval time.Duration
}

// Watcher owns the session, poller, fetcher and cache, and drives them
// from a single goroutine. The latest snapshot sits in a one-slot mailbox;
// a slow renderer only ever misses intermediate states, never sees a
// partial one.
type Watcher struct {
	cfg    Config
	logger logger.LoggerInterface

	session *mpd.Session
	fetcher *mpd.ArtFetcher
	cache   *art.Cache

	snapshot  atomic.Pointer[Snapshot]
	errs      chan error
	reconnect chan struct{}
	quit      chan struct{}
	done      chan struct{}
}

func NewWatcher(cfg Config, l logger.LoggerInterface) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	session := mpd.NewSession(l)
	return &Watcher{
		cfg:       cfg,
		logger:    l,
		session:   session,
		fetcher:   mpd.NewArtFetcher(session, l),
		cache:     art.NewCache(),
		errs:      make(chan error, 16),
		reconnect: make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Watcher) Start() {
	go w.run()
}

// Stop shuts the worker down and closes the connection, aborting any
// in-flight read.
func (w *Watcher) Stop() {
	close(w.quit)
	w.session.Close()
	<-w.done
}

// Snapshot returns the latest published snapshot, or nil before the first
// successful poll.
func (w *Watcher) Snapshot() *Snapshot {
	return w.snapshot.Load()
}

// Errors delivers non-fatal failures (connection lost, protocol errors,
// art problems) for the renderer to surface. The channel is buffered and
// never blocks the worker; unread errors are dropped.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// ForceReconnect asks the worker to tear down and redial the session.
func (w *Watcher) ForceReconnect() {
	select {
	case w.reconnect <- struct{}{}:
	default:
	}
}

func (w *Watcher) run() {
	defer close(w.done)

	backoff := initialBackoff
	for {
		select {
		case <-w.quit:
			return
		default:
		}

		if state := w.session.State(); state != mpd.Connected && state != mpd.Authenticated {
			if err := w.connect(); err != nil {
				w.report(err)
				w.publish(&Snapshot{At: time.Now()})
				if !w.sleep(backoff) {
					return
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			// backoff resets only once authentication went through
			backoff = initialBackoff
		}

		wait := w.cycle()

		select {
		case <-w.quit:
			return
		case <-w.reconnect:
			w.logger.Print("nowplaying: reconnect requested")
			w.session.Close()
		case <-time.After(wait):
		}
	}
}

func (w *Watcher) connect() error {
	if err := w.session.Connect(w.cfg.Host, w.cfg.Port); err != nil {
		return err
	}
	if err := w.session.Authenticate(w.cfg.Password); err != nil {
		return err
	}
	return nil
}

// cycle performs one poll-fetch-decode-publish round and returns how long
// to wait before the next one.
func (w *Watcher) cycle() time.Duration {
	np, err := mpd.Poll(w.session)
	if err != nil {
		var perm *mpd.PermissionError
		if errors.As(err, &perm) {
			// the connection is still usable; retry the password and poll
			// again next cycle
			w.report(err)
			if err := w.session.Authenticate(w.cfg.Password); err != nil {
				w.report(err)
			}
			return w.cfg.PollInterval
		}
		// connection lost or protocol fault: drop the connection, show a
		// placeholder instead of stale data, reconnect with backoff
		w.report(err)
		w.session.Close()
		w.publish(&Snapshot{At: time.Now()})
		return 0
	}

	snapshot := &Snapshot{Now: np, At: time.Now()}
	if !np.Track.Zero() {
		cached, state := w.cache.Get(np.Track)
		if state == art.NotFetched {
			cached = w.fetchArt(np.Track)
		}
		snapshot.Art = cached
	}
	w.publish(snapshot)

	if np.State == mpd.StatePlaying && np.Duration > 0 && np.Elapsed > np.Duration {
		return overtimeInterval
	}
	return w.cfg.PollInterval
}

// fetchArt runs one fetch-and-decode attempt for the track and records the
// outcome in the cache. Art failures are cached as "no art" so a bad cover
// is not refetched on every poll; only a lost connection is left
// unrecorded, to be retried after reconnecting.
func (w *Watcher) fetchArt(id mpd.TrackIdentity) *art.DecodedArt {
	data, err := w.fetcher.Fetch(id)
	if err != nil {
		w.report(err)
		if errors.Is(err, mpd.ErrConnectionLost) {
			return nil
		}
		w.cache.Put(id, nil)
		return nil
	}
	if data == nil {
		w.cache.Put(id, nil)
		return nil
	}

	decoded, err := art.Decode(data, id)
	if err != nil {
		w.report(err)
		w.cache.Put(id, nil)
		return nil
	}
	w.cache.Put(id, decoded)
	return decoded
}

func (w *Watcher) publish(s *Snapshot) {
	w.snapshot.Store(s)
}

func (w *Watcher) report(err error) {
	w.logger.PrintError("nowplaying", err)
	select {
	case w.errs <- err:
	default:
	}
}

// sleep waits for the backoff duration, returning false when the watcher
// was stopped meanwhile.
func (w *Watcher) sleep(d time.Duration) bool {
	select {
	case <-w.quit:
		return false
	case <-time.After(d):
		return true
	}
}
