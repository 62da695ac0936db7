// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package art

import (
	"sync"

	"mpdscreen/mpd"
)

// FetchState is the cache's per-track fetch state machine. It is explicit
// so the "known bad art is not retried" policy is visible and testable:
// once a track reaches FetchedNone, no further fetch happens until the
// track changes.
type FetchState int

const (
	// NotFetched means no fetch outcome is recorded for the track.
	NotFetched FetchState = iota
	// FetchedArt means decoded art is cached for the track.
	FetchedArt
	// FetchedNone means a fetch was attempted and the track has no usable
	// art (absent, unsupported, too large, or undecodable).
	FetchedNone
)

// Cache holds decoded art for exactly one track: the playing one. Putting
// any other identity evicts the previous entry unconditionally. All
// methods are safe for a renderer thread reading while the fetch thread
// writes; a reader sees a fully formed DecodedArt or none, never a partial
// buffer.
type Cache struct {
	mu    sync.Mutex
	track mpd.TrackIdentity
	state FetchState
	art   *DecodedArt
}

func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached art and fetch state for the identity. Asking
// about any track other than the cached one reports NotFetched.
func (c *Cache) Get(id mpd.TrackIdentity) (*DecodedArt, FetchState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.track || c.state == NotFetched {
		return nil, NotFetched
	}
	return c.art, c.state
}

// Put records a fetch outcome for the identity. A nil art means "no art
// available"; the entry still counts as fetched so the failure is not
// retried every poll cycle.
func (c *Cache) Put(id mpd.TrackIdentity, decoded *DecodedArt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track = id
	c.art = decoded
	if decoded != nil {
		c.state = FetchedArt
	} else {
		c.state = FetchedNone
	}
}
