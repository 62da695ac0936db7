// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package art

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdscreen/mpd"
)

var (
	trackA = mpd.TrackIdentity{SongID: "1", File: "music/a.mp3"}
	trackB = mpd.TrackIdentity{SongID: "2", File: "music/b.mp3"}
)

func TestCacheEmpty(t *testing.T) {
	c := NewCache()
	got, state := c.Get(trackA)
	assert.Nil(t, got)
	assert.Equal(t, NotFetched, state)
}

func TestCachePutAndGet(t *testing.T) {
	c := NewCache()
	decoded := &DecodedArt{Width: 2, Height: 2, Pixels: make([]byte, 16), Track: trackA}
	c.Put(trackA, decoded)

	got, state := c.Get(trackA)
	require.Equal(t, FetchedArt, state)
	assert.Same(t, decoded, got)
	assert.Equal(t, trackA, got.Track)
}

func TestCacheRecordsNoArt(t *testing.T) {
	c := NewCache()
	c.Put(trackA, nil)

	// the outcome is remembered so the fetch is not retried every poll
	got, state := c.Get(trackA)
	assert.Nil(t, got)
	assert.Equal(t, FetchedNone, state)
}

func TestCacheEvictsOnTrackChange(t *testing.T) {
	c := NewCache()
	artA := &DecodedArt{Track: trackA}
	c.Put(trackA, artA)
	c.Put(trackB, nil)

	// the old track is gone, even though the new one has no art
	got, state := c.Get(trackA)
	assert.Nil(t, got)
	assert.Equal(t, NotFetched, state)

	got, state = c.Get(trackB)
	assert.Nil(t, got)
	assert.Equal(t, FetchedNone, state)
}

func TestCacheNeverServesForeignArt(t *testing.T) {
	c := NewCache()
	c.Put(trackA, &DecodedArt{Track: trackA})

	// same file, different song id: a distinct identity, so a miss
	requeued := mpd.TrackIdentity{SongID: "9", File: trackA.File}
	got, state := c.Get(requeued)
	assert.Nil(t, got)
	assert.Equal(t, NotFetched, state)
}
