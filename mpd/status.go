// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import (
	"strconv"
	"strings"
	"time"
)

// PlayState is the player state reported by the server.
type PlayState string

const (
	StatePlaying PlayState = "play"
	StatePaused  PlayState = "pause"
	StateStopped PlayState = "stop"
)

// TrackIdentity identifies the playing track. It is the cache key for
// album art and the change-detection signal between polls. Two identities
// are equal iff both fields match.
type TrackIdentity struct {
	SongID string
	File   string
}

// Zero reports whether no track is identified (player stopped, or the
// server reported no current song).
func (t TrackIdentity) Zero() bool {
	return t == TrackIdentity{}
}

// NowPlaying is an immutable snapshot of the playback state, rebuilt fresh
// on every poll. All fields are always populated from the server; which of
// them get shown is the renderer's business.
type NowPlaying struct {
	Track TrackIdentity

	Title  string
	Artist string
	Album  string
	File   string

	Elapsed  time.Duration
	Duration time.Duration
	State    PlayState
}

// Poll issues the status and currentsong queries as two sequential commands
// over the session and merges their results. Missing optional tags come
// back as empty strings, never errors. An ErrConnectionLost from either
// query propagates so the caller can reconnect instead of showing stale
// data.
func Poll(s *Session) (NowPlaying, error) {
	statusLines, err := s.Do(NewCommand("status"))
	if err != nil {
		return NowPlaying{}, err
	}
	songLines, err := s.Do(NewCommand("currentsong"))
	if err != nil {
		return NowPlaying{}, err
	}

	attrs := make(map[string]string, len(statusLines)+len(songLines))
	mergeAttrs(attrs, statusLines)
	mergeAttrs(attrs, songLines)

	np := NowPlaying{
		Title:    attrs["title"],
		Artist:   attrs["artist"],
		Album:    attrs["album"],
		File:     attrs["file"],
		Elapsed:  secondsAttr(attrs["elapsed"]),
		Duration: secondsAttr(attrs["duration"]),
		State:    PlayState(attrs["state"]),
	}
	if np.File != "" {
		np.Track = TrackIdentity{SongID: attrs["songid"], File: np.File}
	}
	return np, nil
}

// mergeAttrs folds KeyValue lines into attrs. Status keys are lowercase on
// the wire but currentsong tags are capitalized (Title, Artist, Id), so
// keys are lowercased for a uniform merge.
func mergeAttrs(attrs map[string]string, lines []ResponseLine) {
	for _, line := range lines {
		if line.Kind != KindKeyValue {
			continue
		}
		attrs[strings.ToLower(line.Key)] = line.Value
	}
}

func secondsAttr(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
