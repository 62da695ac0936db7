// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"mpdscreen/mpd"
)

// formatDuration renders a playback position as m:ss.t, seconds with one
// decimal, minutes omitted when zero.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := d.Seconds()
	minutes := int(totalSeconds) / 60
	seconds := totalSeconds - float64(minutes*60)
	if minutes > 0 {
		return fmt.Sprintf("%d:%04.1f", minutes, seconds)
	}
	return fmt.Sprintf("%.1f", seconds)
}

func formatPlayState(state mpd.PlayState) string {
	switch state {
	case mpd.StatePlaying:
		return "[green::b]Playing[::-][-]"
	case mpd.StatePaused:
		return "[yellow::b]Paused[::-][-]"
	case mpd.StateStopped:
		return "[red::b]Stopped[::-][-]"
	}
	return "[gray]Disconnected[-]"
}

// formatTrackInfo builds the text overlay next to the cover art. Fields
// the user toggled off are skipped here; the underlying NowPlaying always
// carries all of them.
func formatTrackInfo(np *mpd.NowPlaying, elapsed time.Duration, opts displayOptions) string {
	var b strings.Builder

	if opts.showTitle && np.Title != "" {
		fmt.Fprintf(&b, "[::b]%s[::-]\n", tview.Escape(np.Title))
	}
	if opts.showArtist && np.Artist != "" {
		fmt.Fprintf(&b, "%s\n", tview.Escape(np.Artist))
	}
	if opts.showAlbum && np.Album != "" {
		fmt.Fprintf(&b, "[::d]%s[::-]\n", tview.Escape(np.Album))
	}
	if opts.showFilename && np.File != "" {
		fmt.Fprintf(&b, "[gray]%s[-]\n", tview.Escape(np.File))
	}
	if np.Duration > 0 {
		fmt.Fprintf(&b, "\n%s / %s", formatDuration(elapsed), formatDuration(np.Duration))
	}
	return b.String()
}
