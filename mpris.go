// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"errors"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"mpdscreen/logger"
	"mpdscreen/mpd"
	"mpdscreen/nowplaying"
)

// MprisPlayer mirrors the current track over MPRIS2 so desktop widgets can
// show what MPD plays. It is a read-only surface: playback is controlled
// through MPD itself, so every Can* capability is false and the mandatory
// control methods only log.
type MprisPlayer struct {
	dbus   *dbus.Conn
	props  *prop.Properties
	logger logger.LoggerInterface
}

func RegisterMprisPlayer(logger_ logger.LoggerInterface) (mpp *MprisPlayer, err error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return
	}

	mpp = &MprisPlayer{
		dbus:   conn,
		logger: logger_,
	}

	err = conn.ExportAll(mpp, "/org/mpris/MediaPlayer2", "org.mpris.MediaPlayer2.Player")
	if err != nil {
		return
	}

	metadata := map[string]interface{}{
		"mpris:trackid": dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack"),
		"mpris:length":  int64(0),
		"xesam:album":   "",
		"xesam:artist":  []string{},
		"xesam:title":   "",
		"xesam:url":     "",
	}

	var playerProps = map[string]*prop.Prop{
		"CanControl":     {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanGoNext":      {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanGoPrevious":  {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanPause":       {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanPlay":        {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanSeek":        {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"Metadata":       {Value: metadata, Writable: false, Emit: prop.EmitTrue, Callback: nil},
		"PlaybackStatus": {Value: "Stopped", Writable: false, Emit: prop.EmitTrue, Callback: nil},
	}

	var mediaPlayer = map[string]*prop.Prop{
		"CanQuit":             {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"Identity":            {Value: Name, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"SupportedUriSchemes": {Value: []string{}, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"SupportedMimeTypes":  {Value: []string{}, Writable: false, Emit: prop.EmitFalse, Callback: nil},
	}

	mpp.props, err = prop.Export(
		conn,
		"/org/mpris/MediaPlayer2",
		map[string]map[string]*prop.Prop{
			"org.mpris.MediaPlayer2":        mediaPlayer,
			"org.mpris.MediaPlayer2.Player": playerProps,
		},
	)
	if err != nil {
		return
	}

	n := &introspect.Node{
		Name: "/org/mpris/MediaPlayer2",
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       "org.mpris.MediaPlayer2.Player",
				Methods:    introspect.Methods(mpp),
				Properties: mpp.props.Introspection("org.mpris.MediaPlayer2.Player"),
			},
		},
	}
	err = conn.Export(introspect.NewIntrospectable(n), "/org/mpris/MediaPlayer2", "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return
	}

	name := "org.mpris.MediaPlayer2." + Name
	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		err = errors.New("name already owned")
		return
	}
	return
}

func (m *MprisPlayer) Close() {
	if err := m.dbus.Close(); err != nil {
		m.logger.PrintError("mpris Close", err)
	}
}

// OnSnapshot pushes the latest now-playing state out to the bus. Called by
// the render path whenever the track identity changes.
func (m *MprisPlayer) OnSnapshot(snapshot *nowplaying.Snapshot) {
	np := snapshot.Now

	metadata := map[string]interface{}{
		"mpris:trackid": trackPath(np.Track),
		"mpris:length":  int64(np.Duration.Microseconds()),
		"xesam:album":   np.Album,
		"xesam:artist":  []string{np.Artist},
		"xesam:title":   np.Title,
		"xesam:url":     np.File,
	}

	m.props.SetMust("org.mpris.MediaPlayer2.Player", "Metadata", metadata)
	m.props.SetMust("org.mpris.MediaPlayer2.Player", "PlaybackStatus", playbackStatus(np.State))
}

func trackPath(id mpd.TrackIdentity) dbus.ObjectPath {
	if id.Zero() {
		return dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
	}
	return dbus.ObjectPath("/org/mpris/MediaPlayer2/track/" + id.SongID)
}

func playbackStatus(state mpd.PlayState) string {
	switch state {
	case mpd.StatePlaying:
		return "Playing"
	case mpd.StatePaused:
		return "Paused"
	}
	return "Stopped"
}

// Mandatory interface methods. This player never drives MPD, so each one is
// a logged no-op.
func (m *MprisPlayer) Play() {
	m.logger.Print("mpris: Play not supported")
}

func (m *MprisPlayer) Pause() {
	m.logger.Print("mpris: Pause not supported")
}

func (m *MprisPlayer) PlayPause() {
	m.logger.Print("mpris: PlayPause not supported")
}

func (m *MprisPlayer) Stop() {
	m.logger.Print("mpris: Stop not supported")
}

func (m *MprisPlayer) Next() {
	m.logger.Print("mpris: Next not supported")
}

func (m *MprisPlayer) Previous() {
	m.logger.Print("mpris: Previous not supported")
}

func (m *MprisPlayer) Seek(int) {
	m.logger.Print("mpris: Seek not supported")
}

func (m *MprisPlayer) SetPosition(string, int) {
	m.logger.Print("mpris: SetPosition not supported")
}

func (m *MprisPlayer) OpenUri(string) {
	m.logger.Print("mpris: OpenUri not supported")
}
