// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"mpdscreen/art"
	"mpdscreen/logger"
	"mpdscreen/mpd"
	"mpdscreen/nowplaying"
)

// struct contains all the updatable elements of the Ui
type Ui struct {
	app   *tview.Application
	pages *tview.Pages

	// main page
	artView  *tview.Image
	infoView *tview.TextView

	// bottom bar
	statusView *tview.TextView

	// log page
	logPage *LogPage

	opts        displayOptions
	textVisible bool
	lastTrack   mpd.TrackIdentity
	lastArt     *art.DecodedArt
	lastError   string

	watcher     *nowplaying.Watcher
	mprisPlayer *MprisPlayer
	logger      *logger.Logger
	quit        chan struct{}
}

type displayOptions struct {
	showTitle    bool
	showArtist   bool
	showAlbum    bool
	showFilename bool
}

const (
	// page identifiers (use these instead of hardcoding page names)
	PageMain = "main"
	PageLog  = "log"
)

func InitGui(watcher *nowplaying.Watcher,
	logger *logger.Logger,
	mprisPlayer *MprisPlayer,
	opts displayOptions) (ui *Ui) {
	ui = &Ui{
		opts:        opts,
		textVisible: true,

		watcher:     watcher,
		mprisPlayer: mprisPlayer,
		logger:      logger,
		quit:        make(chan struct{}),
	}

	ui.app = tview.NewApplication()
	ui.pages = tview.NewPages()

	ui.artView = tview.NewImage().
		SetColors(tview.TrueColor).
		SetAlign(tview.AlignCenter, tview.AlignCenter)

	ui.infoView = tview.NewTextView().
		SetTextAlign(tview.AlignLeft).
		SetDynamicColors(true).
		SetScrollable(false)

	statusLeft := fmt.Sprintf("[::b]%s[::-] %s - connecting", Name, Version)
	ui.statusView = tview.NewTextView().SetText(statusLeft).
		SetTextAlign(tview.AlignLeft).
		SetDynamicColors(true).
		SetScrollable(false)

	ui.logPage = ui.createLogPage()

	mainFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(ui.artView, 0, 2, false).
		AddItem(ui.infoView, 0, 1, false)

	ui.pages.AddPage(PageMain, mainFlex, true, true).
		AddPage(PageLog, ui.logPage.Root, true, false)

	rootFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.pages, 0, 1, true).
		AddItem(ui.statusView, 1, 0, false)

	rootFlex.SetInputCapture(ui.handleInput)

	ui.app.SetRoot(rootFlex, true).
		SetFocus(rootFlex)

	return ui
}

func (ui *Ui) Run() error {
	// run gui event handler
	go ui.guiEventLoop()

	// gui main loop (blocking)
	err := ui.app.Run()
	close(ui.quit)
	return err
}

// handleInput follows the original screen's conventions: Escape or q
// quits, r forces a reconnect, l toggles the log page, and any other key
// toggles the text overlay so nothing but the cover art is shown.
func (ui *Ui) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape {
		ui.app.Stop()
		return nil
	}
	if event.Key() != tcell.KeyRune {
		return event
	}
	switch event.Rune() {
	case 'q':
		ui.app.Stop()
	case 'r':
		ui.watcher.ForceReconnect()
	case 'l':
		ui.toggleLogPage()
	default:
		ui.textVisible = !ui.textVisible
		ui.renderSnapshot(ui.watcher.Snapshot())
	}
	return nil
}

func (ui *Ui) toggleLogPage() {
	if name, _ := ui.pages.GetFrontPage(); name == PageLog {
		ui.pages.SwitchToPage(PageMain)
	} else {
		ui.pages.SwitchToPage(PageLog)
	}
}

// renderSnapshot updates the main page from the latest snapshot. It must
// run on the tview event goroutine.
func (ui *Ui) renderSnapshot(snapshot *nowplaying.Snapshot) {
	if snapshot == nil {
		return
	}

	if !ui.textVisible {
		ui.infoView.SetText("")
	} else {
		ui.infoView.SetText(formatTrackInfo(&snapshot.Now, snapshot.Elapsed(), ui.opts))
	}

	status := fmt.Sprintf("[::b]%s[::-] %s", Name, formatPlayState(snapshot.Now.State))
	if ui.lastError != "" {
		status += fmt.Sprintf("  [red]%s[-]", ui.lastError)
	}
	ui.statusView.SetText(status)

	trackChanged := snapshot.Now.Track != ui.lastTrack
	if trackChanged || snapshot.Art != ui.lastArt {
		ui.lastTrack = snapshot.Now.Track
		ui.lastArt = snapshot.Art
		if snapshot.Art != nil {
			ui.artView.SetImage(snapshot.Art.Image())
		} else {
			ui.artView.SetImage(nil)
		}
	}
	if trackChanged && ui.mprisPlayer != nil {
		ui.mprisPlayer.OnSnapshot(snapshot)
	}
}
