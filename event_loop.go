// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import "time"

// refreshInterval is how often the GUI repaints from the latest snapshot.
// The protocol worker publishes on its own cadence; repainting faster only
// keeps the elapsed-time counter smooth.
const refreshInterval = 500 * time.Millisecond

// handle ui updates
func (ui *Ui) guiEventLoop() {
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ui.quit:
			return

		case msg := <-ui.logger.Prints:
			// handle log page output
			ui.logPage.Print(msg)

		case err := <-ui.watcher.Errors():
			msg := err.Error()
			ui.app.QueueUpdateDraw(func() {
				ui.lastError = msg
				ui.renderSnapshot(ui.watcher.Snapshot())
			})

		case <-refresh.C:
			ui.app.QueueUpdateDraw(func() {
				ui.renderSnapshot(ui.watcher.Snapshot())
			})
		}
	}
}
