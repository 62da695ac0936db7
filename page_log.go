// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"strings"
	"time"

	"github.com/rivo/tview"
)

// maxLogLines bounds the log page so an unstable connection can't grow it
// without limit.
const maxLogLines = 200

type LogPage struct {
	Root *tview.Flex

	logList *tview.List

	// external refs
	ui *Ui
}

func (ui *Ui) createLogPage() *LogPage {
	logPage := LogPage{
		ui:      ui,
		logList: tview.NewList().ShowSecondaryText(false),
	}

	logPage.Root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(logPage.logList, 0, 1, true)

	return &logPage
}

// Print prepends a timestamped line, newest first.
func (l *LogPage) Print(line string) {
	line = strings.TrimRight(line, "\n")
	l.ui.app.QueueUpdateDraw(func() {
		l.logList.InsertItem(0, time.Now().Local().Format("(15:04:05) ")+line, "", 0, nil)
		for l.logList.GetItemCount() > maxLogLines {
			l.logList.RemoveItem(-1)
		}
	})
}
