// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import "strings"

// Command is a single protocol request line. Commands are cheap values
// built per call; they carry no connection state.
type Command struct {
	name string
	args []string
}

func NewCommand(name string, args ...string) Command {
	return Command{name: name, args: args}
}

// String renders the command without the trailing newline, mainly for logs.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.name)
	for _, a := range c.args {
		b.WriteByte(' ')
		b.WriteString(quoteArg(a))
	}
	return b.String()
}

// encode renders the full wire form of the command, newline included.
func (c Command) encode() []byte {
	return []byte(c.String() + "\n")
}

// quoteArg applies the protocol's argument quoting: arguments containing
// whitespace or quote characters are wrapped in double quotes, with
// backslash and double quote escaped. Empty arguments must be quoted too,
// or they would vanish from the command line.
func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"'\\") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(arg); i++ {
		switch arg[i] {
		case '"', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(arg[i])
	}
	b.WriteByte('"')
	return b.String()
}
