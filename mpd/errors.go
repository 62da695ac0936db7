// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import (
	"errors"
	"fmt"
)

// ACK error codes defined by the protocol. Only the ones mpdscreen reacts
// to are listed; anything else is carried through in Ack.Code untouched.
const (
	AckErrorArg        = 2
	AckErrorPassword   = 3
	AckErrorPermission = 4
	AckErrorUnknownCmd = 5
	AckErrorNoExist    = 50
)

var (
	// ErrConnectionLost is returned by every session operation after the
	// underlying stream has failed. The caller owns reconnecting.
	ErrConnectionLost = errors.New("mpd: connection lost")

	// ErrArtTooLarge is returned by the art fetcher when a transfer exceeds
	// the configured chunk-count ceiling.
	ErrArtTooLarge = errors.New("mpd: album art exceeds chunk ceiling")
)

// Ack is a structured MPD error response of the form
// "ACK [code@index] {command} message".
type Ack struct {
	Code    int
	Index   int
	Command string
	Message string
}

func (a *Ack) Error() string {
	return fmt.Sprintf("mpd: ACK [%d@%d] {%s} %s", a.Code, a.Index, a.Command, a.Message)
}

// PermissionError reports an ACK caused by insufficient privileges or a
// rejected password. The connection stays usable; retrying Authenticate
// with a different password is a valid response.
type PermissionError struct {
	Ack *Ack
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("mpd: permission denied: %s", e.Ack.Message)
}

func (e *PermissionError) Unwrap() error { return e.Ack }

// ProtocolError reports a response line the codec could not classify.
// The session treats it as a connection-level fault.
type ProtocolError struct {
	Line string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mpd: malformed response line %q", e.Line)
}

// TruncatedChunkError reports a stream that ended inside a declared binary
// chunk, or a chunked art transfer that stopped short of its declared size.
type TruncatedChunkError struct {
	Want int
	Got  int
}

func (e *TruncatedChunkError) Error() string {
	return fmt.Sprintf("mpd: binary data truncated: got %d of %d bytes", e.Got, e.Want)
}
