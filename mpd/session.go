// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"mpdscreen/logger"
)

const dialTimeout = 5 * time.Second

// ConnState is the lifecycle state of a session's connection.
type ConnState int

const (
	Disconnected ConnState = iota
	Connected
	Authenticated
	Faulted
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Authenticated:
		return "authenticated"
	case Faulted:
		return "faulted"
	}
	return "unknown"
}

// Session owns one connection to the server and serializes all command
// traffic over it. The protocol has no command pipelining: a command must
// run through its terminating OK or ACK, binary chunk included, before the
// next one may be written.
//
// cmdMu serializes commands; stateMu guards the connection fields. They are
// separate so Close can abort a read that Do is blocked on.
type Session struct {
	logger logger.LoggerInterface

	cmdMu sync.Mutex

	stateMu sync.Mutex
	conn    net.Conn
	proto   *protoReader
	state   ConnState
	version string
}

func NewSession(l logger.LoggerInterface) *Session {
	return &Session{logger: l, state: Disconnected}
}

// Connect dials the server and validates its greeting banner. Command
// traffic is only permitted after the banner has been seen.
func (s *Session) Connect(host string, port int) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.teardown(Disconnected)

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnectionLost, addr, err)
	}

	proto := newProtoReader(conn)
	version, err := proto.readGreeting()
	if err != nil {
		conn.Close()
		return fmt.Errorf("reading greeting: %w", err)
	}

	s.stateMu.Lock()
	s.conn = conn
	s.proto = proto
	s.state = Connected
	s.version = version
	s.stateMu.Unlock()

	s.logger.Printf("mpd: connected to %s, protocol version %s", addr, version)
	return nil
}

// Authenticate sends the password command. Calling it with an empty
// password is valid and does nothing: servers without a password configured
// must not receive one.
func (s *Session) Authenticate(password string) error {
	if password == "" {
		return nil
	}
	if _, err := s.Do(NewCommand("password", password)); err != nil {
		var perm *PermissionError
		if errors.As(err, &perm) {
			return err
		}
		var ack *Ack
		if errors.As(err, &ack) {
			// a rejected password is a permission problem, not a fault
			return &PermissionError{Ack: ack}
		}
		return err
	}
	s.stateMu.Lock()
	if s.state == Connected {
		s.state = Authenticated
	}
	s.stateMu.Unlock()
	return nil
}

// Do writes one command and collects its ordered response lines through the
// terminating OK. An ACK terminator is returned as the error, with the
// lines read so far; a permission ACK is wrapped in PermissionError. The
// connection stays usable after an ACK. Any I/O or framing failure faults
// the session: the stream is closed and every later call returns
// ErrConnectionLost until the caller reconnects.
func (s *Session) Do(cmd Command) ([]ResponseLine, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.stateMu.Lock()
	conn, proto, state := s.conn, s.proto, s.state
	s.stateMu.Unlock()

	if state == Faulted || conn == nil {
		return nil, ErrConnectionLost
	}

	if _, err := conn.Write(cmd.encode()); err != nil {
		s.fault(err)
		return nil, fmt.Errorf("%w: write: %v", ErrConnectionLost, err)
	}

	var lines []ResponseLine
	for {
		line, err := proto.readLine()
		if err != nil {
			// a response we cannot frame leaves the stream position
			// unknown, so either way the connection is done for
			s.fault(err)
			var protoErr *ProtocolError
			var trunc *TruncatedChunkError
			if errors.As(err, &protoErr) || errors.As(err, &trunc) {
				return lines, err
			}
			return lines, fmt.Errorf("%w: read: %v", ErrConnectionLost, err)
		}

		switch line.Kind {
		case KindOK:
			return lines, nil
		case KindAck:
			if line.Ack.Code == AckErrorPermission || line.Ack.Code == AckErrorPassword {
				return lines, &PermissionError{Ack: line.Ack}
			}
			return lines, line.Ack
		default:
			lines = append(lines, line)
		}
	}
}

// State reports the connection state.
func (s *Session) State() ConnState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// Version reports the protocol version from the server greeting.
func (s *Session) Version() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.version
}

// Close tears the connection down. A read blocked inside Do aborts with
// ErrConnectionLost; this is the only mid-flight cancellation the protocol
// allows.
func (s *Session) Close() error {
	s.teardown(Disconnected)
	return nil
}

func (s *Session) fault(err error) {
	s.logger.PrintError("mpd session", err)
	s.teardown(Faulted)
}

func (s *Session) teardown(next ConnState) {
	s.stateMu.Lock()
	conn := s.conn
	s.conn = nil
	s.proto = nil
	s.state = next
	s.stateMu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
