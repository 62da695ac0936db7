// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ResponseKind classifies one decoded response line.
type ResponseKind int

const (
	// KindKeyValue is a "key: value" payload line.
	KindKeyValue ResponseKind = iota
	// KindBinary is a "binary: N" header; Data holds the N raw bytes that
	// followed it on the wire.
	KindBinary
	// KindOK terminates a successful response ("OK" or "list_OK").
	KindOK
	// KindAck terminates a failed response; Ack holds the parsed error.
	KindAck
)

// ResponseLine is one decoded line (plus, for KindBinary, its chunk) of a
// server response.
type ResponseLine struct {
	Kind  ResponseKind
	Key   string
	Value string
	Data  []byte
	Ack   *Ack
}

// protoReader decodes the line-oriented response stream, including the
// embedded binary-chunk sub-protocol.
type protoReader struct {
	r *bufio.Reader
}

func newProtoReader(r io.Reader) *protoReader {
	return &protoReader{r: bufio.NewReader(r)}
}

// readGreeting consumes the banner the server sends on connect and returns
// the advertised protocol version.
func (p *protoReader) readGreeting() (string, error) {
	line, err := p.readRawLine()
	if err != nil {
		return "", err
	}
	version, ok := strings.CutPrefix(line, "OK MPD ")
	if !ok {
		return "", &ProtocolError{Line: line}
	}
	return version, nil
}

// readLine decodes the next response line. For a "binary: N" header it also
// consumes the N raw bytes and the terminating newline, so line-based
// parsing can resume immediately afterwards.
func (p *protoReader) readLine() (ResponseLine, error) {
	line, err := p.readRawLine()
	if err != nil {
		return ResponseLine{}, err
	}

	switch {
	case line == "OK" || line == "list_OK":
		return ResponseLine{Kind: KindOK}, nil
	case strings.HasPrefix(line, "ACK "):
		ack, err := parseAck(line)
		if err != nil {
			return ResponseLine{}, err
		}
		return ResponseLine{Kind: KindAck, Ack: ack}, nil
	}

	key, value, ok := strings.Cut(line, ": ")
	if !ok || key == "" {
		return ResponseLine{}, &ProtocolError{Line: line}
	}

	if key == "binary" {
		length, err := strconv.Atoi(value)
		if err != nil || length < 0 {
			return ResponseLine{}, &ProtocolError{Line: line}
		}
		data, err := p.readBinaryChunk(length)
		if err != nil {
			return ResponseLine{}, err
		}
		return ResponseLine{Kind: KindBinary, Key: key, Value: value, Data: data}, nil
	}

	return ResponseLine{Kind: KindKeyValue, Key: key, Value: value}, nil
}

// readBinaryChunk reads exactly length raw bytes plus the newline the
// server appends after binary data.
func (p *protoReader) readBinaryChunk(length int) ([]byte, error) {
	data := make([]byte, length)
	n, err := io.ReadFull(p.r, data)
	if err != nil {
		return nil, &TruncatedChunkError{Want: length, Got: n}
	}
	// trailing newline after the raw bytes
	if b, err := p.r.ReadByte(); err != nil {
		return nil, &TruncatedChunkError{Want: length + 1, Got: length}
	} else if b != '\n' {
		return nil, &ProtocolError{Line: string(b)}
	}
	return data, nil
}

func (p *protoReader) readRawLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// parseAck picks apart "ACK [code@index] {command} message". The command
// field may be empty; the message may contain any characters.
func parseAck(line string) (*Ack, error) {
	malformed := &ProtocolError{Line: line}

	rest, ok := strings.CutPrefix(line, "ACK [")
	if !ok {
		return nil, malformed
	}
	codes, rest, ok := strings.Cut(rest, "] {")
	if !ok {
		return nil, malformed
	}
	codeStr, indexStr, ok := strings.Cut(codes, "@")
	if !ok {
		return nil, malformed
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, malformed
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return nil, malformed
	}
	command, message, ok := strings.Cut(rest, "} ")
	if !ok {
		// "} " is absent when the message is empty
		command, ok = strings.CutSuffix(rest, "}")
		if !ok {
			return nil, malformed
		}
		message = ""
	}

	return &Ack{Code: code, Index: index, Command: command, Message: message}, nil
}
