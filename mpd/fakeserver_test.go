// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeServer speaks just enough of the wire protocol for tests: a greeting
// on connect, then one scripted response per received command line. A nil
// response from the handler closes the connection, simulating a dying
// server mid-command.
type fakeServer struct {
	t       *testing.T
	ln      net.Listener
	handler func(cmd string) []byte

	mu    sync.Mutex
	conns []net.Conn
	cmds  []string

	wg sync.WaitGroup
}

func startFakeServer(t *testing.T, greeting string, handler func(cmd string) []byte) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{t: t, ln: ln, handler: handler}
	s.wg.Add(1)
	go s.serve(greeting)
	t.Cleanup(s.Close)
	return s
}

func (s *fakeServer) serve(greeting string) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			if _, err := conn.Write([]byte(greeting)); err != nil {
				return
			}
			r := bufio.NewReader(conn)
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				cmd := strings.TrimSuffix(line, "\n")
				s.mu.Lock()
				s.cmds = append(s.cmds, cmd)
				s.mu.Unlock()

				resp := s.handler(cmd)
				if resp == nil {
					return
				}
				if _, err := conn.Write(resp); err != nil {
					return
				}
			}
		}()
	}
}

func (s *fakeServer) HostPort() (string, int) {
	s.t.Helper()
	host, portStr, err := net.SplitHostPort(s.ln.Addr().String())
	if err != nil {
		s.t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		s.t.Fatalf("parse port: %v", err)
	}
	return host, port
}

// Commands returns every command line received so far, in order.
func (s *fakeServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cmds...)
}

func (s *fakeServer) Close() {
	s.ln.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
