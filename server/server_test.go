/*
DESCRIPTION
  server_test.go exercises Server's real TCP accept loop and graceful
  shutdown, as opposed to handler_test.go's in-process net.Pipe
  scenarios.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/ausocean/vtsource/internal/logging"
	"github.com/ausocean/vtsource/source"
)

func TestServerAcceptsAndGreets(t *testing.T) {
	dec := &fakeDecoder{frameCount: 1, w: 4, h: 4}
	src := source.New(dec, fakeScaler{}, fakeLister{}, 4, logging.Nop{})
	srv := New(src, "test", logging.Nop{})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe("127.0.0.1:0") }()

	// ListenAndServe binds asynchronously; poll briefly for the listener.
	var addr net.Addr
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		srv.mu.Lock()
		if srv.ln != nil {
			addr = srv.ln.Addr()
		}
		srv.mu.Unlock()
		if addr != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if addr == nil {
		t.Fatal("server did not bind in time")
	}

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "OK HELLO test VTSource") {
		t.Errorf("greeting = %q, want prefix %q", line, "OK HELLO test VTSource")
	}

	// Close the client side so the handler's blocking read unblocks
	// before Shutdown waits for in-flight connections to finish.
	conn.Close()

	if err := srv.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("ListenAndServe returned error after Shutdown: %v", err)
	}
}
