/*
DESCRIPTION
  server.go implements Server: the accept loop that spawns one Handler
  per connection against a single shared Video Source, with graceful
  shutdown and optional systemd readiness/watchdog notification.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package server

import (
	"net"
	"sync"
	"time"

	"github.com/coreos/go-systemd/daemon"

	"github.com/ausocean/vtsource/internal/logging"
	"github.com/ausocean/vtsource/source"
)

// Server binds a listener and serves every accepted connection against
// one shared Video Source.
type Server struct {
	Name string // Announced in each connection's HELLO greeting.

	src *source.Source
	log logging.Logger

	mu       sync.Mutex
	ln       net.Listener
	wg       sync.WaitGroup
	stopping chan struct{}
}

// New returns a Server dispatching against src.
func New(src *source.Source, name string, log logging.Logger) *Server {
	return &Server{
		Name:     name,
		src:      src,
		log:      log,
		stopping: make(chan struct{}),
	}
}

// ListenAndServe binds addr (host:port) and serves connections until
// Shutdown is called or the listener otherwise fails. It blocks until
// the accept loop exits.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.notifySystemdReady()
	stopWatchdog := s.startSystemdWatchdog()
	defer stopWatchdog()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopping:
				s.wg.Wait()
				return nil
			default:
				return err
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			served := make(chan struct{})
			defer close(served)
			go func() {
				// On Shutdown, fail the connection's next read so its
				// Handler returns, closing the connection, once the
				// command in flight has been answered.
				select {
				case <-s.stopping:
					conn.SetReadDeadline(time.Now())
				case <-served:
				}
			}()
			h := NewHandler(conn, s.src, s.Name, s.log)
			h.Serve()
		}()
	}
}

// Shutdown stops accepting new connections, notifies systemd (if
// applicable) that the process is stopping, waits for in-flight
// connections to finish their current command and close, then releases
// the Video Source's decoder.
func (s *Server) Shutdown() error {
	close(s.stopping)

	daemon.SdNotify(false, daemon.SdNotifyStopping)

	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}

	s.wg.Wait()
	return s.src.Close()
}

// notifySystemdReady sends READY=1 if running under systemd with
// NOTIFY_SOCKET set. It is a no-op otherwise.
func (s *Server) notifySystemdReady() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		s.log.Debug("systemd notify failed", "error", err.Error())
		return
	}
	if sent {
		s.log.Info("sent systemd readiness notification")
	}
}

// startSystemdWatchdog starts a background goroutine sending WATCHDOG=1
// at half the interval systemd requested, if the watchdog is enabled. It
// returns a function that stops the goroutine; the returned function is
// always safe to call, even when the watchdog was never enabled.
func (s *Server) startSystemdWatchdog() (stop func()) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
