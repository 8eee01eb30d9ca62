/*
DESCRIPTION
  vtsourced is the networked video-source daemon: it decodes video files
  and serves individual frames to remote clients over a stateful TCP
  protocol, producing fixed-geometry, fixed-colorspace frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vtsourced is the command-line launcher for the Video Source
// daemon: it parses flags, constructs the logger, decoder, scaler and
// Server, and drives graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ausocean/vtsource/internal/logging"
	"github.com/ausocean/vtsource/server"
	"github.com/ausocean/vtsource/source"
	"github.com/ausocean/vtsource/source/decoder"
	"github.com/ausocean/vtsource/source/dirlist"
	"github.com/ausocean/vtsource/source/scaler"
)

// Current software version, reported by -version. The HELLO greeting
// announces server.Version instead.
const version = "v1.0.0"

// Logging configuration.
const (
	logMaxSizeMB   = 100
	logMaxBackups  = 5
	logMaxAgeDays  = 28
	defaultLogPath = "/var/log/vtsourced/vtsourced.log"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		addr        = flag.String("addr", ":5400", "listen address, host:port")
		name        = flag.String("name", "", "server name announced in HELLO (default: hostname)")
		cacheCap    = flag.Int("cache", 0, "frame cache capacity (0 = default)")
		logPath     = flag.String("log", defaultLogPath, "log file path")
		logLevel    = flag.Int("log-level", int(logging.Info), "log level: 0=debug 1=info 2=warning 3=error 4=fatal")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	log := logging.NewFile(int8(*logLevel), *logPath, logMaxSizeMB, logMaxBackups, logMaxAgeDays)
	log.Info("starting vtsourced", "version", version, "addr", *addr)

	serverName := *name
	if serverName == "" {
		if h, err := os.Hostname(); err == nil {
			serverName = h
		} else {
			serverName = "vtsourced"
		}
	}

	dec := decoder.NewGocv()
	scl := scaler.NewGocv()
	lister := dirlist.New()
	defer lister.Close()

	src := source.New(dec, scl, lister, *cacheCap, log)
	defer src.Close()

	srv := server.New(src, serverName, log)

	go func() {
		if err := srv.ListenAndServe(*addr); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Fatal("listen failed", "error", err.Error())
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info("received signal, shutting down", "signal", s.String())

	if err := srv.Shutdown(); err != nil {
		log.Error("error during shutdown", "error", err.Error())
	}
	log.Info("vtsourced stopped")
}
