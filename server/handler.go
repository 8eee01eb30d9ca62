/*
DESCRIPTION
  handler.go implements Handler, the per-connection protocol state
  machine: it reads command lines, dispatches them against the shared
  Video Source, and writes the text (and, for GETFRAME, binary-framed)
  response.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package server implements the per-connection protocol Handler and the
// Server accept loop that shares one Video Source across every
// connection.
package server

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ausocean/vtsource/format"
	"github.com/ausocean/vtsource/internal/logging"
	"github.com/ausocean/vtsource/protocol"
	"github.com/ausocean/vtsource/source"
)

// Version is the protocol version reported in the HELLO greeting.
const Version = "1.0"

// Handler serves one connection: it owns no state of its own beyond the
// connection and references to the process-wide Video Source and the
// server identity announced in HELLO.
type Handler struct {
	conn net.Conn
	src  *source.Source
	log  logging.Logger
	name string
}

// NewHandler returns a Handler for conn, dispatching against src and
// announcing name in its HELLO greeting.
func NewHandler(conn net.Conn, src *source.Source, name string, log logging.Logger) *Handler {
	return &Handler{conn: conn, src: src, log: log, name: name}
}

// Serve greets the connection, then reads and dispatches command lines
// until BYE, EOF, or an unrecoverable write failure. Serve always closes
// the connection before returning.
func (h *Handler) Serve() {
	defer h.conn.Close()

	w := bufio.NewWriter(h.conn)
	if err := h.writeLine(w, fmt.Sprintf("OK HELLO %s VTSource %s", h.name, Version)); err != nil {
		return
	}

	r := bufio.NewReader(h.conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		cmd, perr := protocol.Parse(line)
		if perr != nil {
			if err := h.writeError(w, perr.(*protocol.Error)); err != nil {
				return
			}
			continue
		}

		h.log.Debug("dispatching command", "remote", h.conn.RemoteAddr().String(), "verb", cmd.Verb)

		bye, err := h.dispatch(w, cmd)
		if err != nil {
			return
		}
		if bye {
			return
		}
	}
}

// dispatch handles one parsed command, writing its response to w. It
// returns bye=true once a BYE has been handled, signalling Serve to
// close the connection. The returned error is only ever a write
// failure; command-level failures are written as an ERROR line and
// reported via a nil error.
func (h *Handler) dispatch(w *bufio.Writer, cmd protocol.Command) (bye bool, err error) {
	switch cmd.Verb {
	case "BYE":
		if werr := h.writeLine(w, "OK BYE"); werr != nil {
			return false, werr
		}
		return true, nil

	case "LIST":
		return false, h.handleList(w, cmd)

	case "LOAD":
		return false, h.handleLoad(w, cmd)

	case "SOURCE":
		return false, h.handleSource(w)

	case "PLAY":
		return false, h.handlePlayback(w, h.src.Play, "PLAYING")

	case "PAUSE":
		return false, h.handlePlayback(w, h.src.Pause, "PAUSED")

	case "STOP":
		return false, h.handlePlayback(w, h.src.Stop, "STOPPED")

	case "SEEK":
		return false, h.handleSeek(w, cmd)

	case "NEXT":
		return false, h.handleAdvance(w, h.src.Next)

	case "PREV":
		return false, h.handleAdvance(w, h.src.Prev)

	case "GETFRAME":
		return false, h.handleGetFrame(w, cmd)

	case "FRAMEINFO":
		return false, h.handleFrameInfo(w, cmd)

	case "FORMAT":
		return false, h.handleFormat(w, cmd)

	case "LOOP":
		return false, h.handleLoop(w, cmd)

	case "STATUS":
		return false, h.handleStatus(w)

	case "INFO":
		return false, h.handleInfo(w)

	default:
		return false, h.writeError(w, protocol.UnknownCommand(cmd.Verb))
	}
}

func (h *Handler) handleList(w *bufio.Writer, cmd protocol.Command) error {
	var dir string
	if len(cmd.Args) > 0 {
		dir = cmd.Args[0]
	}
	names, perr := h.src.List(dir)
	if perr != nil {
		return h.writeError(w, perr.(*protocol.Error))
	}
	if err := h.writeLine(w, fmt.Sprintf("OK LIST %d", len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := h.writeLine(w, name); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) handleLoad(w *bufio.Writer, cmd protocol.Command) error {
	if len(cmd.Args) != 1 {
		return h.writeError(w, protocol.InvalidArgument("LOAD requires exactly one path argument"))
	}
	info, perr := h.src.Load(cmd.Args[0])
	if perr != nil {
		pe := perr.(*protocol.Error)
		h.log.Debug("load failed", "path", cmd.Args[0], "code", pe.Code)
		return h.writeError(w, pe)
	}
	return h.writeLine(w, fmt.Sprintf("OK LOADED %d frames", info.FrameCount))
}

func (h *Handler) handleSource(w *bufio.Writer) error {
	info, ok := h.src.SourceInfo()
	if !ok {
		return h.writeLine(w, "OK SOURCE NONE")
	}
	fps := float64(info.FPSNum) / float64(info.FPSDen)
	return h.writeLine(w, fmt.Sprintf("OK SOURCE %q %d %dx%d %.3f %s",
		info.Path, info.FrameCount, info.Width, info.Height, fps, info.Codec))
}

func (h *Handler) handlePlayback(w *bufio.Writer, op func() (source.PlaybackState, error), okWord string) error {
	_, err := op()
	if err != nil {
		return h.writeError(w, err.(*protocol.Error))
	}
	return h.writeLine(w, "OK "+okWord)
}

func (h *Handler) handleSeek(w *bufio.Writer, cmd protocol.Command) error {
	if len(cmd.Args) != 1 {
		return h.writeError(w, protocol.InvalidArgument("SEEK requires exactly one frame argument"))
	}
	key, convErr := strconv.Atoi(cmd.Args[0])
	if convErr != nil {
		return h.writeError(w, protocol.InvalidArgument("SEEK argument must be an integer"))
	}
	k, err := h.src.Seek(key)
	if err != nil {
		return h.writeError(w, err.(*protocol.Error))
	}
	return h.writeLine(w, fmt.Sprintf("OK SEEKED %d", k))
}

func (h *Handler) handleAdvance(w *bufio.Writer, op func() (source.Advance, error)) error {
	adv, err := op()
	if err != nil {
		return h.writeError(w, err.(*protocol.Error))
	}
	if adv.Marker != "" {
		return h.writeLine(w, "OK "+adv.Marker)
	}
	return h.writeLine(w, fmt.Sprintf("OK FRAME %d", adv.Frame))
}

// handleGetFrame writes the text response line followed by the 16-byte
// binary header and payload, with no intervening newline, all via the
// same buffered writer. The line and header are coalesced with the start
// of the payload in the writer's buffer; a payload larger than the
// buffer's free space reaches the connection in more than one write.
func (h *Handler) handleGetFrame(w *bufio.Writer, cmd protocol.Command) error {
	key, perr := parseOptionalFrame(cmd)
	if perr != nil {
		return h.writeError(w, perr)
	}
	buf, err := h.src.GetFrame(key)
	if err != nil {
		return h.writeError(w, err.(*protocol.Error))
	}

	if err := h.writeLineNoFlush(w, fmt.Sprintf("OK FRAMEDATA %d", len(buf.Payload))); err != nil {
		return err
	}
	if _, err := w.Write(buf.Header().Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(buf.Payload); err != nil {
		return err
	}
	return w.Flush()
}

func (h *Handler) handleFrameInfo(w *bufio.Writer, cmd protocol.Command) error {
	key, perr := parseOptionalFrame(cmd)
	if perr != nil {
		return h.writeError(w, perr)
	}
	hdr, err := h.src.FrameInfo(key)
	if err != nil {
		return h.writeError(w, err.(*protocol.Error))
	}
	return h.writeLine(w, fmt.Sprintf("OK FRAMEINFO %d %d %d %d %d %d",
		hdr.Sequence, hdr.TimestampMs, hdr.Width, hdr.Height, hdr.Colorspace, hdr.Flags))
}

func (h *Handler) handleFormat(w *bufio.Writer, cmd protocol.Command) error {
	if len(cmd.Args) == 0 {
		f := h.src.Format()
		return h.writeLine(w, fmt.Sprintf("OK FORMAT %s %s", f.Standard, f.Colorspace))
	}
	if len(cmd.Args) != 2 {
		return h.writeError(w, protocol.InvalidArgument("FORMAT requires both a standard and a colorspace, or neither"))
	}
	std, stdErr := format.ParseStandard(cmd.Args[0])
	if stdErr != nil {
		return h.writeError(w, protocol.InvalidArgument(stdErr.Error()))
	}
	cs, csErr := format.ParseColorspace(cmd.Args[1])
	if csErr != nil {
		return h.writeError(w, protocol.InvalidArgument(csErr.Error()))
	}
	if err := h.src.SetFormat(std, cs); err != nil {
		return h.writeError(w, err.(*protocol.Error))
	}
	return h.writeLine(w, fmt.Sprintf("OK FORMAT %s %s", std, cs))
}

func (h *Handler) handleLoop(w *bufio.Writer, cmd protocol.Command) error {
	if len(cmd.Args) == 0 {
		if h.src.Loop() {
			return h.writeLine(w, "OK LOOP ON")
		}
		return h.writeLine(w, "OK LOOP OFF")
	}
	if len(cmd.Args) != 1 {
		return h.writeError(w, protocol.InvalidArgument("LOOP takes at most one argument"))
	}
	switch strings.ToLower(cmd.Args[0]) {
	case "on":
		h.src.SetLoop(true)
		return h.writeLine(w, "OK LOOP ON")
	case "off":
		h.src.SetLoop(false)
		return h.writeLine(w, "OK LOOP OFF")
	default:
		return h.writeError(w, protocol.InvalidArgument("LOOP argument must be on or off"))
	}
}

func (h *Handler) handleStatus(w *bufio.Writer) error {
	state, cur, total := h.src.Status()
	return h.writeLine(w, fmt.Sprintf("OK STATUS %s %d %d", state, cur, total))
}

func (h *Handler) handleInfo(w *bufio.Writer) error {
	info, ok := h.src.SourceInfo()
	if !ok {
		return h.writeError(w, protocol.NotLoaded())
	}
	fps := float64(info.FPSNum) / float64(info.FPSDen)
	duration := float64(info.FrameCount) / fps
	return h.writeLine(w, fmt.Sprintf("OK INFO %dx%d %.3ffps %s %d frames %.3fs",
		info.Width, info.Height, fps, info.Codec, info.FrameCount, duration))
}

// parseOptionalFrame parses GETFRAME/FRAMEINFO's optional leading frame
// argument, returning a nil *int when absent.
func parseOptionalFrame(cmd protocol.Command) (*int, *protocol.Error) {
	if len(cmd.Args) == 0 {
		return nil, nil
	}
	if len(cmd.Args) != 1 {
		return nil, protocol.InvalidArgument(cmd.Verb + " takes at most one frame argument")
	}
	key, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, protocol.InvalidArgument(cmd.Verb + " argument must be an integer")
	}
	return &key, nil
}

func (h *Handler) writeLine(w *bufio.Writer, line string) error {
	if err := h.writeLineNoFlush(w, line); err != nil {
		return err
	}
	return w.Flush()
}

// writeLineNoFlush buffers line+"\n" without flushing, so callers can
// coalesce it with subsequent writes (e.g. GETFRAME's header and
// payload) into a single flush.
func (h *Handler) writeLineNoFlush(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func (h *Handler) writeError(w *bufio.Writer, e *protocol.Error) error {
	if e.Code == protocol.CodeInternalError {
		h.log.Debug("internal error response", "remote", h.conn.RemoteAddr().String(), "message", e.Msg)
	}
	return h.writeLine(w, fmt.Sprintf("ERROR %d %s", e.Code, e.Msg))
}
