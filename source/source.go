/*
DESCRIPTION
  source.go implements Source, the Video Source: the process-wide owner
  of the decoder and all mutable playback state, shared by every
  connected client.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package source implements Source, the single shared Video Source: it
// owns the decoder and scaler, all playback state, and the frame cache,
// serializing access the way device/webcam and device/file in this
// codebase's lineage serialize access to a single capture device.
package source

import (
	"os"
	"sync"

	perrors "github.com/pkg/errors"

	"github.com/ausocean/vtsource/cache"
	"github.com/ausocean/vtsource/colorspace"
	"github.com/ausocean/vtsource/format"
	"github.com/ausocean/vtsource/frame"
	"github.com/ausocean/vtsource/internal/logging"
	"github.com/ausocean/vtsource/protocol"
	"github.com/ausocean/vtsource/source/decoder"
	"github.com/ausocean/vtsource/source/scaler"
)

// The recognised video file extensions for directory listings are
// defined in source/dirlist, which implements the listing.

// PlaybackState is the advisory playback state of a Source.
type PlaybackState int

// Playback states, per spec §3.
const (
	Stopped PlaybackState = iota
	Playing
	Paused
)

// String implements fmt.Stringer.
func (s PlaybackState) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Info describes the currently loaded source file.
type Info struct {
	Path       string
	FrameCount int
	Width      int
	Height     int
	FPSNum     int64
	FPSDen     int64
	Codec      string
}

// Advance is the result of Next/Prev: either a new CurrentFrame, or a
// boundary marker (spec §4.3).
type Advance struct {
	Frame  int
	Marker string // "", "END" or "START".
}

// Lister lists recognised video files in a directory. source/dirlist
// implements this.
type Lister interface {
	List(dir string) ([]string, error)
}

// Source is the process-wide Video Source: one decoder, one scaler, one
// frame cache and all mutable playback state, shared by every connected
// client. All mutating operations serialize under mu; FrameInfo and
// Status may take the read lock, per spec §5's read-heavy allowance.
type Source struct {
	mu sync.RWMutex

	dec    decoder.Decoder
	scl    scaler.Scaler
	lister Lister
	cache  *cache.Cache
	log    logging.Logger

	format format.OutputFormat
	info   *Info
	state  PlaybackState
	loop   bool
	frame  int // CurrentFrame.
}

// New returns a new Source. dec and scl must be non-nil; lister may be
// nil, in which case List always fails with an InternalError (see List).
func New(dec decoder.Decoder, scl scaler.Scaler, lister Lister, cacheCapacity int, log logging.Logger) *Source {
	return &Source{
		dec:    dec,
		scl:    scl,
		lister: lister,
		cache:  cache.New(cacheCapacity),
		log:    log,
		format: format.Default(),
		state:  Stopped,
	}
}

// Load opens path, replacing any previously loaded source. It always
// resets CurrentFrame to 0, clears the cache and sets PlaybackState to
// Stopped, even if path is the file already loaded.
func (s *Source) Load(path string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			s.info = nil
			return Info{}, protocol.FileNotFound(path)
		}
		s.info = nil
		s.logInternal("stat failed", err)
		return Info{}, protocol.Internal("could not access file")
	}

	if err := s.dec.Close(); err != nil {
		s.log.Debug("error closing previous decoder", "error", err.Error())
	}

	di, err := s.dec.Open(path)
	if err != nil {
		s.info = nil
		s.logInternal("decoder open failed", err)
		return Info{}, protocol.Internal("could not open source")
	}

	info := Info{
		Path:       path,
		FrameCount: di.FrameCount,
		Width:      di.Width,
		Height:     di.Height,
		FPSNum:     di.FPSNum,
		FPSDen:     di.FPSDen,
		Codec:      di.Codec,
	}
	s.info = &info
	s.frame = 0
	s.state = Stopped
	s.cache.Clear()

	return info, nil
}

// List returns the recognised video file names in dir, non-recursive,
// case-insensitively sorted. An empty dir defaults to the server
// process's current working directory (spec §9 Open Question). List
// performs no state change on the Source.
func (s *Source) List(dir string) ([]string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			s.logInternal("getwd failed", err)
			return nil, protocol.Internal("could not determine default listing directory")
		}
		dir = wd
	}

	if s.lister == nil {
		return nil, protocol.Internal("no directory lister configured")
	}

	names, err := s.lister.List(dir)
	if err != nil {
		s.logInternal("list failed", err)
		return nil, protocol.Internal("could not list directory")
	}
	return names, nil
}

// SourceInfo returns the currently loaded source's info, or ok=false if
// no source is loaded.
func (s *Source) SourceInfo() (Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return Info{}, false
	}
	return *s.info, true
}

// resolveKey validates an explicit frame key against the loaded source,
// wrapping per LoopMode. Caller must hold mu (read or write).
func (s *Source) resolveKey(key int) (int, error) {
	if s.info == nil {
		return 0, protocol.NotLoaded()
	}
	n := s.info.FrameCount
	if n <= 0 {
		n = 1
	}
	if key < 0 || key >= n {
		if !s.loop {
			return 0, protocol.InvalidArgument("frame index out of range")
		}
		key = ((key % n) + n) % n
	}
	return key, nil
}

// GetFrame decodes (or retrieves from cache) the frame at key. If key is
// nil, CurrentFrame is used. On success, CurrentFrame becomes key.
func (s *Source) GetFrame(key *int) (frame.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return frame.Buffer{}, protocol.NotLoaded()
	}

	k := s.frame
	if key != nil {
		var err error
		k, err = s.resolveKey(*key)
		if err != nil {
			return frame.Buffer{}, err
		}
	}

	if cached, ok := s.cache.Get(k); ok {
		s.frame = k
		return cached, nil
	}

	buf, err := s.decodeFrame(k)
	if err != nil {
		return frame.Buffer{}, err
	}

	s.cache.Put(k, buf)
	s.frame = k
	return buf, nil
}

// FrameInfo returns the header metadata for the frame at key without
// necessarily returning its payload. If key is nil, CurrentFrame is
// used. FrameInfo may decode and cache the frame as a side effect, but
// this is not required.
func (s *Source) FrameInfo(key *int) (frame.Header, error) {
	buf, err := s.GetFrame(key)
	if err != nil {
		return frame.Header{}, err
	}
	return buf.Header(), nil
}

// maxSeekDiscard bounds the seek-decode discard loop so a misbehaving
// decoder cannot hang a connection forever.
const maxSeekDiscard = 1 << 20

// decodeFrame seeks to the keyframe nearest key and decodes forward,
// discarding frames until the decoded index matches key, then scales
// and colorspace-converts the result to the current OutputFormat.
// Caller must hold the write lock.
func (s *Source) decodeFrame(key int) (frame.Buffer, error) {
	if err := s.dec.SeekNear(key); err != nil {
		s.logInternal("seek failed", err)
		return frame.Buffer{}, protocol.Internal("could not seek")
	}

	var rgb []byte
	var w, h int
	ok := false
	for i := 0; i < maxSeekDiscard; i++ {
		var idx int
		var err error
		rgb, w, h, idx, err = s.dec.Decode()
		if err != nil {
			s.logInternal("decode failed", err)
			return frame.Buffer{}, protocol.Internal("could not decode frame")
		}
		if idx == key {
			ok = true
			break
		}
		if idx > key {
			break
		}
	}
	if !ok {
		s.logInternal("decoder desync", perrors.Errorf("expected frame %d, decoder could not land on it", key))
		return frame.Buffer{}, protocol.Internal("decoder could not reach requested frame")
	}

	outW, outH, err := s.format.Geometry()
	if err != nil {
		s.logInternal("bad output geometry", err)
		return frame.Buffer{}, protocol.Internal("invalid output format")
	}

	if w != outW || h != outH {
		rgb, err = s.scl.Resize(rgb, w, h, outW, outH)
		if err != nil {
			s.logInternal("scale failed", err)
			return frame.Buffer{}, protocol.Internal("could not scale frame")
		}
	}

	payload, err := colorspace.Convert(rgb, outW, outH, s.format.Colorspace)
	if err != nil {
		s.logInternal("convert failed", err)
		return frame.Buffer{}, protocol.Internal("could not convert frame")
	}

	// Timestamps are derived from the loaded source's own native frame
	// rate, not the output Standard's fixed rate: OutputFormat governs
	// geometry and colorspace only, while presentation time reflects the
	// actual footage being played out.
	tsMs := uint32(int64(key) * 1000 * s.info.FPSDen / s.info.FPSNum)

	var flags uint8
	if key == 0 {
		flags |= frame.FlagKeyframe
	}
	if key == s.info.FrameCount-1 {
		flags |= frame.FlagEndOfStream
	}

	return frame.Buffer{
		Sequence:    uint32(key),
		TimestampMs: tsMs,
		Width:       outW,
		Height:      outH,
		Colorspace:  s.format.Colorspace.WireCode(),
		Flags:       flags,
		Payload:     payload,
	}, nil
}

// Seek validates and updates CurrentFrame to key without forcing a
// decode.
func (s *Source) Seek(key int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, err := s.resolveKey(key)
	if err != nil {
		return 0, err
	}
	s.frame = k
	return k, nil
}

// Next advances CurrentFrame by one, wrapping to 0 at the end when
// LoopMode is on, or returning an END marker without advancing when it
// is off.
func (s *Source) Next() (Advance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return Advance{}, protocol.NotLoaded()
	}
	n := s.info.FrameCount

	if s.frame+1 >= n {
		if !s.loop {
			return Advance{Marker: "END"}, nil
		}
		s.frame = 0
		return Advance{Frame: s.frame}, nil
	}
	s.frame++
	return Advance{Frame: s.frame}, nil
}

// Prev retreats CurrentFrame by one, wrapping to frame_count-1 at the
// start when LoopMode is on, or returning a START marker without
// retreating when it is off.
func (s *Source) Prev() (Advance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return Advance{}, protocol.NotLoaded()
	}

	if s.frame-1 < 0 {
		if !s.loop {
			return Advance{Marker: "START"}, nil
		}
		s.frame = s.info.FrameCount - 1
		return Advance{Frame: s.frame}, nil
	}
	s.frame--
	return Advance{Frame: s.frame}, nil
}

// Play transitions PlaybackState to Playing. PlaybackState is purely
// advisory; the daemon never auto-advances CurrentFrame (spec §9 Open
// Question).
func (s *Source) Play() (PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return 0, protocol.NotLoaded()
	}
	s.state = Playing
	return s.state, nil
}

// Pause transitions PlaybackState to Paused.
func (s *Source) Pause() (PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return 0, protocol.NotLoaded()
	}
	s.state = Paused
	return s.state, nil
}

// Stop transitions PlaybackState to Stopped and resets CurrentFrame to 0.
func (s *Source) Stop() (PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return 0, protocol.NotLoaded()
	}
	s.state = Stopped
	s.frame = 0
	return s.state, nil
}

// SetFormat atomically updates OutputFormat and flushes the cache.
func (s *Source) SetFormat(std format.Standard, cs format.Colorspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := format.Geometry(std); err != nil {
		return protocol.InvalidArgument("unknown standard")
	}
	if _, err := format.BytesPerFrame(std, cs); err != nil {
		return protocol.InvalidArgument("unknown colorspace")
	}

	s.format = format.OutputFormat{Standard: std, Colorspace: cs}
	s.cache.Clear()
	return nil
}

// Format returns the current OutputFormat.
func (s *Source) Format() format.OutputFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// SetLoop sets LoopMode.
func (s *Source) SetLoop(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = on
}

// Loop returns the current LoopMode.
func (s *Source) Loop() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loop
}

// Status returns the current PlaybackState, CurrentFrame and the total
// frame count of the loaded source (0 if none is loaded).
func (s *Source) Status() (PlaybackState, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	if s.info != nil {
		total = s.info.FrameCount
	}
	return s.state, s.frame, total
}

// Close releases the decoder. Close is idempotent.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = nil
	s.state = Stopped
	s.cache.Clear()
	return s.dec.Close()
}

// logInternal logs the original cause of an InternalError at debug
// level, per spec §7's propagation policy: clients receive only the
// category and a short message, never the underlying cause.
func (s *Source) logInternal(msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Debug(msg, "error", err.Error())
}
