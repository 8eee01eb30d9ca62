/*
DESCRIPTION
  source_test.go tests Source against a fake Decoder and Scaler, so the
  suite runs without OpenCV or cgo.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package source

import (
	"errors"
	"os"
	"testing"

	"github.com/ausocean/vtsource/format"
	"github.com/ausocean/vtsource/internal/logging"
	"github.com/ausocean/vtsource/protocol"
	"github.com/ausocean/vtsource/source/decoder"
)

// fakeDecoder is a Decoder over an in-memory, fixed-size sequence of
// solid-colour frames, so tests can assert exact decoded indices and
// byte content without touching a real codec.
type fakeDecoder struct {
	opened     bool
	frameCount int
	w, h       int
	pos        int // Next frame index Decode will report.
	openErr    error
}

func newFakeDecoder(frameCount, w, h int) *fakeDecoder {
	return &fakeDecoder{frameCount: frameCount, w: w, h: h}
}

func (d *fakeDecoder) Open(path string) (decoder.Info, error) {
	if d.openErr != nil {
		return decoder.Info{}, d.openErr
	}
	d.opened = true
	d.pos = 0
	return decoder.Info{
		FrameCount: d.frameCount,
		Width:      d.w,
		Height:     d.h,
		FPSNum:     30,
		FPSDen:     1,
		Codec:      "fake",
	}, nil
}

func (d *fakeDecoder) Close() error {
	d.opened = false
	return nil
}

func (d *fakeDecoder) SeekNear(frame int) error {
	if !d.opened {
		return errors.New("not open")
	}
	d.pos = frame
	return nil
}

func (d *fakeDecoder) Decode() ([]byte, int, int, int, error) {
	if !d.opened {
		return nil, 0, 0, 0, errors.New("not open")
	}
	if d.pos >= d.frameCount {
		return nil, 0, 0, 0, errors.New("eof")
	}
	idx := d.pos
	d.pos++
	rgb := make([]byte, d.w*d.h*3)
	for i := range rgb {
		rgb[i] = byte(idx)
	}
	return rgb, d.w, d.h, idx, nil
}

// fakeScaler returns its input unchanged when src/dst geometry matches,
// and a correctly sized zeroed buffer otherwise (sufficient for
// exercising the resize call path without real image math).
type fakeScaler struct{ calls int }

func (s *fakeScaler) Resize(src []byte, wSrc, hSrc, wDst, hDst int) ([]byte, error) {
	s.calls++
	if wSrc == wDst && hSrc == hDst {
		return src, nil
	}
	return make([]byte, wDst*hDst*3), nil
}

// fakeLister returns a fixed listing regardless of directory.
type fakeLister struct {
	names []string
	err   error
}

func (l *fakeLister) List(dir string) ([]string, error) { return l.names, l.err }

func newTestSource(frameCount int) (*Source, *fakeDecoder) {
	dec := newFakeDecoder(frameCount, 720, 486)
	s := New(dec, &fakeScaler{}, &fakeLister{names: []string{"a.mp4"}}, 8, logging.Nop{})
	return s, dec
}

func errCode(t *testing.T, err error) protocol.Code {
	t.Helper()
	pe, ok := err.(*protocol.Error)
	if !ok {
		t.Fatalf("error %v is not *protocol.Error", err)
	}
	return pe.Code
}

func TestGetFrameWithoutLoadFails(t *testing.T) {
	s, _ := newTestSource(10)
	if _, err := s.GetFrame(nil); err == nil || errCode(t, err) != protocol.CodeNotLoaded {
		t.Fatalf("GetFrame before Load: got %v, want NotLoaded", err)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	s, dec := newTestSource(10)
	dec.openErr = errors.New("unused")
	if _, err := s.Load("/no/such/file.mp4"); err == nil || errCode(t, err) != protocol.CodeFileNotFound {
		t.Fatalf("Load missing file: got %v, want FileNotFound", err)
	}
}

func TestLoadAndGetFrame(t *testing.T) {
	s, _ := newTestSource(10)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)

	info, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.FrameCount != 10 {
		t.Fatalf("FrameCount = %d, want 10", info.FrameCount)
	}

	buf, err := s.GetFrame(nil)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if buf.Sequence != 0 {
		t.Errorf("Sequence = %d, want 0", buf.Sequence)
	}
	wantLen, _ := format.BytesPerFrame(format.NTSC, format.RGB24)
	if len(buf.Payload) != wantLen {
		t.Errorf("Payload length = %d, want %d", len(buf.Payload), wantLen)
	}
}

func TestFrameInfoMatchesWorkedExample(t *testing.T) {
	s, _ := newTestSource(300)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	first := 0
	hdr, err := s.FrameInfo(&first)
	if err != nil {
		t.Fatalf("FrameInfo(0): %v", err)
	}
	if hdr.Sequence != 0 || hdr.TimestampMs != 0 || hdr.Width != 720 || hdr.Height != 486 ||
		hdr.Colorspace != 0 || hdr.Flags != 1 {
		t.Errorf("FrameInfo(0) = %+v, want {0 0 720 486 0 1}", hdr)
	}

	last := 299
	hdr, err = s.FrameInfo(&last)
	if err != nil {
		t.Fatalf("FrameInfo(299): %v", err)
	}
	if hdr.Sequence != 299 || hdr.TimestampMs != 9966 || hdr.Flags != 8 {
		t.Errorf("FrameInfo(299) = %+v, want Sequence=299 TimestampMs=9966 Flags=8", hdr)
	}
}

func TestGetFrameCachesResult(t *testing.T) {
	s, dec := newTestSource(10)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	key := 3
	if _, err := s.GetFrame(&key); err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	// Park the decoder away from key+1, where a re-decode would leave it,
	// so that any decode is visible as a change of pos.
	dec.pos = 0
	posAfterFirst := dec.pos

	if _, err := s.GetFrame(&key); err != nil {
		t.Fatalf("GetFrame (cached): %v", err)
	}
	if dec.pos != posAfterFirst {
		t.Errorf("decoder advanced on a cache hit: pos went from %d to %d", posAfterFirst, dec.pos)
	}
}

func TestGetFrameOutOfRangeWithoutLoop(t *testing.T) {
	s, _ := newTestSource(5)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	key := 5
	if _, err := s.GetFrame(&key); err == nil || errCode(t, err) != protocol.CodeInvalidArgument {
		t.Fatalf("GetFrame(5) on 5-frame clip: got %v, want InvalidArgument", err)
	}
}

func TestGetFrameOutOfRangeWithLoopWraps(t *testing.T) {
	s, _ := newTestSource(5)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.SetLoop(true)

	key := 5
	buf, err := s.GetFrame(&key)
	if err != nil {
		t.Fatalf("GetFrame(5) with loop on: %v", err)
	}
	if buf.Sequence != 0 {
		t.Errorf("Sequence = %d, want 0 (5 mod 5)", buf.Sequence)
	}
}

func TestNextAdvancesAndReportsEnd(t *testing.T) {
	s, _ := newTestSource(3)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := 1; i < 3; i++ {
		adv, err := s.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if adv.Frame != i || adv.Marker != "" {
			t.Fatalf("Next() = %+v, want Frame=%d", adv, i)
		}
	}

	adv, err := s.Next()
	if err != nil {
		t.Fatalf("Next at end: %v", err)
	}
	if adv.Marker != "END" {
		t.Fatalf("Next() at last frame = %+v, want END marker", adv)
	}
	_, cur, _ := s.Status()
	if cur != 2 {
		t.Errorf("CurrentFrame after END = %d, want unchanged 2", cur)
	}
}

func TestNextWrapsWithLoop(t *testing.T) {
	s, _ := newTestSource(3)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.SetLoop(true)

	s.Seek(2)
	adv, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if adv.Frame != 0 {
		t.Fatalf("Next() at end with loop = %+v, want Frame=0", adv)
	}
}

func TestPrevReportsStart(t *testing.T) {
	s, _ := newTestSource(3)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	adv, err := s.Prev()
	if err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if adv.Marker != "START" {
		t.Fatalf("Prev() at frame 0 = %+v, want START marker", adv)
	}
}

func TestPlaybackStateTransitions(t *testing.T) {
	s, _ := newTestSource(3)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if st, err := s.Play(); err != nil || st != Playing {
		t.Fatalf("Play() = %v, %v, want Playing, nil", st, err)
	}
	if st, err := s.Pause(); err != nil || st != Paused {
		t.Fatalf("Pause() = %v, %v, want Paused, nil", st, err)
	}
	if st, err := s.Stop(); err != nil || st != Stopped {
		t.Fatalf("Stop() = %v, %v, want Stopped, nil", st, err)
	}
	_, cur, _ := s.Status()
	if cur != 0 {
		t.Errorf("CurrentFrame after Stop = %d, want 0", cur)
	}
}

func TestSetFormatClearsCache(t *testing.T) {
	s, dec := newTestSource(5)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	key := 1
	if _, err := s.GetFrame(&key); err != nil {
		t.Fatalf("GetFrame: %v", err)
	}

	if err := s.SetFormat(format.NTSC, format.YUV420P); err != nil {
		t.Fatalf("SetFormat: %v", err)
	}

	// A re-decode of key leaves pos at key+1, the same place the first
	// decode left it, so park the decoder elsewhere to make it visible.
	dec.pos = 0
	posBefore := dec.pos

	if _, err := s.GetFrame(&key); err != nil {
		t.Fatalf("GetFrame after SetFormat: %v", err)
	}
	if dec.pos == posBefore {
		t.Error("expected a re-decode after SetFormat cleared the cache")
	}
}

func TestListDelegatesToLister(t *testing.T) {
	s, _ := newTestSource(1)
	names, err := s.List("/some/dir")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "a.mp4" {
		t.Errorf("List = %v, want [a.mp4]", names)
	}
}

func TestReloadResetsState(t *testing.T) {
	s, _ := newTestSource(5)
	path := t.TempDir() + "/clip.mp4"
	writeEmpty(t, path)
	if _, err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Seek(3)
	s.Play()

	if _, err := s.Load(path); err != nil {
		t.Fatalf("reload Load: %v", err)
	}
	state, cur, _ := s.Status()
	if state != Stopped || cur != 0 {
		t.Errorf("after reload: state=%v cur=%d, want Stopped, 0", state, cur)
	}
}

func writeEmpty(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}
