//go:build withcv
// +build withcv

/*
DESCRIPTION
  gocv_decoder.go implements Decoder using gocv.VideoCapture.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decoder

import (
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// GocvDecoder is a Decoder backed by gocv.VideoCapture. Each method
// holds an internal mutex for its duration; the Video Source additionally
// serializes its own access under its own mutex.
type GocvDecoder struct {
	mu  sync.Mutex
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// NewGocv returns a new, unopened GocvDecoder.
func NewGocv() *GocvDecoder {
	return &GocvDecoder{mat: gocv.NewMat()}
}

// Open implements Decoder.
func (d *GocvDecoder) Open(path string) (Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc != nil {
		d.vc.Close()
		d.vc = nil
	}

	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return Info{}, errors.Wrapf(err, "could not open %s", path)
	}
	d.vc = vc

	frameCount := int(vc.Get(gocv.VideoCaptureFrameCount))
	w := int(vc.Get(gocv.VideoCaptureFrameWidth))
	h := int(vc.Get(gocv.VideoCaptureFrameHeight))
	fps := vc.Get(gocv.VideoCaptureFPS)

	num, den := rationalizeFPS(fps)

	return Info{
		FrameCount: frameCount,
		Width:      w,
		Height:     h,
		FPSNum:     num,
		FPSDen:     den,
		Codec:      fourCCName(vc.Get(gocv.VideoCaptureFOURCC)),
	}, nil
}

// Close implements Decoder. Close is idempotent.
func (d *GocvDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil
	}
	err := d.vc.Close()
	d.vc = nil
	return err
}

// SeekNear implements Decoder by setting the capture's frame position.
// Most container/codec combinations gocv supports will themselves seek
// to the nearest preceding keyframe and report the landed position via
// VideoCapturePosFrames, which Decode uses to compute its returned index.
func (d *GocvDecoder) SeekNear(frame int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return errors.New("decoder: not open")
	}
	if frame < 0 {
		frame = 0
	}
	d.vc.Set(gocv.VideoCapturePosFrames, float64(frame))
	return nil
}

// Decode implements Decoder.
func (d *GocvDecoder) Decode() (rgb []byte, width, height, index int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil, 0, 0, 0, errors.New("decoder: not open")
	}

	if ok := d.vc.Read(&d.mat); !ok {
		return nil, 0, 0, 0, errors.New("decoder: could not read frame")
	}
	if d.mat.Empty() {
		return nil, 0, 0, 0, errors.New("decoder: decoded frame is empty")
	}

	// gocv.VideoCapture yields frames in BGR order; the rest of this
	// module works in RGB24.
	gocv.CvtColor(d.mat, &d.mat, gocv.ColorBGRToRGB)

	idx := int(d.vc.Get(gocv.VideoCapturePosFrames)) - 1
	if idx < 0 {
		idx = 0
	}

	return append([]byte(nil), d.mat.ToBytes()...), d.mat.Cols(), d.mat.Rows(), idx, nil
}

// rationalizeFPS converts a floating-point frame rate reported by gocv
// into a small integer rational, recognising the two standards this
// module cares about and otherwise falling back to a millihertz
// denominator of 1000.
func rationalizeFPS(fps float64) (num, den int64) {
	switch {
	case fps > 29.9 && fps < 30.0:
		return 30000, 1001
	case fps == 25:
		return 25, 1
	case fps == 30:
		return 30, 1
	default:
		return int64(fps * 1000), 1000
	}
}

// fourCCName decodes a gocv FOURCC double into its 4-character codec tag.
func fourCCName(fourcc float64) string {
	v := uint32(fourcc)
	b := [4]byte{
		byte(v & 0xff),
		byte((v >> 8) & 0xff),
		byte((v >> 16) & 0xff),
		byte((v >> 24) & 0xff),
	}
	return string(b[:])
}
