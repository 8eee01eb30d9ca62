//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  scaler_nocv.go replaces the gocv-backed Scaler when built without the
  withcv tag, using a plain nearest-neighbor resample so this module
  still builds and runs (at reduced quality) on systems without OpenCV
  installed, e.g. CI.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package scaler

import "github.com/pkg/errors"

// GocvScaler stands in for the Lanczos OpenCV resampler in builds
// without the withcv tag. It performs a nearest-neighbor resample
// instead, which is not the "high-quality resampler" spec §4.3 calls
// for; it exists only so the rest of the tree compiles and runs without
// OpenCV. Build with -tags withcv for a production-quality scaler.
type GocvScaler struct{}

// NewGocv returns a new nearest-neighbor GocvScaler stand-in.
func NewGocv() *GocvScaler { return &GocvScaler{} }

// Resize implements Scaler with nearest-neighbor sampling.
func (s *GocvScaler) Resize(src []byte, wSrc, hSrc, wDst, hDst int) ([]byte, error) {
	if wSrc == wDst && hSrc == hDst {
		return src, nil
	}
	if len(src) != wSrc*hSrc*3 {
		return nil, errors.Errorf("scaler: input length %d does not match declared geometry %dx%d", len(src), wSrc, hSrc)
	}

	dst := make([]byte, wDst*hDst*3)
	for y := 0; y < hDst; y++ {
		sy := y * hSrc / hDst
		for x := 0; x < wDst; x++ {
			sx := x * wSrc / wDst
			srcOff := (sy*wSrc + sx) * 3
			dstOff := (y*wDst + x) * 3
			copy(dst[dstOff:dstOff+3], src[srcOff:srcOff+3])
		}
	}
	return dst, nil
}
