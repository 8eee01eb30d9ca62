//go:build withcv
// +build withcv

/*
DESCRIPTION
  gocv_scaler.go implements Scaler using gocv.Resize with a Lanczos
  kernel, caching resize-plan metadata keyed by the (src,dst) geometry
  pair (spec §9 "Scaler lifetime").

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package scaler

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// planKey identifies a source-to-destination geometry transition.
type planKey struct {
	wSrc, hSrc, wDst, hDst int
}

// GocvScaler is a Scaler backed by gocv.Resize using Lanczos
// interpolation. It records each geometry transition it has resized in
// plans; Resize does not consult that record, so it saves no work.
// gocv.Resize itself is stateless between calls, so the record holds no
// gocv resources and need not be closed.
type GocvScaler struct {
	mu    sync.Mutex
	plans map[planKey]struct{}
}

// NewGocv returns a new GocvScaler.
func NewGocv() *GocvScaler {
	return &GocvScaler{plans: make(map[planKey]struct{})}
}

// Resize implements Scaler.
func (s *GocvScaler) Resize(src []byte, wSrc, hSrc, wDst, hDst int) ([]byte, error) {
	if wSrc == wDst && hSrc == hDst {
		return src, nil
	}
	if len(src) != wSrc*hSrc*3 {
		return nil, errors.Errorf("scaler: input length %d does not match declared geometry %dx%d", len(src), wSrc, hSrc)
	}

	s.mu.Lock()
	s.plans[planKey{wSrc, hSrc, wDst, hDst}] = struct{}{}
	s.mu.Unlock()

	mat, err := gocv.NewMatFromBytes(hSrc, wSrc, gocv.MatTypeCV8UC3, src)
	if err != nil {
		return nil, errors.Wrap(err, "scaler: could not wrap source buffer")
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(mat, &dst, image.Pt(wDst, hDst), 0, 0, gocv.InterpolationLanczos4)

	return append([]byte(nil), dst.ToBytes()...), nil
}
