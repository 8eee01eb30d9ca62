//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  decoder_nocv.go replaces the gocv-backed Decoder when built without the
  withcv tag, so this module builds on systems without OpenCV installed
  (e.g. CI). It is not a working decoder; it exists only so the rest of
  the tree compiles and links.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decoder

import "errors"

// GocvDecoder stands in for the OpenCV-backed decoder in builds without
// the withcv tag. All operations fail; build with -tags withcv for a
// working decoder.
type GocvDecoder struct{}

// NewGocv returns a new, non-functional GocvDecoder.
func NewGocv() *GocvDecoder { return &GocvDecoder{} }

var errNoCV = errors.New("decoder: built without OpenCV support; rebuild with -tags withcv")

// Open always fails in this build.
func (d *GocvDecoder) Open(path string) (Info, error) { return Info{}, errNoCV }

// Close is a no-op in this build.
func (d *GocvDecoder) Close() error { return nil }

// SeekNear always fails in this build.
func (d *GocvDecoder) SeekNear(frame int) error { return errNoCV }

// Decode always fails in this build.
func (d *GocvDecoder) Decode() (rgb []byte, width, height, index int, err error) {
	return nil, 0, 0, 0, errNoCV
}
