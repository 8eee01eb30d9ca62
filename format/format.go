/*
DESCRIPTION
  format.go provides the format registry: the fixed set of video standards
  and colorspaces this source daemon can produce, and the pure lookups
  (geometry, frame rate, byte size) derived from them.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package format is the format registry: it enumerates the video standards
// and colorspaces a Source can produce, and exposes geometry, frame rate
// and byte-size lookups for them. It holds no mutable state.
package format

import (
	"fmt"
	"strings"
)

// Standard is a tagged video standard.
type Standard uint8

// Supported video standards.
const (
	NTSC Standard = iota
	PAL
)

// Colorspace is a tagged pixel colorspace.
type Colorspace uint8

// Supported colorspaces, with their wire codes (0/1/2).
const (
	RGB24 Colorspace = iota
	YUV422
	YUV420P
)

// Rational is a simple numerator/denominator pair, used for frame rates
// and pixel aspect ratios.
type Rational struct {
	Num, Den int64
}

// Float returns r as a float64.
func (r Rational) Float() float64 {
	return float64(r.Num) / float64(r.Den)
}

// geom holds the fixed output geometry for a Standard.
type geom struct {
	w, h int
	fps  Rational
	par  Rational // Pixel aspect ratio.
}

var geometries = map[Standard]geom{
	NTSC: {w: 720, h: 486, fps: Rational{30000, 1001}, par: Rational{10, 11}},
	PAL:  {w: 720, h: 576, fps: Rational{25, 1}, par: Rational{59, 54}},
}

// bpp holds the bytes-per-pixel fraction for a Colorspace.
type bpp struct{ num, den int }

var bytesPerPixel = map[Colorspace]bpp{
	RGB24:   {3, 1},
	YUV422:  {2, 1},
	YUV420P: {3, 2},
}

// Geometry returns the fixed output width and height for standard s.
func Geometry(s Standard) (w, h int, err error) {
	g, ok := geometries[s]
	if !ok {
		return 0, 0, fmt.Errorf("format: unknown standard %d", s)
	}
	return g.w, g.h, nil
}

// FrameRate returns the fixed frame rate for standard s, as a rational.
func FrameRate(s Standard) (Rational, error) {
	g, ok := geometries[s]
	if !ok {
		return Rational{}, fmt.Errorf("format: unknown standard %d", s)
	}
	return g.fps, nil
}

// PixelAspectRatio returns the fixed pixel aspect ratio for standard s.
func PixelAspectRatio(s Standard) (Rational, error) {
	g, ok := geometries[s]
	if !ok {
		return Rational{}, fmt.Errorf("format: unknown standard %d", s)
	}
	return g.par, nil
}

// BytesPerFrame returns the exact payload length of one frame of standard s
// in colorspace cs: width * height * bpp_num / bpp_den.
func BytesPerFrame(s Standard, cs Colorspace) (int, error) {
	w, h, err := Geometry(s)
	if err != nil {
		return 0, err
	}
	b, ok := bytesPerPixel[cs]
	if !ok {
		return 0, fmt.Errorf("format: unknown colorspace %d", cs)
	}
	return w * h * b.num / b.den, nil
}

// WireCode returns the single-byte wire code for colorspace cs (0/1/2).
func (cs Colorspace) WireCode() uint8 {
	return uint8(cs)
}

// ColorspaceFromWireCode maps a wire code back to a Colorspace.
func ColorspaceFromWireCode(code uint8) (Colorspace, error) {
	switch code {
	case 0:
		return RGB24, nil
	case 1:
		return YUV422, nil
	case 2:
		return YUV420P, nil
	default:
		return 0, fmt.Errorf("format: unknown colorspace wire code %d", code)
	}
}

// String implements fmt.Stringer for Standard.
func (s Standard) String() string {
	switch s {
	case NTSC:
		return "NTSC"
	case PAL:
		return "PAL"
	default:
		return "UNKNOWN"
	}
}

// String implements fmt.Stringer for Colorspace.
func (cs Colorspace) String() string {
	switch cs {
	case RGB24:
		return "RGB24"
	case YUV422:
		return "YUV422"
	case YUV420P:
		return "YUV420P"
	default:
		return "UNKNOWN"
	}
}

// ParseStandard parses a case-insensitive standard name.
func ParseStandard(s string) (Standard, error) {
	switch strings.ToUpper(s) {
	case "NTSC":
		return NTSC, nil
	case "PAL":
		return PAL, nil
	default:
		return 0, fmt.Errorf("format: unrecognised standard %q", s)
	}
}

// ParseColorspace parses a case-insensitive colorspace name.
func ParseColorspace(s string) (Colorspace, error) {
	switch strings.ToUpper(s) {
	case "RGB24":
		return RGB24, nil
	case "YUV422":
		return YUV422, nil
	case "YUV420P":
		return YUV420P, nil
	default:
		return 0, fmt.Errorf("format: unrecognised colorspace %q", s)
	}
}

// OutputFormat is the mutable (standard, colorspace) pair that fixes a
// Source's current output geometry and payload size.
type OutputFormat struct {
	Standard   Standard
	Colorspace Colorspace
}

// Default is the format a freshly constructed Source starts with.
func Default() OutputFormat {
	return OutputFormat{Standard: NTSC, Colorspace: RGB24}
}

// BytesPerFrame returns the payload length for f.
func (f OutputFormat) BytesPerFrame() (int, error) {
	return BytesPerFrame(f.Standard, f.Colorspace)
}

// Geometry returns the output width/height for f.
func (f OutputFormat) Geometry() (w, h int, err error) {
	return Geometry(f.Standard)
}
