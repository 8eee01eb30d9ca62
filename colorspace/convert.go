/*
DESCRIPTION
  convert.go provides pixel-array colorspace transforms from RGB24 to
  RGB24 (identity), YUV422 packed UYVY and YUV420P planar, using BT.601
  limited-range coefficients and round-half-to-even rounding.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package colorspace converts a contiguous RGB24 pixel buffer of known
// geometry into RGB24, packed YUV422 (UYVY) or planar YUV420P, using
// BT.601 limited-range coefficients. Conversion is hand-rolled rather than
// delegated to a third-party color routine so that the byte-exact,
// round-half-to-even output this package guarantees cannot drift with an
// upstream library's internal coefficient or rounding choice.
package colorspace

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ausocean/vtsource/format"
)

// ToRGB24 is the identity sink: it returns rgb unchanged. Zero-copy is
// permitted, so the returned slice aliases rgb.
func ToRGB24(rgb []byte, w, h int) ([]byte, error) {
	if len(rgb) != w*h*3 {
		return nil, errors.Errorf("colorspace: input length %d does not match declared geometry %dx%d", len(rgb), w, h)
	}
	return rgb, nil
}

// yuv converts one RGB triple to Y, U, V using BT.601 limited-range
// coefficients, clamping to [0,255] and rounding half to even.
func yuv(r, g, b byte) (y, u, v byte) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	yf := 0.299*rf + 0.587*gf + 0.114*bf
	uf := -0.169*rf - 0.331*gf + 0.500*bf + 128
	vf := 0.500*rf - 0.419*gf - 0.081*bf + 128
	return clamp(yf), clamp(uf), clamp(vf)
}

// clamp rounds v half-to-even and clamps it to the byte range [0,255].
func clamp(v float64) byte {
	r := math.RoundToEven(v)
	switch {
	case r < 0:
		return 0
	case r > 255:
		return 255
	default:
		return byte(r)
	}
}

// ToUYVY converts an RGB24 buffer of geometry w x h to packed 4:2:2 UYVY.
// If w is odd, the right-most pixel column is duplicated before
// conversion so that chroma can be averaged over whole pixel pairs.
func ToUYVY(rgb []byte, w, h int) ([]byte, error) {
	if len(rgb) != w*h*3 {
		return nil, errors.Errorf("colorspace: input length %d does not match declared geometry %dx%d", len(rgb), w, h)
	}

	evenW := w
	if evenW%2 != 0 {
		evenW++
	}

	out := make([]byte, evenW*h*2)
	row := make([]byte, evenW*3)

	for y := 0; y < h; y++ {
		src := rgb[y*w*3 : (y+1)*w*3]
		copy(row, src)
		if evenW != w {
			// Duplicate the right-most pixel into the padding column.
			copy(row[(evenW-1)*3:evenW*3], src[(w-1)*3:w*3])
		}

		dst := out[y*evenW*2 : (y+1)*evenW*2]
		for x := 0; x < evenW; x += 2 {
			r0, g0, b0 := row[x*3], row[x*3+1], row[x*3+2]
			r1, g1, b1 := row[(x+1)*3], row[(x+1)*3+1], row[(x+1)*3+2]

			y0, u0, v0 := yuv(r0, g0, b0)
			y1, u1, v1 := yuv(r1, g1, b1)

			u := averageByte(u0, u1)
			v := averageByte(v0, v1)

			o := dst[x*2 : x*2+4]
			o[0] = u
			o[1] = y0
			o[2] = v
			o[3] = y1
		}
	}
	return out, nil
}

// ToYUV420P converts an RGB24 buffer of geometry w x h to planar 4:2:0
// (Y plane, then U, then V, each chroma plane at half width and height).
// If h is odd, the bottom row is duplicated before conversion so chroma
// can be averaged over whole 2x2 blocks.
func ToYUV420P(rgb []byte, w, h int) ([]byte, error) {
	if len(rgb) != w*h*3 {
		return nil, errors.Errorf("colorspace: input length %d does not match declared geometry %dx%d", len(rgb), w, h)
	}

	evenH := h
	if evenH%2 != 0 {
		evenH++
	}

	cw, ch := w/2, evenH/2
	ySize := w * evenH
	cSize := cw * ch
	out := make([]byte, ySize+2*cSize)
	yPlane := out[:ySize]
	uPlane := out[ySize : ySize+cSize]
	vPlane := out[ySize+cSize:]

	rowAt := func(y int) []byte {
		if y >= h {
			y = h - 1 // Duplicate the bottom row for odd heights.
		}
		return rgb[y*w*3 : (y+1)*w*3]
	}

	for y := 0; y < evenH; y++ {
		src := rowAt(y)
		for x := 0; x < w; x++ {
			r, g, b := src[x*3], src[x*3+1], src[x*3+2]
			yv, _, _ := yuv(r, g, b)
			yPlane[y*w+x] = yv
		}
	}

	for j := 0; j < ch; j++ {
		row0 := rowAt(2 * j)
		row1 := rowAt(2*j + 1)
		for i := 0; i < cw; i++ {
			_, u00, v00 := yuv(row0[2*i*3], row0[2*i*3+1], row0[2*i*3+2])
			_, u01, v01 := yuv(row0[(2*i+1)*3], row0[(2*i+1)*3+1], row0[(2*i+1)*3+2])
			_, u10, v10 := yuv(row1[2*i*3], row1[2*i*3+1], row1[2*i*3+2])
			_, u11, v11 := yuv(row1[(2*i+1)*3], row1[(2*i+1)*3+1], row1[(2*i+1)*3+2])

			uPlane[j*cw+i] = averageByte4(u00, u01, u10, u11)
			vPlane[j*cw+i] = averageByte4(v00, v01, v10, v11)
		}
	}

	return out, nil
}

// averageByte returns the round-half-to-even arithmetic mean of two bytes.
func averageByte(a, b byte) byte {
	return clamp(math.RoundToEven(float64(a)+float64(b)) / 2)
}

// averageByte4 returns the round-half-to-even arithmetic mean of four bytes.
func averageByte4(a, b, c, d byte) byte {
	sum := float64(a) + float64(b) + float64(c) + float64(d)
	return clamp(math.RoundToEven(sum / 4))
}

// Convert dispatches to the sink matching cs.
func Convert(rgb []byte, w, h int, cs format.Colorspace) ([]byte, error) {
	switch cs {
	case format.RGB24:
		return ToRGB24(rgb, w, h)
	case format.YUV422:
		return ToUYVY(rgb, w, h)
	case format.YUV420P:
		return ToYUV420P(rgb, w, h)
	default:
		return nil, errors.Errorf("colorspace: unknown colorspace %d", cs)
	}
}
