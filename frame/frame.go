/*
DESCRIPTION
  frame.go provides Buffer, an immutable produced video frame, and Header,
  the 16-byte big-endian wire header that precedes every GETFRAME payload.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame provides the wire representation of a decoded, scaled and
// colorspace-converted video frame: the immutable Buffer value and the
// fixed 16-byte binary Header that precedes its payload on the wire.
package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Flag bits, per the wire header's flags byte.
const (
	FlagKeyframe    = 1 << 0
	FlagField1      = 1 << 1
	FlagField2      = 1 << 2
	FlagEndOfStream = 1 << 3
)

// HeaderSize is the fixed size, in bytes, of the binary frame header.
const HeaderSize = 16

// Header is the 16-byte big-endian header that precedes every frame
// payload on the wire (spec §6.2).
type Header struct {
	Sequence    uint32
	TimestampMs uint32
	Width       uint16
	Height      uint16
	Colorspace  uint8
	Flags       uint8
}

// Bytes encodes h into a new 16-byte big-endian buffer.
func (h Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Sequence)
	binary.BigEndian.PutUint32(buf[4:8], h.TimestampMs)
	binary.BigEndian.PutUint16(buf[8:10], h.Width)
	binary.BigEndian.PutUint16(buf[10:12], h.Height)
	buf[12] = h.Colorspace
	buf[13] = h.Flags
	// Bytes 14:16 are reserved and left zero.
	return buf
}

// DecodeHeader decodes a 16-byte big-endian header from buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, errors.Errorf("frame: header must be %d bytes, got %d", HeaderSize, len(buf))
	}
	return Header{
		Sequence:    binary.BigEndian.Uint32(buf[0:4]),
		TimestampMs: binary.BigEndian.Uint32(buf[4:8]),
		Width:       binary.BigEndian.Uint16(buf[8:10]),
		Height:      binary.BigEndian.Uint16(buf[10:12]),
		Colorspace:  buf[12],
		Flags:       buf[13],
	}, nil
}

// Buffer is an immutable, fully produced video frame: a decoded, scaled
// and colorspace-converted payload plus its wire metadata. Once
// constructed, a Buffer's fields must not be mutated; it may be safely
// shared between the frame cache and an in-flight write.
type Buffer struct {
	Sequence    uint32
	TimestampMs uint32
	Width       int
	Height      int
	Colorspace  uint8
	Flags       uint8
	Payload     []byte
}

// Header returns the 16-byte wire header describing b.
func (b Buffer) Header() Header {
	return Header{
		Sequence:    b.Sequence,
		TimestampMs: b.TimestampMs,
		Width:       uint16(b.Width),
		Height:      uint16(b.Height),
		Colorspace:  b.Colorspace,
		Flags:       b.Flags,
	}
}
