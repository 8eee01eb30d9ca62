/*
DESCRIPTION
  decoder.go defines Decoder, the seekable frame-producer contract a
  Video Source decodes against (spec §6.4's "Decoder library" external
  collaborator).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decoder defines the Decoder interface a Video Source decodes
// against, and provides a gocv-backed implementation (build-tagged
// withcv; see gocv_decoder.go).
package decoder

// Info describes a successfully opened media file.
type Info struct {
	FrameCount int
	Width      int
	Height     int
	FPSNum     int64
	FPSDen     int64
	Codec      string
}

// Decoder is a seekable video-frame producer: open a file by path, report
// its frame count/width/height/fps/codec, seek to the keyframe nearest
// (and at or before) a requested frame index, and decode frames forward
// from there in order.
//
// Decode returns the believed index of the frame it just produced. A
// Video Source decoding forward after a seek must discard frames whose
// index is less than the one requested, per the seek-decode policy in
// spec §4.3.
type Decoder interface {
	// Open opens the media file at path, replacing any previously open
	// file.
	Open(path string) (Info, error)

	// Close releases any resources associated with the currently open
	// file. Close is idempotent.
	Close() error

	// SeekNear seeks to the keyframe at or immediately preceding frame.
	// It does not itself decode a frame.
	SeekNear(frame int) error

	// Decode decodes and returns the next frame in RGB24 at the file's
	// native geometry, along with the frame's index within the file.
	Decode() (rgb []byte, width, height, index int, err error)
}
