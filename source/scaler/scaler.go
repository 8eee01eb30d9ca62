/*
DESCRIPTION
  scaler.go defines Scaler, the high-quality resampling contract a Video
  Source uses to bring a decoded frame's native geometry to the current
  output geometry (spec §6.4's "Scaler" external collaborator).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package scaler defines the Scaler interface and provides a gocv-backed
// Lanczos implementation (build-tagged withcv; see gocv_scaler.go).
package scaler

// Scaler resamples an RGB24 pixel buffer from one geometry to another
// with a high-quality kernel (Lanczos or equivalent). Implementations
// are expected to be safe for concurrent use only if documented as such;
// the Video Source already serializes its own access.
type Scaler interface {
	// Resize resamples src, an RGB24 buffer of geometry wSrc x hSrc, to
	// geometry wDst x hDst, returning the resampled RGB24 buffer. If the
	// source and destination geometries are equal, implementations may
	// return src unchanged.
	Resize(src []byte, wSrc, hSrc, wDst, hDst int) ([]byte, error)
}
