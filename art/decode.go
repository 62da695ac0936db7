// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package art decodes fetched cover images into displayable pixel buffers
// and caches the result for the currently playing track.
package art

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// decoders registered by signature; the format is always sniffed from
	// the byte stream, never trusted from a file name
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"mpdscreen/mpd"
)

// DecodedArt is a decoded cover image: RGBA pixels plus the identity of
// the track it was decoded for. Instances are immutable once returned.
type DecodedArt struct {
	Width  int
	Height int
	Pixels []byte // RGBA, 4 bytes per pixel, row-major

	Track mpd.TrackIdentity
}

// Image reassembles the pixel buffer into an image for rendering.
func (d *DecodedArt) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    d.Pixels,
		Stride: 4 * d.Width,
		Rect:   image.Rect(0, 0, d.Width, d.Height),
	}
}

// DecodingError reports undecodable image data.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("art: decoding image: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// Decode sniffs the image format from the byte signature and decodes into
// an RGBA buffer. PNG, JPEG, GIF, BMP and WebP are supported.
func Decode(data []byte, id mpd.TrackIdentity) (*DecodedArt, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodingError{Err: err}
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &DecodedArt{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
		Track:  id,
	}, nil
}
