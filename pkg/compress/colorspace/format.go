// Package colorspace converts interleaved 8-bit pixels into independent
// per-channel planes and back.
//
// Colour channels are decorrelated by one of three transforms: the
// reversible colour transform (exact, used by the lossless path), full
// range BT.601 YCbCr (used by the lossy path) or the identity. Alpha is
// always split into its own plane and never takes part in a transform.
package colorspace

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for a Format outside the known set.
	ErrUnsupportedFormat = errors.New("colorspace: unsupported color format")
	// ErrOutOfRange is returned by Merge when an exact transform yields a
	// sample that does not fit in 8 bits.
	ErrOutOfRange = errors.New("colorspace: sample out of range")
	// ErrPlaneMismatch is returned when planes do not match the format or
	// the declared dimensions.
	ErrPlaneMismatch = errors.New("colorspace: plane mismatch")
)

// Format identifies the interleaved pixel layout of an image. The values
// are part of the container format.
type Format uint8

const (
	RGBA8 Format = iota
	RGB8
	GrayAlpha8
	Gray8
	numFormats
)

type formatInfo struct {
	name     string
	channels int
	color    int // leading colour channels
	alpha    int // index of the alpha channel or -1
}

var formats = [numFormats]formatInfo{
	RGBA8:      {name: "rgba8", channels: 4, color: 3, alpha: 3},
	RGB8:       {name: "rgb8", channels: 3, color: 3, alpha: -1},
	GrayAlpha8: {name: "graya8", channels: 2, color: 1, alpha: 1},
	Gray8:      {name: "gray8", channels: 1, color: 1, alpha: -1},
}

func init() {
	for f := Format(0); f < numFormats; f++ {
		info := formats[f]
		if info.name == "" || info.color == 0 || info.alpha >= info.channels {
			panic(fmt.Sprintf("colorspace: format %d has no complete table entry", f))
		}
	}
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool { return f < numFormats }

// Channels returns the number of interleaved bytes per pixel, which is
// also the number of planes.
func (f Format) Channels() int {
	if !f.Valid() {
		return 0
	}
	return formats[f].channels
}

// ColorChannels returns 3 for RGB formats and 1 for gray formats.
func (f Format) ColorChannels() int {
	if !f.Valid() {
		return 0
	}
	return formats[f].color
}

// HasAlpha reports whether f carries an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Valid() && formats[f].alpha >= 0
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("format(%d)", uint8(f))
	}
	return formats[f].name
}

// Formats lists every known format in value order.
func Formats() []Format {
	out := make([]Format, 0, numFormats)
	for f := Format(0); f < numFormats; f++ {
		out = append(out, f)
	}
	return out
}

// ParseFormat accepts a format name as printed by String.
func ParseFormat(s string) (Format, error) {
	for f := Format(0); f < numFormats; f++ {
		if strings.EqualFold(s, formats[f].name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Transform selects how colour channels are decorrelated.
type Transform uint8

const (
	// Identity stores channels as they are.
	Identity Transform = iota
	// Reversible is the integer RCT; Merge restores the input exactly.
	Reversible
	// YCbCr is full range BT.601 with rounding; Merge is within 2 of the input.
	YCbCr
)

func (t Transform) String() string {
	switch t {
	case Identity:
		return "identity"
	case Reversible:
		return "rct"
	case YCbCr:
		return "ycbcr"
	default:
		return fmt.Sprintf("transform(%d)", uint8(t))
	}
}
