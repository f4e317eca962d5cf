package sqp

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/lossy"
)

const (
	Magic   = "SQPF"
	Version = 1

	// MaxDimension bounds width and height.
	MaxDimension = 65535
	// MaxPixels bounds width*height.
	MaxPixels = 1 << 26

	baseHeaderSize = 15 // magic, version, width, height, color, flags
	maxHeaderSize  = baseHeaderSize + 1

	// Coded plane size bounds. A code table has at most 2018 entries of
	// 17 bits. A coded sample costs at most a 24-bit code plus 32 extra
	// bits, and a row's predictor id at most a 57-bit Golomb escape.
	maxTableBytes  = 8192
	maxSampleBytes = 8
	maxRowBytes    = 8

	// symbol counts and alignment padding
	framingBytes = 64

	flagLossy      = 1 << 0
	flagLossyAlpha = 1 << 1
	flagRaw        = 1 << 2
	knownFlags     = flagLossy | flagLossyAlpha | flagRaw
)

// Header is the fixed part of a stream.
type Header struct {
	Width      int
	Height     int
	Format     colorspace.Format
	Mode       Mode
	LossyAlpha bool
	Quality    int // lossy only
	flags      byte
}

// Size returns the encoded length of the header.
func (h Header) Size() int {
	if h.Mode == Lossy {
		return maxHeaderSize
	}
	return baseHeaderSize
}

// Planes returns the number of segments that follow the header.
func (h Header) Planes() int { return h.Format.Channels() }

func (h Header) appendTo(b []byte) []byte {
	var flags byte
	switch h.Mode {
	case Lossy:
		flags |= flagLossy
		if h.LossyAlpha {
			flags |= flagLossyAlpha
		}
	case Raw:
		flags |= flagRaw
	}
	b = append(b, Magic...)
	b = append(b, Version)
	b = binary.BigEndian.AppendUint32(b, uint32(h.Width))
	b = binary.BigEndian.AppendUint32(b, uint32(h.Height))
	b = append(b, byte(h.Format), flags)
	if h.Mode == Lossy {
		b = append(b, byte(h.Quality))
	}
	return b
}

// readHeader parses the header fields without judging their values.
func readHeader(data []byte) (Header, int, error) {
	if len(data) < len(Magic) {
		if bytes.HasPrefix([]byte(Magic), data) {
			return Header{}, 0, fmt.Errorf("%w: %d bytes", ErrTruncatedStream, len(data))
		}
		return Header{}, 0, ErrFormat
	}
	if string(data[:len(Magic)]) != Magic {
		return Header{}, 0, fmt.Errorf("%w: magic %q", ErrFormat, data[:len(Magic)])
	}
	if len(data) < baseHeaderSize {
		return Header{}, 0, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncatedStream, baseHeaderSize, len(data))
	}
	if v := data[4]; v != Version {
		return Header{}, 0, fmt.Errorf("%w: version %d", ErrFormat, v)
	}

	h := Header{
		Width:  int(binary.BigEndian.Uint32(data[5:9])),
		Height: int(binary.BigEndian.Uint32(data[9:13])),
		Format: colorspace.Format(data[13]),
		flags:  data[14],
	}
	n := baseHeaderSize
	switch {
	case h.flags&flagLossy != 0:
		h.Mode = Lossy
		if len(data) < maxHeaderSize {
			return Header{}, 0, fmt.Errorf("%w: missing quality byte", ErrTruncatedStream)
		}
		h.Quality = int(data[15])
		n++
	case h.flags&flagRaw != 0:
		h.Mode = Raw
	default:
		h.Mode = Lossless
	}
	h.LossyAlpha = h.flags&flagLossyAlpha != 0
	return h, n, nil
}

// validate checks header values before anything is sized from them.
func (h Header) validate() error {
	if h.Width <= 0 || h.Height <= 0 || h.Width > MaxDimension || h.Height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrDimension, h.Width, h.Height)
	}
	if h.Width*h.Height > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDimension, h.Width, h.Height, MaxPixels)
	}
	if !h.Format.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedColorFormat, uint8(h.Format))
	}
	if h.flags&^knownFlags != 0 {
		return fmt.Errorf("%w: unknown flags %#02x", ErrFormat, h.flags)
	}
	if h.flags&flagLossy != 0 && h.flags&flagRaw != 0 {
		return fmt.Errorf("%w: lossy and raw flags both set", ErrFormat)
	}
	if h.LossyAlpha && (h.Mode != Lossy || !h.Format.HasAlpha()) {
		return fmt.Errorf("%w: lossy alpha flag on a %s %s stream", ErrFormat, h.Mode, h.Format)
	}
	if h.Mode == Lossy && (h.Quality < 1 || h.Quality > 100) {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, h.Quality)
	}
	return nil
}

// DecodeHeader parses and validates the header at the start of data.
func DecodeHeader(data []byte) (Header, error) {
	h, _, err := readHeader(data)
	if err != nil {
		return Header{}, err
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// transform returns the colour transform the header's mode implies.
func (h Header) transform() colorspace.Transform {
	return h.Mode.transform()
}

// planeCoding decides how the plane of the given kind is coded.
func (h Header) planeCoding(kind colorspace.Kind) coding {
	switch {
	case h.Mode == Raw:
		return codingRaw
	case h.Mode == Lossy && (kind != colorspace.Alpha || h.LossyAlpha):
		return codingLossy
	default:
		return codingLossless
	}
}

// segmentLimit bounds the unpacked size of one segment so nothing sized by
// untrusted input is allocated beyond what the dimensions justify.
func (h Header) segmentLimit(c coding) int {
	if c == codingRaw {
		return h.Width * h.Height
	}
	bw := (h.Width + lossy.BlockSize - 1) / lossy.BlockSize
	bh := (h.Height + lossy.BlockSize - 1) / lossy.BlockSize
	padded := bw * bh * lossy.BlockSize * lossy.BlockSize
	return maxTableBytes + maxSampleBytes*padded + maxRowBytes*h.Height + framingBytes
}

// streamLimit bounds the bytes that may follow the header.
func (h Header) streamLimit() int {
	kinds, _, err := colorspace.Layout(h.Format, h.transform())
	if err != nil {
		return 0
	}
	total := 0
	for _, k := range kinds {
		raw := h.segmentLimit(h.planeCoding(k))
		total += 4 + 16 + raw + raw/64 + 1024
	}
	return total
}
