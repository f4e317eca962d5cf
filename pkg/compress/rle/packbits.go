// Package rle implements PackBits run-length coding (Apple TN1023, the
// same scheme as TIFF and DICOM RLE).
//
// A header byte n in [0, 127] is followed by n+1 literal bytes; n in
// [-127, -1] is followed by one byte repeated 1-n times; -128 is a no-op.
package rle

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrTruncated = errors.New("rle: compressed data truncated")
	ErrOverflow  = errors.New("rle: decoded data exceeds expected length")
)

const (
	maxChunk     = 128
	maxExpansion = maxChunk / 2
)

// Encode compresses data. Runs of two or more bytes become replicate runs;
// a literal run stops in front of three identical bytes.
func Encode(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(data)/maxChunk + 1)
	i := 0
	for i < len(data) {
		runLen := 1
		for i+runLen < len(data) && runLen < maxChunk && data[i+runLen] == data[i] {
			runLen++
		}
		if runLen > 1 {
			buf.WriteByte(byte(int8(1 - runLen)))
			buf.WriteByte(data[i])
			i += runLen
			continue
		}

		litLen := 1
		for i+litLen < len(data) && litLen < maxChunk {
			j := i + litLen
			if j+2 < len(data) && data[j] == data[j+1] && data[j] == data[j+2] {
				break
			}
			litLen++
		}
		buf.WriteByte(byte(litLen - 1))
		buf.Write(data[i : i+litLen])
		i += litLen
	}
	return buf.Bytes()
}

// Decode expands data, which must decode to exactly expectedLen bytes.
// Output beyond expectedLen is an error rather than being dropped. On
// success the result is never nil.
func Decode(data []byte, expectedLen int) ([]byte, error) {
	if expectedLen < 0 {
		return nil, fmt.Errorf("rle: negative expected length %d", expectedLen)
	}
	// two input bytes expand to at most 128 output bytes
	out := make([]byte, 0, min(expectedLen, maxExpansion*len(data)))

	i := 0
	for i < len(data) {
		n := int8(data[i])
		i++
		switch {
		case n == -128:
			continue
		case n >= 0:
			count := int(n) + 1
			if i+count > len(data) {
				return nil, fmt.Errorf("%w: literal run of %d at offset %d, %d bytes left", ErrTruncated, count, i-1, len(data)-i)
			}
			if len(out)+count > expectedLen {
				return nil, fmt.Errorf("%w: %d bytes", ErrOverflow, len(out)+count)
			}
			out = append(out, data[i:i+count]...)
			i += count
		default:
			count := 1 - int(n)
			if i >= len(data) {
				return nil, fmt.Errorf("%w: replicate run at offset %d", ErrTruncated, i-1)
			}
			if len(out)+count > expectedLen {
				return nil, fmt.Errorf("%w: %d bytes", ErrOverflow, len(out)+count)
			}
			val := data[i]
			i++
			for k := 0; k < count; k++ {
				out = append(out, val)
			}
		}
	}
	if len(out) != expectedLen {
		return nil, fmt.Errorf("%w: %d of %d bytes", ErrTruncated, len(out), expectedLen)
	}
	return out, nil
}
