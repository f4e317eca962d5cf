// Package bitstream provides MSB-first bit-level reading and writing over
// in-memory byte buffers.
//
// Bits are packed most-significant-first within each byte. This ordering is
// part of the SQP stream format: every coded segment is produced by a Writer
// and consumed by a Reader from this package.
package bitstream

import (
	"errors"
	"fmt"
)

// ErrTruncated is returned when a read would run past the end of the data.
var ErrTruncated = errors.New("bitstream: truncated stream")

// Writer writes bits to a growable byte buffer.
type Writer struct {
	buf  []byte
	acc  byte // pending bits, right aligned
	bits int  // number of pending bits (0-7)
}

// NewWriter creates a new bit writer with capacity for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// WriteBit writes a single bit
func (w *Writer) WriteBit(bit int) {
	w.acc = w.acc<<1 | byte(bit&1)
	w.bits++
	if w.bits == 8 {
		w.buf = append(w.buf, w.acc)
		w.acc = 0
		w.bits = 0
	}
}

// WriteBits writes the low n bits of val, most significant first (n <= 64).
func (w *Writer) WriteBits(val uint64, n int) {
	if n < 0 || n > 64 {
		panic(fmt.Sprintf("bitstream: invalid bit count %d", n))
	}
	for n > 0 {
		k := 8 - w.bits
		if k > n {
			k = n
		}
		chunk := byte(val>>(n-k)) & byte(1<<k-1)
		w.acc = w.acc<<k | chunk
		w.bits += k
		n -= k
		if w.bits == 8 {
			w.buf = append(w.buf, w.acc)
			w.acc = 0
			w.bits = 0
		}
	}
}

// Align pads the current byte with zero bits.
func (w *Writer) Align() {
	if w.bits > 0 {
		w.buf = append(w.buf, w.acc<<(8-w.bits))
		w.acc = 0
		w.bits = 0
	}
}

// WriteBytes aligns to a byte boundary and appends raw bytes.
func (w *Writer) WriteBytes(p []byte) {
	w.Align()
	w.buf = append(w.buf, p...)
}

// BitLen returns the number of bits written so far.
func (w *Writer) BitLen() int {
	return len(w.buf)*8 + w.bits
}

// Len returns the number of bytes the stream occupies, counting a partial
// trailing byte.
func (w *Writer) Len() int {
	if w.bits > 0 {
		return len(w.buf) + 1
	}
	return len(w.buf)
}

// Bytes aligns the stream and returns the written bytes. The slice aliases
// the writer's buffer until the next write.
func (w *Writer) Bytes() []byte {
	w.Align()
	return w.buf
}

// Reader reads bits from a byte slice.
type Reader struct {
	data []byte
	pos  int // bit position
}

// NewReader creates a new bit reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return len(r.data)*8 - r.pos
}

// Exhausted reports whether every bit has been consumed.
func (r *Reader) Exhausted() bool {
	return r.pos >= len(r.data)*8
}

// Offset returns the number of bytes touched so far, counting a partially
// consumed byte.
func (r *Reader) Offset() int {
	return (r.pos + 7) >> 3
}

// ReadBit reads a single bit
func (r *Reader) ReadBit() (int, error) {
	if r.pos >= len(r.data)*8 {
		return 0, ErrTruncated
	}
	b := int(r.data[r.pos>>3]>>(7-r.pos&7)) & 1
	r.pos++
	return b, nil
}

// ReadBits reads n bits (n <= 64).
func (r *Reader) ReadBits(n int) (uint64, error) {
	v, err := r.PeekBits(n)
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// PeekBits returns the next n bits (n <= 64) without consuming them.
func (r *Reader) PeekBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, fmt.Errorf("bitstream: invalid bit count %d", n)
	}
	if n > r.Remaining() {
		return 0, ErrTruncated
	}
	var v uint64
	pos := r.pos
	for n > 0 {
		avail := 8 - pos&7
		k := avail
		if k > n {
			k = n
		}
		b := uint64(r.data[pos>>3]>>(avail-k)) & (1<<k - 1)
		v = v<<k | b
		pos += k
		n -= k
	}
	return v, nil
}

// Skip discards n bits.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Remaining() {
		return ErrTruncated
	}
	r.pos += n
	return nil
}

// Align discards bits to reach byte boundary
func (r *Reader) Align() {
	r.pos = (r.pos + 7) &^ 7
	if r.pos > len(r.data)*8 {
		r.pos = len(r.data) * 8
	}
}

// ReadBytes aligns to a byte boundary and returns the next n bytes. The
// returned slice aliases the reader's data.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	r.Align()
	start := r.pos >> 3
	if n < 0 || n > len(r.data)-start {
		return nil, ErrTruncated
	}
	r.pos += n * 8
	return r.data[start : start+n], nil
}
