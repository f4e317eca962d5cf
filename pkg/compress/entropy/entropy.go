// Package entropy implements the symbol coders shared by the lossless and
// lossy paths.
//
// The main coder turns a sequence of signed integers into run/size tokens:
// a run of r zeros (r < 63) followed by a non-zero value v becomes the token
// r<<6 | cat(v), where cat(v) is the bit length of |v|, followed by cat(v)
// extra bits holding v (negative values are stored as v + 2^cat - 1). A run
// of 63 zeros is the ZRL token and trailing zeros collapse into a single EOB
// token. Tokens are coded with a canonical Huffman table that is written at
// the start of the stream, so every stream is self-describing:
//
//	count      32 bits  number of symbols; the stream ends here when 0
//	n          12 bits  number of table entries
//	entries    n × (token 12 bits, code length 5 bits), canonical order
//	tokens     Huffman codes, each followed by its extra bits
package entropy

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/jpfielding/sqp.go/pkg/compress/bitstream"
)

// ErrCorrupt is returned when a stream cannot be decoded.
var ErrCorrupt = errors.New("entropy: corrupt data")

const (
	tokenBits = 12
	maxRun    = 62
	maxCat    = 32

	// EOB ends the stream; every remaining symbol is zero.
	EOB    uint16 = 0
	// ZRL stands for a run of 63 zeros.
	ZRL    uint16 = 63 << 6
	zrlRun        = 63
)

// token is one coded unit plus its extra bits.
type token struct {
	id    uint16
	extra uint32
	cat   uint8
}

// category returns the number of bits needed to hold |v|.
func category(v int32) uint8 {
	if v < 0 {
		return uint8(bits.Len64(uint64(-int64(v))))
	}
	return uint8(bits.Len32(uint32(v)))
}

// extraBits returns the additional bits stored after a token for v.
func extraBits(v int32, cat uint8) uint32 {
	if v < 0 {
		return uint32(int64(v) + int64(1)<<cat - 1)
	}
	return uint32(v)
}

// extend converts extra bits back to a signed value (JPEG F.12 EXTEND).
func extend(extra uint64, cat uint8) int32 {
	if extra < uint64(1)<<(cat-1) {
		return int32(int64(extra) - int64(1)<<cat + 1)
	}
	return int32(extra)
}

func validToken(id uint16) bool {
	run, cat := id>>6, id&0x3F
	switch {
	case id == EOB, id == ZRL:
		return true
	case cat == 0 || cat > maxCat:
		return false
	default:
		return run <= maxRun
	}
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", ErrCorrupt, err)
}

func tokenize(symbols []int32) []token {
	toks := make([]token, 0, len(symbols)/2+1)
	run := 0
	for _, v := range symbols {
		if v == 0 {
			run++
			continue
		}
		for run >= zrlRun {
			toks = append(toks, token{id: ZRL})
			run -= zrlRun
		}
		cat := category(v)
		toks = append(toks, token{id: uint16(run)<<6 | uint16(cat), extra: extraBits(v, cat), cat: cat})
		run = 0
	}
	if run > 0 {
		toks = append(toks, token{id: EOB})
	}
	return toks
}

// Encode codes symbols into a byte-aligned stream.
func Encode(symbols []int32) []byte {
	w := bitstream.NewWriter(len(symbols)/2 + 8)
	EncodeTo(w, symbols)
	return w.Bytes()
}

// EncodeTo appends the coded symbols to w without aligning.
func EncodeTo(w *bitstream.Writer, symbols []int32) {
	w.WriteBits(uint64(len(symbols)), 32)
	if len(symbols) == 0 {
		return
	}

	toks := tokenize(symbols)
	freq := make(map[uint16]int)
	for _, t := range toks {
		freq[t.id]++
	}
	syms := make([]uint16, 0, len(freq))
	for id := range freq {
		syms = append(syms, id)
	}
	// map iteration order is random; fix it before building the tree
	slices.Sort(syms)
	counts := make([]int, len(syms))
	for i, id := range syms {
		counts[i] = freq[id]
	}

	codes := buildCodes(syms, limitedLengths(counts))
	writeTable(w, codes)

	lookup := make(map[uint16]huffCode, len(codes))
	for _, c := range codes {
		lookup[c.sym] = c
	}
	for _, t := range toks {
		c := lookup[t.id]
		w.WriteBits(uint64(c.code), int(c.len))
		if t.cat > 0 {
			w.WriteBits(uint64(t.extra), int(t.cat))
		}
	}
}

// Decode decodes a stream produced by Encode. Streams claiming more than
// limit symbols are rejected before anything is allocated.
func Decode(data []byte, limit int) ([]int32, error) {
	return DecodeFrom(bitstream.NewReader(data), limit)
}

// DecodeFrom decodes one coded sequence from r.
func DecodeFrom(r *bitstream.Reader, limit int) ([]int32, error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return nil, corrupt(err)
	}
	if n > uint64(limit) {
		return nil, fmt.Errorf("%w: %d symbols exceeds limit %d", ErrCorrupt, n, limit)
	}
	count := int(n)
	out := make([]int32, 0, count)
	if count == 0 {
		return out, nil
	}

	table, err := readTable(r)
	if err != nil {
		return nil, err
	}

	for len(out) < count {
		id, err := table.decode(r)
		if err != nil {
			return nil, err
		}
		switch id {
		case EOB:
			// the tail of the backing array was never written
			return out[:count], nil
		case ZRL:
			if len(out)+zrlRun > count {
				return nil, fmt.Errorf("%w: zero run overruns %d symbols", ErrCorrupt, count)
			}
			out = append(out, make([]int32, zrlRun)...)
		default:
			run, cat := int(id>>6), uint8(id&0x3F)
			if len(out)+run+1 > count {
				return nil, fmt.Errorf("%w: run overruns %d symbols", ErrCorrupt, count)
			}
			extra, err := r.ReadBits(int(cat))
			if err != nil {
				return nil, corrupt(err)
			}
			for i := 0; i < run; i++ {
				out = append(out, 0)
			}
			out = append(out, extend(extra, cat))
		}
	}
	return out, nil
}
