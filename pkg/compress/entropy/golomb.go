package entropy

import (
	"fmt"

	"github.com/jpfielding/sqp.go/pkg/compress/bitstream"
)

const (
	golombReset = 64
	// golombLimit caps the unary prefix; values whose quotient reaches it
	// are escaped and stored in 32 raw bits.
	golombLimit = 24
)

// Golomb is an adaptive Golomb-Rice coder for small non-negative integers.
// The Rice parameter k follows the running mean of the coded values the
// same way on both sides, so no parameters are transmitted.
type Golomb struct {
	a int // sum of coded values
	n int // number of coded values
}

// NewGolomb creates a coder in its initial state.
func NewGolomb() *Golomb {
	return &Golomb{a: 4, n: 1}
}

// k calculates the Golomb-Rice parameter from the running statistics.
func (g *Golomb) k() int {
	k := 0
	for (g.n<<k) < g.a && k < 31 {
		k++
	}
	return k
}

func (g *Golomb) update(v uint32) {
	g.a += int(min(v, 1<<16))
	if g.n == golombReset {
		g.a >>= 1
		g.n >>= 1
	}
	g.n++
}

// Write codes v: q zero bits, a one bit, then the k low bits of v.
func (g *Golomb) Write(w *bitstream.Writer, v uint32) {
	k := g.k()
	q := v >> k
	if q >= golombLimit {
		w.WriteBits(0, golombLimit)
		w.WriteBit(1)
		w.WriteBits(uint64(v), 32)
	} else {
		w.WriteBits(0, int(q))
		w.WriteBit(1)
		w.WriteBits(uint64(v), k)
	}
	g.update(v)
}

// Read decodes one value.
func (g *Golomb) Read(r *bitstream.Reader) (uint32, error) {
	k := g.k()
	v, err := readGolomb(r, k)
	if err != nil {
		return 0, err
	}
	g.update(v)
	return v, nil
}

func readGolomb(r *bitstream.Reader, k int) (uint32, error) {
	q := 0
	for {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, corrupt(err)
		}
		if bit == 1 {
			break
		}
		q++
		if q > golombLimit {
			return 0, fmt.Errorf("%w: golomb prefix too long", ErrCorrupt)
		}
	}
	if q == golombLimit {
		v, err := r.ReadBits(32)
		if err != nil {
			return 0, corrupt(err)
		}
		return uint32(v), nil
	}
	rem, err := r.ReadBits(k)
	if err != nil {
		return 0, corrupt(err)
	}
	return uint32(q)<<k | uint32(rem), nil
}

// EncodeSmall codes a sequence of small values with a fresh Golomb coder.
// The caller knows the length on both sides.
func EncodeSmall(w *bitstream.Writer, values []uint32) {
	g := NewGolomb()
	for _, v := range values {
		g.Write(w, v)
	}
}

// DecodeSmall decodes n values written by EncodeSmall, rejecting any value
// not below bound.
func DecodeSmall(r *bitstream.Reader, n int, bound uint32) ([]uint32, error) {
	if n < 0 || n > r.Remaining() {
		// every value costs at least one bit
		return nil, fmt.Errorf("%w: %d values cannot fit in %d bits", ErrCorrupt, n, r.Remaining())
	}
	g := NewGolomb()
	out := make([]uint32, n)
	for i := range out {
		v, err := g.Read(r)
		if err != nil {
			return nil, err
		}
		if v >= bound {
			return nil, fmt.Errorf("%w: value %d out of range", ErrCorrupt, v)
		}
		out[i] = v
	}
	return out, nil
}
