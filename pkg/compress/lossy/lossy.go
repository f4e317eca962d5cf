// Package lossy implements block transform coding of a plane.
//
// The plane is cut into 8x8 blocks in row-major block order. Blocks at the
// right and bottom edges are padded by repeating the last column and row;
// the decoder reconstructs whole blocks and crops back to the plane size.
// Each block is level shifted to the centre of the plane's range,
// transformed with an orthonormal DCT-II, quantized with a table chosen
// by plane kind and quality (round half away from zero) and scanned in
// zigzag order. DC terms are coded as the difference from the previous
// block. All blocks of a plane form one entropy coded sequence.
package lossy

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/jpfielding/sqp.go/pkg/compress/bitstream"
	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/entropy"
)

// BlockSize is the edge length of a transform block.
const BlockSize = 8

var (
	ErrCorrupt        = errors.New("lossy: corrupt data")
	ErrInvalidQuality = errors.New("lossy: quality out of range")
)

// blockGrid returns the number of blocks across and down.
func blockGrid(w, h int) (bw, bh int) {
	return (w + BlockSize - 1) / BlockSize, (h + BlockSize - 1) / BlockSize
}

// Encode transforms, quantizes and entropy codes p.
func Encode(p colorspace.Plane, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 || len(p.Data) != w*h {
		return nil, fmt.Errorf("lossy: plane %dx%d has %d samples", w, h, len(p.Data))
	}

	q := Table(p.Kind, quality)
	shift := float64(p.Range.Center())
	bw, bh := blockGrid(w, h)
	n := bw * bh
	coeffs := make([]int32, n*64)

	forEachBlock(n, func(i int) {
		bx, by := i%bw*BlockSize, i/bw*BlockSize
		var blk [64]float64
		for y := 0; y < BlockSize; y++ {
			sy := min(by+y, h-1)
			for x := 0; x < BlockSize; x++ {
				sx := min(bx+x, w-1)
				blk[y*BlockSize+x] = float64(p.Data[sy*w+sx]) - shift
			}
		}
		fdct(&blk)
		out := coeffs[i*64 : (i+1)*64]
		for k, nat := range zigzag {
			out[k] = int32(math.Round(blk[nat] / float64(q[nat])))
		}
	})

	// DC prediction runs backwards so every block still sees its
	// neighbour's absolute value.
	for i := n - 1; i > 0; i-- {
		coeffs[i*64] -= coeffs[(i-1)*64]
	}

	data := entropy.Encode(coeffs)
	slog.Debug("lossy plane",
		slog.String("kind", p.Kind.String()),
		slog.Int("width", w),
		slog.Int("height", h),
		slog.Int("quality", quality),
		slog.Int("blocks", n),
		slog.Int("bytes", len(data)))
	return data, nil
}

// Decode reconstructs a segment into p, which must already carry its
// dimensions, kind and range. quality must match the encoder's.
func Decode(data []byte, p *colorspace.Plane, quality int) error {
	if quality < 1 || quality > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 || len(p.Data) != w*h {
		return fmt.Errorf("lossy: plane %dx%d has %d samples", w, h, len(p.Data))
	}

	bw, bh := blockGrid(w, h)
	n := bw * bh
	r := bitstream.NewReader(data)
	coeffs, err := entropy.DecodeFrom(r, n*64)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(coeffs) != n*64 {
		return fmt.Errorf("%w: %d coefficients for %d blocks", ErrCorrupt, len(coeffs), n)
	}
	r.Align()
	if !r.Exhausted() {
		return fmt.Errorf("%w: %d trailing bits", ErrCorrupt, r.Remaining())
	}
	for i := 1; i < n; i++ {
		coeffs[i*64] += coeffs[(i-1)*64]
	}

	q := Table(p.Kind, quality)
	shift := float64(p.Range.Center())
	forEachBlock(n, func(i int) {
		bx, by := i%bw*BlockSize, i/bw*BlockSize
		var blk [64]float64
		in := coeffs[i*64 : (i+1)*64]
		for k, nat := range zigzag {
			blk[nat] = float64(in[k]) * float64(q[nat])
		}
		idct(&blk)
		for y := 0; y < BlockSize && by+y < h; y++ {
			row := p.Data[(by+y)*w:]
			for x := 0; x < BlockSize && bx+x < w; x++ {
				v := math.Round(blk[y*BlockSize+x] + shift)
				v = min(max(v, float64(p.Range.Min)), float64(p.Range.Max))
				row[bx+x] = int32(v)
			}
		}
	})
	return nil
}

// forEachBlock runs fn for every block index on up to GOMAXPROCS workers,
// each owning a contiguous run of blocks. fn must only touch its own block.
func forEachBlock(n int, fn func(i int)) {
	workers := min(runtime.GOMAXPROCS(0), n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	per := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += per {
		end := min(start+per, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}()
	}
	wg.Wait()
}
