// Package lossless codes a plane with a spatial predictor and the shared
// entropy coder.
//
// A segment holds the predictor id of every row (adaptive Golomb-Rice)
// followed by the prediction residuals of the whole plane (Huffman,
// run/size tokens). Decoding reads the recorded ids and never searches.
package lossless

import (
	"errors"
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/jpfielding/sqp.go/pkg/compress/bitstream"
	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/entropy"
)

var (
	ErrCorrupt          = errors.New("lossless: corrupt data")
	ErrInvalidPredictor = errors.New("lossless: invalid predictor")
)

// Encode codes p. With Adaptive every row gets the predictor whose
// residuals are cheapest; otherwise pred is used for every row.
func Encode(p colorspace.Plane, pred Predictor) ([]byte, error) {
	if !pred.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPredictor, pred)
	}
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 || len(p.Data) != w*h {
		return nil, fmt.Errorf("lossless: plane %dx%d has %d samples", w, h, len(p.Data))
	}

	ids := make([]uint32, h)
	residuals := make([]int32, w*h)
	scratch := make([]int32, w)
	var hist [numPredictors]int
	var prev []int32
	for y := 0; y < h; y++ {
		cur := p.Row(y)
		for x, v := range cur {
			if !p.Range.Contains(v) {
				return nil, fmt.Errorf("lossless: sample %d at (%d,%d) outside [%d,%d]", v, x, y, p.Range.Min, p.Range.Max)
			}
		}
		out := residuals[y*w : (y+1)*w]
		best := pred
		if pred == Adaptive {
			best = None
			bestCost := -1
			for cand := Predictor(0); cand < numPredictors; cand++ {
				residualRow(cand, cur, prev, y, p.Range, scratch)
				if cost := rowCost(scratch); bestCost < 0 || cost < bestCost {
					best, bestCost = cand, cost
				}
			}
		}
		residualRow(best, cur, prev, y, p.Range, out)
		ids[y] = uint32(best)
		hist[best]++
		prev = cur
	}

	bw := bitstream.NewWriter(w*h/2 + h + 16)
	entropy.EncodeSmall(bw, ids)
	entropy.EncodeTo(bw, residuals)
	data := bw.Bytes()

	slog.Debug("lossless plane",
		slog.String("kind", p.Kind.String()),
		slog.Int("width", w),
		slog.Int("height", h),
		slog.String("predictor", pred.String()),
		slog.Any("rows", hist),
		slog.Int("bytes", len(data)))
	return data, nil
}

func residualRow(pred Predictor, cur, prev []int32, y int, r colorspace.Range, out []int32) {
	for x := range cur {
		a, b, c := neighbours(cur, prev, x, y)
		out[x] = cur[x] - predict(pred, a, b, c, r)
	}
}

// rowCost approximates the coded size of a row by its magnitude bits.
func rowCost(res []int32) int {
	cost := 0
	for _, v := range res {
		cost += bits.Len32(uint32(abs(v)))
	}
	return cost
}

// Decode reconstructs a segment into p, which must already carry its
// dimensions and range. A reconstructed sample outside the range means
// the segment is corrupt.
func Decode(data []byte, p *colorspace.Plane) error {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 || len(p.Data) != w*h {
		return fmt.Errorf("lossless: plane %dx%d has %d samples", w, h, len(p.Data))
	}

	r := bitstream.NewReader(data)
	ids, err := entropy.DecodeSmall(r, h, numPredictors)
	if err != nil {
		return fmt.Errorf("%w: predictors: %w", ErrCorrupt, err)
	}
	residuals, err := entropy.DecodeFrom(r, w*h)
	if err != nil {
		return fmt.Errorf("%w: residuals: %w", ErrCorrupt, err)
	}
	if len(residuals) != w*h {
		return fmt.Errorf("%w: %d residuals for %d samples", ErrCorrupt, len(residuals), w*h)
	}
	r.Align()
	if !r.Exhausted() {
		return fmt.Errorf("%w: %d trailing bits", ErrCorrupt, r.Remaining())
	}

	var prev []int32
	for y := 0; y < h; y++ {
		pred := Predictor(ids[y])
		cur := p.Row(y)
		res := residuals[y*w : (y+1)*w]
		for x := range cur {
			a, b, c := neighbours(cur, prev, x, y)
			v := int64(predict(pred, a, b, c, p.Range)) + int64(res[x])
			if v < int64(p.Range.Min) || v > int64(p.Range.Max) {
				return fmt.Errorf("%w: sample %d at (%d,%d) outside [%d,%d]", ErrCorrupt, v, x, y, p.Range.Min, p.Range.Max)
			}
			cur[x] = int32(v)
		}
		prev = cur
	}
	return nil
}
