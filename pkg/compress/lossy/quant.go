package lossy

import (
	"sync"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
)

// QuantTable holds one quantizer step per coefficient in natural order.
type QuantTable [64]uint16

// Base tables from ITU-T T.81 Annex K.1 in natural order.
var (
	baseLuma = QuantTable{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	}
	baseChroma = QuantTable{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	}
)

type tableKey struct {
	kind    colorspace.Kind
	quality int
}

var tables sync.Map // tableKey -> *QuantTable

// Table returns the quantization table for a plane kind at quality 1..100
// (values outside are clamped). Tables are built once and shared; callers
// must not modify them.
func Table(kind colorspace.Kind, quality int) *QuantTable {
	quality = min(max(quality, 1), 100)
	key := tableKey{kind, quality}
	if t, ok := tables.Load(key); ok {
		return t.(*QuantTable)
	}
	t, _ := tables.LoadOrStore(key, buildTable(kind, quality))
	return t.(*QuantTable)
}

// buildTable scales a base table with the libjpeg quality formula.
func buildTable(kind colorspace.Kind, quality int) *QuantTable {
	base, mul := &baseLuma, 1
	switch kind {
	case colorspace.Chroma:
		base = &baseChroma
	case colorspace.Alpha:
		mul = 2
	}

	factor := 200 - 2*quality
	if quality < 50 {
		factor = 5000 / quality
	}
	t := new(QuantTable)
	for i, b := range base {
		step := (factor*int(b)*mul + 50) / 100
		t[i] = uint16(min(max(step, 1), 255))
	}
	return t
}
