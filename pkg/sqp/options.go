package sqp

import (
	"fmt"
	"strings"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/lossless"
	"github.com/jpfielding/sqp.go/pkg/compress/pack"
)

// Mode selects how planes are coded.
type Mode uint8

const (
	// Lossless codes every plane with a spatial predictor; decoding is exact.
	Lossless Mode = iota
	// Lossy codes colour planes (and alpha, with LossyAlpha) with the 8x8 DCT.
	Lossy
	// Raw stores planes as bytes, still framed and packed.
	Raw
)

var modeNames = map[Mode]string{Lossless: "lossless", Lossy: "lossy", Raw: "raw"}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode accepts the names printed by String.
func ParseMode(s string) (Mode, error) {
	for m, n := range modeNames {
		if strings.EqualFold(s, n) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, s)
}

func (m Mode) transform() colorspace.Transform {
	switch m {
	case Lossless:
		return colorspace.Reversible
	case Lossy:
		return colorspace.YCbCr
	default:
		return colorspace.Identity
	}
}

// Options configures encoding
type Options struct {
	Mode       Mode               // default: Lossless
	Quality    int                // 1..100, Lossy only
	LossyAlpha bool               // code alpha with the DCT too (Lossy only)
	Packing    pack.Method        // segment packing (default: Auto)
	Predictor  lossless.Predictor // lossless predictor (default: Adaptive)
}

// DefaultOptions returns default encoding options
func DefaultOptions() *Options {
	return &Options{
		Mode:      Lossless,
		Quality:   90,
		Packing:   pack.Auto,
		Predictor: lossless.Adaptive,
	}
}

func (o *Options) validate() error {
	if _, ok := modeNames[o.Mode]; !ok {
		return fmt.Errorf("%w: mode %d", ErrInvalidOptions, o.Mode)
	}
	if o.Mode == Lossy && (o.Quality < 1 || o.Quality > 100) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidOptions, ErrInvalidQuality, o.Quality)
	}
	if !o.Packing.Valid() {
		return fmt.Errorf("%w: packing %d", ErrInvalidOptions, o.Packing)
	}
	if !o.Predictor.Valid() {
		return fmt.Errorf("%w: predictor %d", ErrInvalidOptions, o.Predictor)
	}
	return nil
}
