package colorspace

import "fmt"

// Range is the inclusive interval a plane's samples live in.
type Range struct {
	Min, Max int32
}

var (
	// SampleRange holds unsigned 8-bit samples.
	SampleRange = Range{0, 255}
	// DiffRange holds RCT chroma differences.
	DiffRange = Range{-255, 255}
	// ChromaRange holds YCbCr chroma centred at zero.
	ChromaRange = Range{-128, 127}
)

func (r Range) Contains(v int32) bool { return v >= r.Min && v <= r.Max }

func (r Range) Clamp(v int32) int32 {
	return min(max(v, r.Min), r.Max)
}

// Center is the level shift that brings the range around zero.
func (r Range) Center() int32 { return (r.Min + r.Max + 1) / 2 }

// Kind tells the coders what a plane holds.
type Kind uint8

const (
	Luma Kind = iota
	Chroma
	Alpha
)

func (k Kind) String() string {
	switch k {
	case Luma:
		return "luma"
	case Chroma:
		return "chroma"
	case Alpha:
		return "alpha"
	default:
		return "unknown"
	}
}

// Plane is one channel of an image, row-major with no padding.
type Plane struct {
	Width  int
	Height int
	Kind   Kind
	Range  Range
	Data   []int32
}

// NewPlane allocates a zeroed plane.
func NewPlane(w, h int, kind Kind, r Range) Plane {
	return Plane{Width: w, Height: h, Kind: kind, Range: r, Data: make([]int32, w*h)}
}

// At returns the sample at (x, y).
func (p Plane) At(x, y int) int32 { return p.Data[y*p.Width+x] }

// Row returns row y as a sub-slice of Data.
func (p Plane) Row(y int) []int32 { return p.Data[y*p.Width : (y+1)*p.Width] }

// Layout returns the kind and range of every plane Split produces for f
// under t, in plane order.
func Layout(f Format, t Transform) ([]Kind, []Range, error) {
	if !f.Valid() {
		return nil, nil, ErrUnsupportedFormat
	}
	kinds := make([]Kind, 0, f.Channels())
	ranges := make([]Range, 0, f.Channels())
	switch f.ColorChannels() {
	case 1:
		kinds = append(kinds, Luma)
		ranges = append(ranges, SampleRange)
	case 3:
		switch t {
		case Identity:
			kinds = append(kinds, Luma, Luma, Luma)
			ranges = append(ranges, SampleRange, SampleRange, SampleRange)
		case Reversible:
			kinds = append(kinds, Luma, Chroma, Chroma)
			ranges = append(ranges, SampleRange, DiffRange, DiffRange)
		case YCbCr:
			kinds = append(kinds, Luma, Chroma, Chroma)
			ranges = append(ranges, SampleRange, ChromaRange, ChromaRange)
		default:
			return nil, nil, fmt.Errorf("colorspace: unknown transform %d", t)
		}
	default:
		return nil, nil, ErrUnsupportedFormat
	}
	if f.HasAlpha() {
		kinds = append(kinds, Alpha)
		ranges = append(ranges, SampleRange)
	}
	return kinds, ranges, nil
}
