package lossy

import (
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Q80(t *testing.T) {
	want := QuantTable{
		6, 4, 4, 6, 10, 16, 20, 24,
		5, 5, 6, 8, 10, 23, 24, 22,
		6, 5, 6, 10, 16, 23, 28, 22,
		6, 7, 9, 12, 20, 35, 32, 25,
		7, 9, 15, 22, 27, 44, 41, 31,
		10, 14, 22, 26, 32, 42, 45, 37,
		20, 26, 31, 35, 41, 48, 48, 40,
		29, 37, 38, 39, 45, 40, 41, 40,
	}
	assert.Equal(t, want, *Table(colorspace.Luma, 80))
}

func TestTable(t *testing.T) {
	assert.Equal(t, baseLuma, *Table(colorspace.Luma, 50))
	assert.Equal(t, baseChroma, *Table(colorspace.Chroma, 50))
	for _, kind := range []colorspace.Kind{colorspace.Luma, colorspace.Chroma, colorspace.Alpha} {
		for _, v := range Table(kind, 100) {
			assert.Equal(t, uint16(1), v)
		}
		for _, v := range Table(kind, 1) {
			assert.Equal(t, uint16(255), v)
		}
	}
	assert.Same(t, Table(colorspace.Chroma, 33), Table(colorspace.Chroma, 33))
	assert.Same(t, Table(colorspace.Luma, 100), Table(colorspace.Luma, 140), "quality is clamped")
}

func TestTable_MonotonicAndAlphaCoarser(t *testing.T) {
	for _, kind := range []colorspace.Kind{colorspace.Luma, colorspace.Chroma, colorspace.Alpha} {
		t.Run(kind.String(), func(t *testing.T) {
			for q := 100; q > 1; q-- {
				hi, lo := Table(kind, q), Table(kind, q-1)
				for i := range hi {
					require.LessOrEqual(t, hi[i], lo[i], "step %d at quality %d", i, q)
				}
			}
		})
	}
	for q := 1; q <= 100; q++ {
		luma, alpha := Table(colorspace.Luma, q), Table(colorspace.Alpha, q)
		for i := range luma {
			require.GreaterOrEqual(t, alpha[i], luma[i])
		}
	}
}

func TestZigzag(t *testing.T) {
	seen := map[int]bool{}
	for k, nat := range zigzag {
		require.False(t, seen[nat], "index %d repeated", nat)
		seen[nat] = true
		if k > 0 {
			prev := zigzag[k-1]
			// each step moves to the same or the next anti-diagonal
			d := nat/8 + nat%8 - (prev/8 + prev%8)
			assert.Contains(t, []int{0, 1}, d, "scan position %d", k)
		}
	}
	assert.Len(t, seen, 64)
}

func TestDCT(t *testing.T) {
	t.Run("constant", func(t *testing.T) {
		var blk [64]float64
		for i := range blk {
			blk[i] = 10
		}
		fdct(&blk)
		assert.InDelta(t, 80, blk[0], 1e-9)
		for i := 1; i < 64; i++ {
			assert.InDelta(t, 0, blk[i], 1e-9, "coefficient %d", i)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		rng := rand.New(rand.NewSource(5))
		var blk, orig [64]float64
		energy := 0.0
		for i := range blk {
			blk[i] = float64(rng.Intn(256) - 128)
			energy += blk[i] * blk[i]
		}
		orig = blk
		fdct(&blk)
		coefEnergy := 0.0
		for _, v := range blk {
			coefEnergy += v * v
		}
		assert.InDelta(t, energy, coefEnergy, 1e-6, "orthonormal transform keeps energy")
		idct(&blk)
		for i := range blk {
			assert.InDelta(t, orig[i], blk[i], 1e-9)
		}
	})

	t.Run("horizontal frequency", func(t *testing.T) {
		var blk [64]float64
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				blk[y*8+x] = dctCoeff[1][x]
			}
		}
		fdct(&blk)
		// a pure horizontal cosine lands in row 0, column 1
		assert.InDelta(t, math.Sqrt(8), blk[1], 1e-9)
		assert.InDelta(t, 0, blk[8], 1e-9)
	})
}

func texturePlane(w, h int, kind colorspace.Kind, r colorspace.Range, seed int64) colorspace.Plane {
	rng := rand.New(rand.NewSource(seed))
	p := colorspace.NewPlane(w, h, kind, r)
	span := float64(r.Max - r.Min)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(r.Min) + span*(0.5+0.3*math.Sin(float64(x)/5)*math.Cos(float64(y)/7))
			v += float64(rng.Intn(31) - 15)
			p.Data[y*w+x] = r.Clamp(int32(v))
		}
	}
	return p
}

func maxAbsError(a, b []int32) (maxErr int32, mean float64) {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		maxErr = max(maxErr, d)
		sum += float64(d)
	}
	return maxErr, sum / float64(len(a))
}

func roundTrip(t *testing.T, p colorspace.Plane, quality int) (colorspace.Plane, int) {
	t.Helper()
	data, err := Encode(p, quality)
	require.NoError(t, err)
	got := colorspace.NewPlane(p.Width, p.Height, p.Kind, p.Range)
	require.NoError(t, Decode(data, &got, quality))
	return got, len(data)
}

func TestRoundTrip_Quality100(t *testing.T) {
	tests := []struct {
		name string
		p    colorspace.Plane
	}{
		{"luma", texturePlane(64, 64, colorspace.Luma, colorspace.SampleRange, 1)},
		{"chroma", texturePlane(24, 16, colorspace.Chroma, colorspace.ChromaRange, 2)},
		{"alpha", texturePlane(9, 13, colorspace.Alpha, colorspace.SampleRange, 3)},
		{"1x1", texturePlane(1, 1, colorspace.Luma, colorspace.SampleRange, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := roundTrip(t, tt.p, 100)
			maxErr, _ := maxAbsError(tt.p.Data, got.Data)
			assert.LessOrEqual(t, maxErr, int32(2))
		})
	}
}

func TestRoundTrip_PaddingCropped(t *testing.T) {
	p := texturePlane(10, 10, colorspace.Luma, colorspace.SampleRange, 9)
	for _, q := range []int{1, 50, 100} {
		got, _ := roundTrip(t, p, q)
		assert.Equal(t, 10, got.Width)
		assert.Equal(t, 10, got.Height)
		assert.Len(t, got.Data, 100)
		for _, v := range got.Data {
			require.True(t, got.Range.Contains(v))
		}
	}
}

func TestRoundTrip_ErrorAndSizeFollowQuality(t *testing.T) {
	p := texturePlane(64, 64, colorspace.Luma, colorspace.SampleRange, 21)

	prevMean := math.Inf(1)
	sizes := map[int]int{}
	for _, q := range []int{10, 50, 90, 100} {
		got, n := roundTrip(t, p, q)
		_, mean := maxAbsError(p.Data, got.Data)
		assert.LessOrEqual(t, mean, prevMean, "quality %d", q)
		prevMean = mean
		sizes[q] = n
	}
	assert.Less(t, sizes[10], sizes[90])
}

func TestRoundTrip_ConstantPlaneIsSmall(t *testing.T) {
	p := colorspace.NewPlane(256, 256, colorspace.Luma, colorspace.SampleRange)
	for i := range p.Data {
		p.Data[i] = 200
	}
	got, n := roundTrip(t, p, 90)
	assert.Less(t, n, 64)
	maxErr, _ := maxAbsError(p.Data, got.Data)
	assert.LessOrEqual(t, maxErr, int32(1))
}

func TestEncode_Errors(t *testing.T) {
	p := texturePlane(8, 8, colorspace.Luma, colorspace.SampleRange, 1)
	_, err := Encode(p, 0)
	assert.ErrorIs(t, err, ErrInvalidQuality)
	_, err = Encode(p, 101)
	assert.ErrorIs(t, err, ErrInvalidQuality)
	_, err = Encode(colorspace.Plane{Width: 3, Height: 3}, 50)
	assert.Error(t, err)
}

func TestDecode_Corrupt(t *testing.T) {
	p := texturePlane(20, 12, colorspace.Luma, colorspace.SampleRange, 6)
	data, err := Encode(p, 75)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		w, h int
	}{
		{"empty", nil, 20, 12},
		{"truncated", data[:len(data)-3], 20, 12},
		{"trailing", append(append([]byte(nil), data...), 1), 20, 12},
		{"fewer blocks", data, 8, 8},
		{"more blocks", data, 40, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := colorspace.NewPlane(tt.w, tt.h, p.Kind, p.Range)
			assert.ErrorIs(t, Decode(tt.data, &got, 75), ErrCorrupt)
		})
	}

	got := colorspace.NewPlane(20, 12, p.Kind, p.Range)
	assert.ErrorIs(t, Decode(data, &got, 0), ErrInvalidQuality)
}

func TestForEachBlock(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		counts := make([]int32, n)
		forEachBlock(n, func(i int) {
			atomic.AddInt32(&counts[i], 1)
		})
		for i, c := range counts {
			require.Equal(t, int32(1), c, "block %d of %d", i, n)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	p := texturePlane(512, 512, colorspace.Luma, colorspace.SampleRange, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encode(p, 75)
	}
}
