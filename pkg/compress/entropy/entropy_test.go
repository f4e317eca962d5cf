package entropy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jpfielding/sqp.go/pkg/compress/bitstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	noisy := make([]int32, 5000)
	for i := range noisy {
		noisy[i] = int32(rng.Intn(511) - 255)
	}
	sparse := make([]int32, 4096)
	for i := 0; i < len(sparse); i += 97 {
		sparse[i] = int32(i%13 - 6)
	}

	tests := []struct {
		name    string
		symbols []int32
	}{
		{"Empty", []int32{}},
		{"SingleZero", []int32{0}},
		{"SingleValue", []int32{42}},
		{"AllZeros", make([]int32, 1000)},
		{"Constant", repeat(7, 300)},
		{"Alternating", []int32{1, -1, 1, -1, 1, -1}},
		{"ExactlyZRL", append(make([]int32, 63), 5)},
		{"LongRun", append(append(make([]int32, 200), -3), make([]int32, 130)...)},
		{"Extremes", []int32{math.MaxInt32, math.MinInt32, 0, -1, 1, math.MinInt32 + 1}},
		{"Noisy", noisy},
		{"Sparse", sparse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := Encode(tt.symbols)
			got, err := Decode(data, len(tt.symbols))
			require.NoError(t, err)
			assert.Equal(t, tt.symbols, got)
		})
	}
}

func TestRoundTrip_SharedStream(t *testing.T) {
	w := bitstream.NewWriter(0)
	EncodeSmall(w, []uint32{0, 3, 3, 1, 6})
	EncodeTo(w, []int32{1, 0, 0, -9})
	EncodeTo(w, nil)
	EncodeTo(w, []int32{0, 0, 12})

	r := bitstream.NewReader(w.Bytes())
	small, err := DecodeSmall(r, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 3, 3, 1, 6}, small)

	a, err := DecodeFrom(r, 10)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 0, 0, -9}, a)
	b, err := DecodeFrom(r, 10)
	require.NoError(t, err)
	assert.Empty(t, b)
	c, err := DecodeFrom(r, 10)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 0, 12}, c)
}

func TestCompressesRuns(t *testing.T) {
	symbols := make([]int32, 64*64)
	symbols[0] = 100
	data := Encode(symbols)
	assert.Less(t, len(data), 32, "a single value followed by zeros should code to a handful of bytes")
}

func TestDecode_LimitRejectedBeforeAllocation(t *testing.T) {
	data := Encode(make([]int32, 100))
	_, err := Decode(data, 99)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_Corrupt(t *testing.T) {
	valid := Encode([]int32{5, 0, 0, -2, 17, 0, 0, 0, 3})

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"ShortCount", []byte{0x00, 0x00}},
		{"MissingTable", []byte{0x00, 0x00, 0x00, 0x05}},
		{"EmptyTable", []byte{0x00, 0x00, 0x00, 0x05, 0x00, 0x00}},
		{"Truncated", valid[:len(valid)-2]},
		{"ZeroLength", tableStream(t, []tableEntry{{0x001, 0}})},
		{"TooLong", tableStream(t, []tableEntry{{0x001, 25}})},
		{"BadToken", tableStream(t, []tableEntry{{0x040, 1}})}, // run 1, cat 0
		{"OutOfOrder", tableStream(t, []tableEntry{{0x002, 1}, {0x001, 1}})},
		{"Duplicate", tableStream(t, []tableEntry{{0x001, 1}, {0x001, 1}})},
		{"OverSubscribed", tableStream(t, []tableEntry{{0x001, 1}, {0x002, 1}, {0x003, 1}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, 1000)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecode_TruncationWrapsBitstreamError(t *testing.T) {
	valid := Encode([]int32{5, 0, 0, -2, 17})
	_, err := Decode(valid[:3], 10)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, bitstream.ErrTruncated)
}

func TestDecode_InvalidCode(t *testing.T) {
	// one symbol with code "0"; a "1" bit is not a valid code
	w := bitstream.NewWriter(0)
	w.WriteBits(3, 32)
	writeTable(w, []huffCode{{sym: 0x001, len: 1}})
	w.WriteBits(0xFFFFFFFF, 32)
	_, err := Decode(w.Bytes(), 10)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_RunOverrun(t *testing.T) {
	// count 2, but the only token is "run 5 then value 1"
	w := bitstream.NewWriter(0)
	w.WriteBits(2, 32)
	writeTable(w, []huffCode{{sym: 5<<6 | 1, len: 1}})
	w.WriteBits(0, 1) // code
	w.WriteBits(1, 1) // extra
	_, err := Decode(w.Bytes(), 10)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCategoryAndExtend(t *testing.T) {
	tests := []struct {
		v   int32
		cat uint8
	}{
		{1, 1}, {-1, 1}, {2, 2}, {-3, 2}, {255, 8}, {-256, 9}, {math.MaxInt32, 31}, {math.MinInt32, 32},
	}
	for _, tt := range tests {
		cat := category(tt.v)
		assert.Equal(t, tt.cat, cat, "category(%d)", tt.v)
		assert.Equal(t, tt.v, extend(uint64(extraBits(tt.v, cat)), cat), "extend(%d)", tt.v)
	}
}

func TestHuffLengths(t *testing.T) {
	assert.Equal(t, []int{1}, huffLengths([]int{10}))
	assert.Equal(t, []int{1, 1}, huffLengths([]int{1, 100}))
	assert.Equal(t, []int{1, 2, 3, 3}, huffLengths([]int{8, 4, 2, 2}))

	// fibonacci weights produce a maximally skewed tree
	fib := []int{1, 1}
	for len(fib) < 40 {
		fib = append(fib, fib[len(fib)-1]+fib[len(fib)-2])
	}
	lengths := limitedLengths(fib)
	kraft := 0.0
	for _, l := range lengths {
		assert.LessOrEqual(t, l, maxCodeLen)
		kraft += math.Pow(2, -float64(l))
	}
	assert.LessOrEqual(t, kraft, 1.0)
}

func TestGolomb_ReadVectors(t *testing.T) {
	// k=0: 1 -> 0, 001 -> 2; k=2: 0001 01 -> 13
	data := []byte{0b10010001, 0b01110000}
	r := bitstream.NewReader(data)

	val, err := readGolomb(r, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), val)

	val, err = readGolomb(r, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), val)

	val, err = readGolomb(r, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(13), val)
}

func TestGolomb_RoundTripAndEscape(t *testing.T) {
	values := []uint32{0, 1, 2, 6, 0, 0, 100000, 3, math.MaxUint32, 5}
	w := bitstream.NewWriter(0)
	EncodeSmall(w, values)
	got, err := DecodeSmall(bitstream.NewReader(w.Bytes()), len(values), math.MaxUint32)
	require.Error(t, err, "MaxUint32 is not below the bound")

	got, err = DecodeSmall(bitstream.NewReader(w.Bytes()), len(values)-2, math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, values[:len(values)-2], got)
}

func TestGolomb_Corrupt(t *testing.T) {
	_, err := DecodeSmall(bitstream.NewReader([]byte{0, 0, 0, 0, 0}), 1, 8)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = DecodeSmall(bitstream.NewReader([]byte{0x80}), 9, 8)
	assert.ErrorIs(t, err, ErrCorrupt, "more values than bits")

	w := bitstream.NewWriter(0)
	EncodeSmall(w, []uint32{9})
	_, err = DecodeSmall(bitstream.NewReader(w.Bytes()), 1, 8)
	assert.ErrorIs(t, err, ErrCorrupt, "out of range value")
}

type tableEntry struct {
	sym uint16
	len uint8
}

// tableStream builds a stream header with a hand-written code table.
func tableStream(t *testing.T, entries []tableEntry) []byte {
	t.Helper()
	w := bitstream.NewWriter(0)
	w.WriteBits(4, 32)
	w.WriteBits(uint64(len(entries)), countBits)
	for _, e := range entries {
		w.WriteBits(uint64(e.sym), tokenBits)
		w.WriteBits(uint64(e.len), lenBits)
	}
	w.WriteBits(0, 16)
	return w.Bytes()
}

func repeat(v int32, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
