package rle

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackBitsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", []byte{}},
		{"Single", []byte{0xAA}},
		{"Run2", []byte{0xAA, 0xAA}},
		{"Run3", []byte{0xAA, 0xAA, 0xAA}},
		{"Literal", []byte{0x01, 0x02, 0x03}},
		{"Mixed", []byte{0xAA, 0xAA, 0xAA, 0x01, 0x02, 0xBB, 0xBB}},
		{"LongRun", makeBytes(0xCC, 130)},
		{"LongLiteral", makeSequence(0, 130)},
		{"MaxRun", makeBytes(0xAA, 128)},
		{"MaxRunPlus1", makeBytes(0xAA, 129)},
		{"MaxLiteral", makeSequence(0, 128)},
		{"MaxLiteralPlus1", makeSequence(0, 129)},
		{"Alternating", []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := Encode(tt.data)
			decompressed, err := Decode(compressed, len(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.data, decompressed, "Roundtrip mismatch")
		})
	}
}

func TestEncode_Vectors(t *testing.T) {
	assert.Equal(t, []byte{0x81, 0xAA}, Encode(makeBytes(0xAA, 128)))
	assert.Equal(t, []byte{0xFE, 0xAA, 0x01, 0x01, 0x02}, Encode([]byte{0xAA, 0xAA, 0xAA, 0x01, 0x02}))
	assert.Equal(t, []byte{0x00, 0x07}, Encode([]byte{0x07}))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected int
		err      error
	}{
		{"TruncatedLiteral", []byte{0x02, 0x01}, 3, ErrTruncated},
		{"TruncatedReplicate", []byte{0xFE}, 3, ErrTruncated},
		{"TruncatedLiteralBoundary", []byte{0x00}, 1, ErrTruncated},
		{"ShortOutput", []byte{0xFE, 0x05}, 4, ErrTruncated},
		{"LiteralOverflow", []byte{0x02, 0x01, 0x02, 0x03}, 2, ErrOverflow},
		{"ReplicateOverflow", []byte{0x81, 0x00}, 127, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input, tt.expected)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Decode(nil, -1)
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	assert.Nil(t, Encode(nil))
	for _, in := range [][]byte{nil, {}, {0x80, 0x80}} {
		out, err := Decode(in, 0)
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	}
}

func TestDecode_CapacityBoundedByInput(t *testing.T) {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := Decode([]byte{0x81, 0x00}, 1<<30)
	runtime.ReadMemStats(&after)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), "a two byte run must not reserve the claimed length")

	out, err := Decode([]byte{0x81, 0x07}, 128)
	require.NoError(t, err)
	assert.Equal(t, makeBytes(0x07, 128), out)
}

func TestDecode_NoOp(t *testing.T) {
	out, err := Decode([]byte{0x80, 0xFF, 0x09, 0x80}, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09, 0x09}, out)
}

func makeBytes(val byte, n int) []byte {
	res := make([]byte, n)
	for i := range res {
		res[i] = val
	}
	return res
}

func makeSequence(start byte, n int) []byte {
	res := make([]byte, n)
	val := start
	for i := range res {
		res[i] = val
		val++
	}
	return res
}
