package pack

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/jpfielding/sqp.go/pkg/compress/rle"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// storedPacker implements Packer without compression
type storedPacker struct{}

func (storedPacker) Method() Method { return Stored }
func (storedPacker) Name() string   { return "stored" }

func (storedPacker) Pack(raw []byte) ([]byte, error) { return raw, nil }

func (storedPacker) Unpack(packed []byte, rawLen int) ([]byte, error) {
	if len(packed) != rawLen {
		return nil, fmt.Errorf("stored length %d, want %d", len(packed), rawLen)
	}
	return packed, nil
}

// rlePacker implements Packer for PackBits
type rlePacker struct{}

func (rlePacker) Method() Method { return RLE }
func (rlePacker) Name() string   { return "rle" }

func (rlePacker) Pack(raw []byte) ([]byte, error) { return rle.Encode(raw), nil }

func (rlePacker) Unpack(packed []byte, rawLen int) ([]byte, error) {
	return rle.Decode(packed, rawLen)
}

var (
	zstdEncoders = sync.Pool{New: func() any { return mustNewZstdEncoder() }}
	zstdDecoders = sync.Pool{New: func() any { return mustNewZstdDecoder() }}
)

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

// zstdPacker implements Packer for Zstandard
type zstdPacker struct{}

func (zstdPacker) Method() Method { return Zstd }
func (zstdPacker) Name() string   { return "zstd" }

func (zstdPacker) Pack(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	enc := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(enc)
	return enc.EncodeAll(raw, nil), nil
}

func (zstdPacker) Unpack(packed []byte, rawLen int) ([]byte, error) {
	if len(packed) == 0 {
		// empty input packs to an empty frame list
		return readLimited(bytes.NewReader(nil), rawLen)
	}
	dec := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(dec)
	if err := dec.Reset(bytes.NewReader(packed)); err != nil {
		return nil, err
	}
	return readLimited(dec, rawLen)
}

// zlibPacker implements Packer for zlib (RFC 1950)
type zlibPacker struct{}

func (zlibPacker) Method() Method { return Zlib }
func (zlibPacker) Name() string   { return "zlib" }

func (zlibPacker) Pack(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (zlibPacker) Unpack(packed []byte, rawLen int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r, rawLen)
}

// readLimited reads exactly rawLen bytes and fails if r has more.
func readLimited(r io.Reader, rawLen int) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(rawLen)+1))
	if err != nil {
		return nil, err
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("expanded to %d bytes, want %d", len(out), rawLen)
	}
	return out, nil
}
