// Package pack applies a general purpose compressor to a coded segment.
//
// A packed payload is one method byte, the unpacked length as a uvarint,
// then the packed bytes.
package pack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	ErrCorrupt       = errors.New("pack: corrupt payload")
	ErrUnknownMethod = errors.New("pack: unknown method")
)

// Method identifies a packer on the wire.
type Method uint8

const (
	Stored Method = 0
	RLE    Method = 1
	Zstd   Method = 2
	Zlib   Method = 3
	// Auto tries every method and keeps the smallest result. It is never
	// written to a stream.
	Auto Method = 0xFF
)

// Packer defines the interface for a segment compressor
type Packer interface {
	// Method returns the wire id
	Method() Method
	// Name returns the packer identifier (e.g., "zstd")
	Name() string
	// Pack compresses raw
	Pack(raw []byte) ([]byte, error)
	// Unpack decompresses packed, which must expand to exactly rawLen bytes
	Unpack(packed []byte, rawLen int) ([]byte, error)
}

// packersByMethod maps wire ids to implementations
var packersByMethod = map[Method]Packer{
	Stored: storedPacker{},
	RLE:    rlePacker{},
	Zstd:   zstdPacker{},
	Zlib:   zlibPacker{},
}

// autoOrder is the order Auto tries methods in; earlier wins ties.
var autoOrder = []Method{Stored, RLE, Zstd, Zlib}

// PackerFor returns the packer for m, or nil if there is none.
func PackerFor(m Method) Packer {
	return packersByMethod[m]
}

func (m Method) String() string {
	if m == Auto {
		return "auto"
	}
	if p := PackerFor(m); p != nil {
		return p.Name()
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// Valid reports whether m can be passed to Pack.
func (m Method) Valid() bool {
	return m == Auto || PackerFor(m) != nil
}

// ParseMethod accepts the names printed by String.
func ParseMethod(s string) (Method, error) {
	if strings.EqualFold(s, "auto") {
		return Auto, nil
	}
	for _, m := range autoOrder {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Pack frames raw with method m and returns the payload and the method
// actually used.
func Pack(raw []byte, m Method) ([]byte, Method, error) {
	methods := []Method{m}
	if m == Auto {
		methods = autoOrder
	}

	var best []byte
	used := m
	for i, cand := range methods {
		p := PackerFor(cand)
		if p == nil {
			return nil, 0, fmt.Errorf("%w: %d", ErrUnknownMethod, cand)
		}
		packed, err := p.Pack(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("pack: %s: %w", p.Name(), err)
		}
		if i == 0 || len(packed) < len(best) {
			best, used = packed, cand
		}
	}

	out := make([]byte, 0, 1+binary.MaxVarintLen64+len(best))
	out = append(out, byte(used))
	out = binary.AppendUvarint(out, uint64(len(raw)))
	out = append(out, best...)
	slog.Debug("packed segment",
		slog.String("method", used.String()),
		slog.Int("raw", len(raw)),
		slog.Int("packed", len(out)))
	return out, used, nil
}

// Header parses the method and unpacked length of a payload.
func Header(payload []byte) (Method, uint64, []byte, error) {
	if len(payload) == 0 {
		return 0, 0, nil, fmt.Errorf("%w: empty payload", ErrCorrupt)
	}
	m := Method(payload[0])
	rawLen, n := binary.Uvarint(payload[1:])
	if n <= 0 {
		return 0, 0, nil, fmt.Errorf("%w: bad length prefix", ErrCorrupt)
	}
	return m, rawLen, payload[1+n:], nil
}

// Unpack reverses Pack. Payloads claiming more than limit unpacked bytes
// are rejected before anything is allocated. The result may alias payload.
func Unpack(payload []byte, limit int) ([]byte, error) {
	m, rawLen, packed, err := Header(payload)
	if err != nil {
		return nil, err
	}
	if rawLen > uint64(limit) {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrCorrupt, rawLen, limit)
	}
	p := PackerFor(m)
	if p == nil {
		return nil, fmt.Errorf("%w: %w: %d", ErrCorrupt, ErrUnknownMethod, m)
	}
	raw, err := p.Unpack(packed, int(rawLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, p.Name(), err)
	}
	if len(raw) != int(rawLen) {
		return nil, fmt.Errorf("%w: %s produced %d of %d bytes", ErrCorrupt, p.Name(), len(raw), rawLen)
	}
	return raw, nil
}
