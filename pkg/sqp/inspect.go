package sqp

import (
	"encoding/binary"
	"fmt"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/pack"
	"github.com/jpfielding/sqp.go/pkg/util"
)

func (c coding) String() string {
	switch c {
	case codingLossless:
		return "lossless"
	case codingLossy:
		return "lossy"
	case codingRaw:
		return "raw"
	default:
		return fmt.Sprintf("coding(%d)", uint8(c))
	}
}

// SegmentInfo describes one plane segment as stored.
type SegmentInfo struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Coding  string `json:"coding"`
	Packing string `json:"packing"`
	RawLen  uint64 `json:"raw_len"`
	Length  int    `json:"length"` // payload bytes, method byte included
}

// StreamInfo is the header and segment table of a stream.
type StreamInfo struct {
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Format     string        `json:"format"`
	Mode       string        `json:"mode"`
	Quality    int           `json:"quality,omitempty"`
	LossyAlpha bool          `json:"lossy_alpha,omitempty"`
	Size       int           `json:"size"`
	MD5        string        `json:"md5"` // of the whole stream
	Segments   []SegmentInfo `json:"segments"`
}

// Inspect walks the segment framing of data without decoding any plane.
func Inspect(data []byte) (*StreamInfo, error) {
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	kinds, _, err := colorspace.Layout(hdr.Format, hdr.transform())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedColorFormat, err)
	}

	info := &StreamInfo{
		Width:      hdr.Width,
		Height:     hdr.Height,
		Format:     hdr.Format.String(),
		Mode:       hdr.Mode.String(),
		Quality:    hdr.Quality,
		LossyAlpha: hdr.LossyAlpha,
		Size:       len(data),
		MD5:        util.Md5ThenHex(data),
	}
	pos := hdr.Size()
	for i, k := range kinds {
		rest := data[pos:]
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: segment %d length", ErrTruncatedStream, i)
		}
		n := binary.BigEndian.Uint32(rest)
		if uint64(n) > uint64(len(rest)-4) {
			return nil, fmt.Errorf("%w: segment %d of %d bytes, %d remain", ErrTruncatedStream, i, n, len(rest)-4)
		}
		m, rawLen, _, err := pack.Header(rest[4 : 4+int(n)])
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %w", ErrCorruptData, i, err)
		}
		info.Segments = append(info.Segments, SegmentInfo{
			Index:   i,
			Kind:    k.String(),
			Coding:  hdr.planeCoding(k).String(),
			Packing: m.String(),
			RawLen:  rawLen,
			Length:  int(n),
		})
		pos += 4 + int(n)
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptData, len(data)-pos)
	}
	return info, nil
}
