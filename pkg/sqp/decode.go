package sqp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/jpfielding/sqp.go/pkg/compress/bitstream"
	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/lossless"
	"github.com/jpfielding/sqp.go/pkg/compress/lossy"
	"github.com/jpfielding/sqp.go/pkg/compress/pack"
)

func init() {
	image.RegisterFormat("sqp", Magic, decodeImage, decodeConfig)
}

// decoder walks a stream through the decode states. It never returns a
// partially assembled image.
type decoder struct {
	data    []byte
	pos     int
	state   State
	hdr     Header
	kinds   []colorspace.Kind
	ranges  []colorspace.Range
	planes  []colorspace.Plane
	seg     int
	payload []byte
	img     *Image
}

// Decode decompresses a complete stream. Failures are *DecodeError values
// wrapping one of the package sentinels.
func Decode(data []byte) (*Image, error) {
	d := &decoder{data: data, seg: -1}
	return d.run()
}

// DecodeFrom reads one stream from r. The bytes read after the header are
// bounded by what the header's dimensions can justify.
func DecodeFrom(r io.Reader) (*Image, error) {
	head, hdr, err := readHeaderFrom(r)
	if err != nil {
		return nil, &DecodeError{State: StateReadHeader, Segment: -1, Err: err}
	}
	limit := hdr.streamLimit()
	body, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, &DecodeError{State: StateReadSegment, Segment: -1, Err: fmt.Errorf("%w: %w", ErrTruncatedStream, err)}
	}
	if len(body) > limit {
		return nil, &DecodeError{State: StateReadSegment, Segment: -1, Err: fmt.Errorf("%w: stream exceeds %d bytes", ErrCorruptData, limit)}
	}
	return Decode(append(head, body...))
}

// readHeaderFrom reads and validates just the header bytes.
func readHeaderFrom(r io.Reader) ([]byte, Header, error) {
	head := make([]byte, baseHeaderSize, maxHeaderSize)
	n, err := io.ReadFull(r, head)
	if err != nil {
		// a short read is judged on what arrived, so bad magic stays ErrFormat
		if _, _, herr := readHeader(head[:n]); herr != nil {
			return nil, Header{}, herr
		}
		return nil, Header{}, fmt.Errorf("%w: %w", ErrTruncatedStream, err)
	}
	if head[14]&flagLossy != 0 {
		head = head[:maxHeaderSize]
		if _, err := io.ReadFull(r, head[baseHeaderSize:]); err != nil {
			return nil, Header{}, fmt.Errorf("%w: missing quality byte", ErrTruncatedStream)
		}
	}
	hdr, err := DecodeHeader(head)
	if err != nil {
		return nil, Header{}, err
	}
	return head, hdr, nil
}

func (d *decoder) run() (*Image, error) {
	for {
		var (
			next State
			err  error
		)
		switch d.state {
		case StateReadHeader:
			next, err = d.readHeader()
		case StateValidateHeader:
			next, err = d.validateHeader()
		case StateReadSegment:
			next, err = d.readSegment()
		case StateDecodeSegment:
			next, err = d.decodeSegment()
		case StateAssemble:
			next, err = d.assemble()
		case StateDone:
			return d.img, nil
		default:
			err = fmt.Errorf("%w: decoder in state %s", ErrCorruptData, d.state)
		}
		if err != nil {
			failed := d.state
			d.transition(StateError)
			return nil, &DecodeError{State: failed, Segment: d.seg, Err: err}
		}
		d.transition(next)
	}
}

func (d *decoder) transition(next State) {
	if next != d.state {
		slog.Debug("sqp decode",
			slog.String("from", d.state.String()),
			slog.String("to", next.String()),
			slog.Int("segment", d.seg))
	}
	d.state = next
}

func (d *decoder) readHeader() (State, error) {
	hdr, n, err := readHeader(d.data)
	if err != nil {
		return StateError, err
	}
	d.hdr, d.pos = hdr, n
	return StateValidateHeader, nil
}

func (d *decoder) validateHeader() (State, error) {
	if err := d.hdr.validate(); err != nil {
		return StateError, err
	}
	kinds, ranges, err := colorspace.Layout(d.hdr.Format, d.hdr.transform())
	if err != nil {
		return StateError, fmt.Errorf("%w: %w", ErrUnsupportedColorFormat, err)
	}
	d.kinds, d.ranges = kinds, ranges
	d.planes = make([]colorspace.Plane, 0, len(kinds))
	d.seg = 0
	return StateReadSegment, nil
}

func (d *decoder) readSegment() (State, error) {
	rest := d.data[d.pos:]
	if len(rest) < 4 {
		return StateError, fmt.Errorf("%w: segment length needs 4 bytes, have %d", ErrTruncatedStream, len(rest))
	}
	n := binary.BigEndian.Uint32(rest)
	if uint64(n) > uint64(len(rest)-4) {
		return StateError, fmt.Errorf("%w: segment of %d bytes, %d remain", ErrTruncatedStream, n, len(rest)-4)
	}
	d.payload = rest[4 : 4+int(n)]
	d.pos += 4 + int(n)
	return StateDecodeSegment, nil
}

func (d *decoder) decodeSegment() (State, error) {
	kind, rng := d.kinds[d.seg], d.ranges[d.seg]
	c := d.hdr.planeCoding(kind)
	raw, err := pack.Unpack(d.payload, d.hdr.segmentLimit(c))
	if err != nil {
		return StateError, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	p := colorspace.NewPlane(d.hdr.Width, d.hdr.Height, kind, rng)
	switch c {
	case codingRaw:
		if len(raw) != len(p.Data) {
			return StateError, fmt.Errorf("%w: raw plane has %d bytes, want %d", ErrCorruptData, len(raw), len(p.Data))
		}
		for i, v := range raw {
			p.Data[i] = int32(v)
		}
	case codingLossy:
		err = lossy.Decode(raw, &p, d.hdr.Quality)
	default:
		err = lossless.Decode(raw, &p)
	}
	if err != nil {
		if errors.Is(err, bitstream.ErrTruncated) {
			return StateError, fmt.Errorf("%w: %w", ErrTruncatedStream, err)
		}
		return StateError, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	d.planes = append(d.planes, p)
	d.payload = nil

	if len(d.planes) < len(d.kinds) {
		d.seg++
		return StateReadSegment, nil
	}
	if d.pos != len(d.data) {
		return StateError, fmt.Errorf("%w: %d trailing bytes", ErrCorruptData, len(d.data)-d.pos)
	}
	return StateAssemble, nil
}

func (d *decoder) assemble() (State, error) {
	d.seg = -1
	pix, err := colorspace.Merge(d.hdr.Format, d.hdr.transform(), d.hdr.Width, d.hdr.Height, d.planes)
	if err != nil {
		return StateError, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	d.planes = nil
	d.img = &Image{Width: d.hdr.Width, Height: d.hdr.Height, Format: d.hdr.Format, Pix: pix}
	return StateDone, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, err := DecodeFrom(r)
	if err != nil {
		return nil, err
	}
	return img.ToImage(), nil
}

func decodeConfig(r io.Reader) (image.Config, error) {
	_, hdr, err := readHeaderFrom(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: colorModel(hdr.Format), Width: hdr.Width, Height: hdr.Height}, nil
}
