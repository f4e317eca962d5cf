package sqp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/lossless"
	"github.com/jpfielding/sqp.go/pkg/compress/lossy"
	"github.com/jpfielding/sqp.go/pkg/compress/pack"
)

// coding is the path a single plane takes.
type coding uint8

const (
	codingLossless coding = iota
	codingLossy
	codingRaw
)

// Encode compresses img. Options and image are validated before any
// output is produced; nil options mean DefaultOptions.
func Encode(img *Image, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	hdr := Header{
		Width:      img.Width,
		Height:     img.Height,
		Format:     img.Format,
		Mode:       opts.Mode,
		LossyAlpha: opts.Mode == Lossy && opts.LossyAlpha && img.Format.HasAlpha(),
	}
	if hdr.Mode == Lossy {
		hdr.Quality = opts.Quality
	}

	planes, err := colorspace.Split(img.Format, hdr.transform(), img.Width, img.Height, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	// planes are independent; code them concurrently and keep plane order
	segments := make([][]byte, len(planes))
	errs := make([]error, len(planes))
	var wg sync.WaitGroup
	for i := range planes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			segments[i], errs[i] = encodePlane(hdr, planes[i], opts)
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	size := hdr.Size()
	for _, s := range segments {
		size += 4 + len(s)
	}
	out := hdr.appendTo(make([]byte, 0, size))
	for _, s := range segments {
		out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
		out = append(out, s...)
	}

	slog.Debug("sqp encode",
		slog.Int("width", hdr.Width),
		slog.Int("height", hdr.Height),
		slog.String("format", hdr.Format.String()),
		slog.String("mode", hdr.Mode.String()),
		slog.Int("quality", hdr.Quality),
		slog.Int("bytes", len(out)))
	return out, nil
}

// EncodeTo writes the compressed stream to w.
func EncodeTo(w io.Writer, img *Image, opts *Options) error {
	data, err := Encode(img, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func encodePlane(hdr Header, p colorspace.Plane, opts *Options) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch hdr.planeCoding(p.Kind) {
	case codingRaw:
		raw = make([]byte, len(p.Data))
		for i, v := range p.Data {
			raw[i] = byte(v)
		}
	case codingLossy:
		raw, err = lossy.Encode(p, hdr.Quality)
	default:
		raw, err = lossless.Encode(p, opts.Predictor)
	}
	if err != nil {
		return nil, err
	}
	payload, _, err := pack.Pack(raw, opts.Packing)
	return payload, err
}
