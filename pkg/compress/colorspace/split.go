package colorspace

import "fmt"

// Split de-interleaves pix into planes and applies t to the colour
// channels. Plane order is the colour planes followed by alpha.
func Split(f Format, t Transform, w, h int, pix []byte) ([]Plane, error) {
	kinds, ranges, err := Layout(f, t)
	if err != nil {
		return nil, err
	}
	ch := f.Channels()
	if w <= 0 || h <= 0 || len(pix) != w*h*ch {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %s", ErrPlaneMismatch, len(pix), w, h, f)
	}

	planes := make([]Plane, ch)
	for c := range planes {
		planes[c] = NewPlane(w, h, kinds[c], ranges[c])
	}
	for i := 0; i < w*h; i++ {
		px := pix[i*ch : i*ch+ch]
		for c := range planes {
			planes[c].Data[i] = int32(px[c])
		}
	}

	if f.ColorChannels() == 3 {
		switch t {
		case Reversible:
			ForwardRCT(planes[0].Data, planes[1].Data, planes[2].Data)
		case YCbCr:
			ForwardYCbCr(planes[0].Data, planes[1].Data, planes[2].Data)
		}
	}
	return planes, nil
}

// Merge inverts Split and interleaves the result. The planes are consumed:
// their data is transformed in place. Exact transforms reject samples that
// do not fit in a byte; YCbCr clamps them.
func Merge(f Format, t Transform, w, h int, planes []Plane) ([]byte, error) {
	if _, _, err := Layout(f, t); err != nil {
		return nil, err
	}
	ch := f.Channels()
	if len(planes) != ch {
		return nil, fmt.Errorf("%w: %d planes for %s", ErrPlaneMismatch, len(planes), f)
	}
	for c, p := range planes {
		if p.Width != w || p.Height != h || len(p.Data) != w*h {
			return nil, fmt.Errorf("%w: plane %d is %dx%d with %d samples, want %dx%d", ErrPlaneMismatch, c, p.Width, p.Height, len(p.Data), w, h)
		}
	}

	if f.ColorChannels() == 3 {
		switch t {
		case Reversible:
			InverseRCT(planes[0].Data, planes[1].Data, planes[2].Data)
		case YCbCr:
			InverseYCbCr(planes[0].Data, planes[1].Data, planes[2].Data)
		}
	}

	pix := make([]byte, w*h*ch)
	for c, p := range planes {
		for i, v := range p.Data {
			if !SampleRange.Contains(v) {
				return nil, fmt.Errorf("%w: %d in plane %d", ErrOutOfRange, v, c)
			}
			pix[i*ch+c] = byte(v)
		}
	}
	return pix, nil
}
