package sqp

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/util"
)

// ColorFormat is the pixel layout of an Image.
type ColorFormat = colorspace.Format

const (
	RGBA8      = colorspace.RGBA8
	RGB8       = colorspace.RGB8
	GrayAlpha8 = colorspace.GrayAlpha8
	Gray8      = colorspace.Gray8
)

// Image is one still raster with interleaved 8-bit channels, row-major.
type Image struct {
	Width  int
	Height int
	Format ColorFormat
	Pix    []byte
}

// NewImage allocates a zeroed image.
func NewImage(w, h int, f ColorFormat) *Image {
	return &Image{Width: w, Height: h, Format: f, Pix: make([]byte, w*h*f.Channels())}
}

// Validate checks dimensions, format and buffer length.
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if img.Width <= 0 || img.Height <= 0 || img.Width > MaxDimension || img.Height > MaxDimension || img.Width*img.Height > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrDimension, img.Width, img.Height)
	}
	if !img.Format.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedColorFormat, uint8(img.Format))
	}
	if want := img.Width * img.Height * img.Format.Channels(); len(img.Pix) != want {
		return fmt.Errorf("%w: %d bytes of pixel data, want %d", ErrInvalidImage, len(img.Pix), want)
	}
	return nil
}

// Planes returns one plane per channel in interleaved order, untransformed.
func (img *Image) Planes() ([]colorspace.Plane, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return colorspace.Split(img.Format, colorspace.Identity, img.Width, img.Height, img.Pix)
}

// ContentID is a stable name-based UUID of the format, dimensions and
// pixels. Lossless round trips preserve it.
func (img *Image) ContentID() string {
	return util.ContentID(img.Format.String(), img.Width, img.Height, img.Pix)
}

// ToImage converts to a standard library image: Gray8 to *image.Gray, RGB8
// to *image.RGBA and the alpha formats to *image.NRGBA.
func (img *Image) ToImage() image.Image {
	r := image.Rect(0, 0, img.Width, img.Height)
	n := img.Width * img.Height
	switch img.Format {
	case Gray8:
		out := image.NewGray(r)
		copy(out.Pix, img.Pix)
		return out
	case RGB8:
		out := image.NewRGBA(r)
		for i := 0; i < n; i++ {
			copy(out.Pix[i*4:i*4+3], img.Pix[i*3:i*3+3])
			out.Pix[i*4+3] = 0xff
		}
		return out
	case GrayAlpha8:
		out := image.NewNRGBA(r)
		for i := 0; i < n; i++ {
			g := img.Pix[i*2]
			out.Pix[i*4], out.Pix[i*4+1], out.Pix[i*4+2], out.Pix[i*4+3] = g, g, g, img.Pix[i*2+1]
		}
		return out
	default:
		out := image.NewNRGBA(r)
		copy(out.Pix, img.Pix)
		return out
	}
}

// FromImage converts a standard library image. Gray images become Gray8,
// opaque images RGB8 and everything else RGBA8 with straight alpha.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch s := src.(type) {
	case *image.Gray:
		out := NewImage(w, h, Gray8)
		for y := 0; y < h; y++ {
			copy(out.Pix[y*w:(y+1)*w], s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	case *image.Gray16:
		out := NewImage(w, h, Gray8)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Pix[y*w+x] = uint8(s.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return out
	}

	format := RGBA8
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		format = RGB8
	}
	out, _ := FromImageAs(src, format)
	return out
}

// FromImageAs converts a standard library image to the layout f. Colour
// reduces to gray with the color.GrayModel weights; alpha is straight.
func FromImageAs(src image.Image, f ColorFormat) (*Image, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedColorFormat, uint8(f))
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewImage(w, h, f)
	ch := f.Channels()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			px := out.Pix[(y*w+x)*ch : (y*w+x+1)*ch]
			if f.ColorChannels() == 1 {
				px[0] = color.GrayModel.Convert(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}).(color.Gray).Y
			} else {
				px[0], px[1], px[2] = c.R, c.G, c.B
			}
			if f.HasAlpha() {
				px[ch-1] = c.A
			}
		}
	}
	return out, nil
}

func colorModel(f ColorFormat) color.Model {
	switch f {
	case Gray8:
		return color.GrayModel
	case RGB8:
		return color.RGBAModel
	default:
		return color.NRGBAModel
	}
}
