package cmd

import (
	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/compress/lossless"
	"github.com/jpfielding/sqp.go/pkg/compress/pack"
	"github.com/jpfielding/sqp.go/pkg/sqp"
	"github.com/spf13/pflag"
)

// enum flags parse through the owning package so names stay in one place

type modeFlag struct{ v *sqp.Mode }

func (f modeFlag) String() string { return f.v.String() }
func (f modeFlag) Type() string   { return "mode" }
func (f modeFlag) Set(s string) (err error) {
	*f.v, err = sqp.ParseMode(s)
	return err
}

type packingFlag struct{ v *pack.Method }

func (f packingFlag) String() string { return f.v.String() }
func (f packingFlag) Type() string   { return "packing" }
func (f packingFlag) Set(s string) (err error) {
	*f.v, err = pack.ParseMethod(s)
	return err
}

type predictorFlag struct{ v *lossless.Predictor }

func (f predictorFlag) String() string { return f.v.String() }
func (f predictorFlag) Type() string   { return "predictor" }
func (f predictorFlag) Set(s string) (err error) {
	*f.v, err = lossless.ParsePredictor(s)
	return err
}

// formatFlag is optional; nil means keep the source layout.
type formatFlag struct{ v **colorspace.Format }

func (f formatFlag) String() string {
	if *f.v == nil {
		return ""
	}
	return (**f.v).String()
}
func (f formatFlag) Type() string { return "format" }
func (f formatFlag) Set(s string) error {
	v, err := colorspace.ParseFormat(s)
	if err != nil {
		return err
	}
	*f.v = &v
	return nil
}

// addOptionFlags binds the encoder options to fs.
func addOptionFlags(fs *pflag.FlagSet, opts *sqp.Options) {
	fs.Var(modeFlag{&opts.Mode}, "mode", "coding mode (lossless|lossy|raw)")
	fs.IntVarP(&opts.Quality, "quality", "q", opts.Quality, "lossy quality 1..100")
	fs.BoolVar(&opts.LossyAlpha, "lossy-alpha", opts.LossyAlpha, "code alpha with the DCT in lossy mode")
	fs.Var(packingFlag{&opts.Packing}, "packing", "segment packing (auto|stored|rle|zstd|zlib)")
	fs.Var(predictorFlag{&opts.Predictor}, "predictor", "lossless predictor (adaptive|none|left|up|average|paeth|med|gradient)")
}
