package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
	"github.com/jpfielding/sqp.go/pkg/logging"
	"github.com/jpfielding/sqp.go/pkg/sqp"
	"github.com/spf13/cobra"
)

// NewEncodeCmd compresses a raster image to SQP.
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	opts := sqp.DefaultOptions()
	var format *colorspace.Format
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode an image as SQP",
		Long:  "Reads PNG, JPEG, GIF, BMP, TIFF, WebP or SQP and writes an SQP stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			ctx := logging.AppendCtx(ctx, slog.String("in", in), slog.String("out", out))

			r, err := openInput(ctx, in)
			if err != nil {
				return err
			}
			defer r.Close()
			src, name, err := readImage(r)
			if err != nil {
				return err
			}

			img := sqp.FromImage(src)
			if format != nil {
				if img, err = sqp.FromImageAs(src, *format); err != nil {
					return err
				}
			}
			data, err := sqp.Encode(img, opts)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			force, _ := cmd.Flags().GetBool("force")
			err = writeOutput(out, force, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			})
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "encoded",
				slog.String("source", name),
				slog.Int("width", img.Width),
				slog.Int("height", img.Height),
				slog.String("format", img.Format.String()),
				slog.String("mode", opts.Mode.String()),
				slog.Int("raw", len(img.Pix)),
				slog.Int("bytes", len(data)))
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "input image (path, file:// or http(s) URI, - for stdin)")
	pf.StringP("out", "o", "-", "output SQP path, - for stdout")
	pf.BoolP("force", "F", false, "overwrite an existing output file")
	pf.Var(formatFlag{&format}, "format", "convert to this layout first (rgba8|rgb8|graya8|gray8)")
	addOptionFlags(pf, opts)
	return cmd
}
