package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/sqp.go/pkg/logging"
	"github.com/jpfielding/sqp.go/pkg/sqp"
	"github.com/spf13/cobra"
)

// NewDecodeCmd converts an SQP stream to PNG, BMP or TIFF.
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode SQP to png, bmp or tiff",
		Long:  "Decodes an SQP stream and writes it as PNG, BMP or TIFF, chosen by --format or the output extension.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			name, _ := cmd.Flags().GetString("format")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			format, err := outputFormat(name, out)
			if err != nil {
				return err
			}
			ctx := logging.AppendCtx(ctx, slog.String("in", in), slog.String("out", out))

			r, err := openInput(ctx, in)
			if err != nil {
				return err
			}
			defer r.Close()
			img, err := sqp.DecodeFrom(r)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}

			force, _ := cmd.Flags().GetBool("force")
			err = writeOutput(out, force, func(w io.Writer) error {
				return writeImage(w, img.ToImage(), format)
			})
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "decoded",
				slog.Int("width", img.Width),
				slog.Int("height", img.Height),
				slog.String("format", img.Format.String()),
				slog.String("output", format))
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "input SQP (path, file:// or http(s) URI, - for stdin)")
	pf.StringP("out", "o", "-", "output path, - for stdout")
	pf.BoolP("force", "F", false, "overwrite an existing output file")
	pf.StringP("format", "f", "", "output format (png|bmp|tiff), default from the extension")
	return cmd
}
