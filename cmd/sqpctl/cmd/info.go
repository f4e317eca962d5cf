package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jpfielding/sqp.go/pkg/sqp"
	"github.com/spf13/cobra"
)

type infoReport struct {
	*sqp.StreamInfo
	ContentID string `json:"content_id,omitempty"`
}

// NewInfoCmd prints the header and segment table of an SQP stream.
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "print SQP header and segments",
		Long:  "Prints the header, the segment table and the content ID of an SQP stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			r, err := openInput(ctx, in)
			if err != nil {
				return err
			}
			defer r.Close()
			data, err := io.ReadAll(r)
			if err != nil {
				return err
			}

			info, err := sqp.Inspect(data)
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}
			report := infoReport{StreamInfo: info}
			if skip, _ := cmd.Flags().GetBool("no-decode"); !skip {
				img, err := sqp.Decode(data)
				if err != nil {
					return fmt.Errorf("decode: %w", err)
				}
				report.ContentID = img.ContentID()
			}

			switch format, _ := cmd.Flags().GetString("format"); format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			default:
				printInfo(cmd.OutOrStdout(), report)
				return nil
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "input SQP (path, file:// or http(s) URI, - for stdin)")
	pf.StringP("format", "f", "text", "output format (text|json)")
	pf.Bool("no-decode", false, "skip decoding, so no content ID")
	return cmd
}

func printInfo(w io.Writer, r infoReport) {
	fmt.Fprintf(w, "Size: %d bytes\n", r.Size)
	fmt.Fprintf(w, "MD5: %s\n", r.MD5)
	fmt.Fprintf(w, "Dimensions: %dx%d\n", r.Width, r.Height)
	fmt.Fprintf(w, "Format: %s\n", r.Format)
	fmt.Fprintf(w, "Mode: %s\n", r.Mode)
	if r.Mode == sqp.Lossy.String() {
		fmt.Fprintf(w, "Quality: %d\n", r.Quality)
		fmt.Fprintf(w, "LossyAlpha: %t\n", r.LossyAlpha)
	}
	if r.ContentID != "" {
		fmt.Fprintf(w, "ContentID: %s\n", r.ContentID)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tKIND\tCODING\tPACKING\tRAW\tSTORED")
	for _, s := range r.Segments {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", s.Index, s.Kind, s.Coding, s.Packing, s.RawLen, s.Length)
	}
	tw.Flush()
}
