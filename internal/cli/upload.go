package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/archive"
	"github.com/mithrel/docgen/internal/remote"
)

func newUploadCmd() *cobra.Command {
	var excludes []string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "upload <archive|directory>",
		Short: "Upload a project so the service can describe its structure",
		Long: `Upload a .zip, .tar.gz or .tgz archive, or a directory which is packed
as .tar.gz on the fly, skipping upload.exclude patterns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			if !cmd.Flags().Changed("exclude") {
				excludes = app.Cfg.GetStringSlice("upload.exclude")
			}
			name, body, err := archive.Open(ctx, args[0], excludes)
			if err != nil {
				return err
			}
			defer body.Close()
			if !remote.AllowedArchive(name) {
				return fmt.Errorf("%s: %w", name, remote.ErrUnsupportedArchive)
			}

			var r io.Reader = body
			if !quiet {
				size := int64(-1)
				if st, err := os.Stat(args[0]); err == nil && !st.IsDir() {
					size = st.Size()
				}
				bar := progressbar.NewOptions64(size,
					progressbar.OptionSetDescription("Uploading "+name),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowBytes(true),
					progressbar.OptionSetWidth(40),
					progressbar.OptionClearOnFinish(),
				)
				defer func() { _ = bar.Finish() }()
				pr := progressbar.NewReader(body, bar)
				r = &pr
			}

			structure, err := app.Remote.UploadStructure(ctx, name, r)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), structure)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "glob patterns to skip when packing a directory (default upload.exclude)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
