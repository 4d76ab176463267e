package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/present"
	"github.com/mithrel/docgen/internal/present/tui"
)

func newExportCmd() *cobra.Command {
	var outPath string
	var outputMode string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the assembled document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok || mode == present.ModePlain || mode == present.ModeNDJSON {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			exp, err := app.Remote.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			if outPath != "" {
				name := outPath
				if st, err := os.Stat(outPath); err == nil && st.IsDir() {
					name = filepath.Join(outPath, exportName(exp.Filename))
				}
				if err := os.WriteFile(name, []byte(exp.Markdown), 0o644); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "File %s written successfully!\n", name)
				return nil
			}

			opts := present.Options{
				Mode:       mode,
				JSONIndent: true,
				Renderer:   app.Renderer,
				Width:      app.PreviewWidth(terminalWidth(cmd.OutOrStdout(), 80)),
			}
			if mode != present.ModePretty {
				return present.RenderExport(cmd.OutOrStdout(), exp, opts)
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderExport(w, exp, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output-file", "o", "", "write the markdown to this file (or directory)")
	cmd.Flags().StringVar(&outputMode, "output", "markdown", "output mode: markdown|json|pretty")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"markdown", "json", "pretty"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func exportName(suggested string) string {
	if suggested = filepath.Base(strings.TrimSpace(suggested)); suggested == "" || suggested == "." || suggested == "/" {
		return tui.DefaultExportName
	}
	return suggested
}

func newDownloadCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the document file prepared by the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			tmp, err := os.CreateTemp(dir, ".docgen-download-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())
			name, err := app.Remote.Download(cmd.Context(), tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("download: %w", err)
			}
			dest := filepath.Join(dir, exportName(name))
			if err := os.Rename(tmp.Name(), dest); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "File %s written successfully!\n", dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the file to")
	return cmd
}
