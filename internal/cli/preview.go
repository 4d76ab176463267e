package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "preview <file.md|->",
		Short: "Render a markdown file the way the editor previews it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			md, err := readDraft(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if asHTML {
				out, err := app.Renderer.HTML(string(md))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			width := app.PreviewWidth(terminalWidth(cmd.OutOrStdout(), 80))
			out, err := app.Renderer.Terminal(string(md), width)
			if err != nil {
				return err
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				_, err := io.WriteString(w, out)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the decorated HTML instead")
	return cmd
}
