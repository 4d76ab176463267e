package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/db"
	"github.com/mithrel/docgen/internal/present"
	"github.com/mithrel/docgen/internal/present/format"
)

func newStatusCmd() *cobra.Command {
	var outputMode string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which sections are complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok || (mode != present.ModePlain && mode != present.ModeJSON) {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			tpl, err := app.Template()
			if err != nil {
				return err
			}
			status, err := app.Remote.SectionsStatus(ctx)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			rows := make([]format.SectionRow, 0, len(tpl.Sections))
			for _, sec := range tpl.Sections {
				row := format.SectionRow{Section: sec.ID, Title: sec.Title}
				row.Complete, row.Known = status[sec.ID]
				d, err := app.Store.Drafts.GetDraft(ctx, sec.ID)
				switch {
				case err == nil:
					row.SavedAt = d.SavedAt
				case !errors.Is(err, db.ErrNotFound):
					return err
				}
				rows = append(rows, row)
			}
			return present.RenderStatus(cmd.OutOrStdout(), rows, present.Options{
				Mode:       mode,
				JSONIndent: true,
				Headers:    !noHeaders,
			})
		},
	}
	cmd.Flags().StringVar(&outputMode, "output", "plain", "output mode: plain|json")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"plain", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
