package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/util"
	"github.com/mithrel/docgen/pkg/api"
)

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "theme [name]",
		Short:             "Show or change the document theme",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeValues(api.Themes),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if len(args) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), app.Cfg.GetString("theme"))
				return nil
			}
			theme, err := util.Resolve(args[0], api.Themes)
			if err != nil {
				return fmt.Errorf("theme: %w", err)
			}
			if err := app.Remote.UpdateTheme(cmd.Context(), theme); err != nil {
				return fmt.Errorf("update theme: %w", err)
			}
			if err := persistSetting(cmd, app.Cfg, "theme", theme); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Theme changed to %s\n", theme)
			return nil
		},
	}
}
