package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/autosave"
	"github.com/mithrel/docgen/internal/present/tui"
	"github.com/mithrel/docgen/internal/render"
)

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "edit [section]",
		Short:             "Fill in the sections in a full-screen editor",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSection,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			tpl, err := app.Template()
			if err != nil {
				return err
			}
			start := ""
			if len(args) == 1 {
				sec, err := resolveSection(tpl, args[0])
				if err != nil {
					return err
				}
				start = sec.ID
			}
			forms, err := loadForms(ctx, app, tpl)
			if err != nil {
				return err
			}
			if err := app.LogToFile(); err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			return tui.Run(ctx, tui.Options{
				Template: tpl,
				Forms:    forms,
				Start:    start,
				Renderer: app.Renderer,
				Width:    app.PreviewWidth(0),
				Theme:    app.Cfg.GetString("theme"),
				Excludes: app.Cfg.GetStringSlice("upload.exclude"),
				SetTheme: func(ctx context.Context, theme string) (*render.Renderer, error) {
					if err := app.Remote.UpdateTheme(ctx, theme); err != nil {
						return nil, err
					}
					app.SetTheme(theme)
					return app.Renderer, nil
				},
				NewSync: func(sink autosave.Sink, section string) *autosave.Synchronizer {
					return app.Synchronizer(forms, sink, section)
				},
			})
		},
	}
	return cmd
}
