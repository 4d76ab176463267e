package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSaveCmd() *cobra.Command {
	var printMarkdown bool
	cmd := &cobra.Command{
		Use:               "save <section> <file|->",
		Short:             "Save a section from a draft file",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeSection,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			tpl, err := app.Template()
			if err != nil {
				return err
			}
			sec, err := resolveSection(tpl, args[0])
			if err != nil {
				return err
			}
			content, err := readDraft(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			forms, err := loadForms(ctx, app, tpl)
			if err != nil {
				return err
			}
			v, _ := forms.Get(sec.ID)
			if _, err := applyDraft(sec, v, content); err != nil {
				return err
			}

			sink := &consoleSink{out: cmd.ErrOrStderr(), log: app.Log}
			sync := app.Synchronizer(forms, sink, sec.ID)
			defer sync.Close()
			res, err := sync.SaveSection(false).Wait(ctx)
			if err != nil {
				return fmt.Errorf("save %s: %w", sec.ID, err)
			}
			if printMarkdown {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Markdown)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&printMarkdown, "print", "p", false, "print the section markdown returned by the service")
	return cmd
}
