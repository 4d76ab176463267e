package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/editor"
	"github.com/mithrel/docgen/internal/watch"
)

func newOpenCmd() *cobra.Command {
	var keepTmp bool
	cmd := &cobra.Command{
		Use:               "open <section>",
		Short:             "Edit a section in $EDITOR with autosave",
		Args:              cobra.ExactArgs(1),
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
			forms, err := loadForms(ctx, app, tpl)
			if err != nil {
				return err
			}
			v, _ := forms.Get(sec.ID)

			path, err := editor.PathForSection(sec.ID)
			if err != nil {
				return err
			}
			if err := editor.PrepareAt(path, []byte(editor.Compose(sec, v))); err != nil {
				return err
			}
			if !keepTmp && !app.Cfg.GetBool("editor.keep_tmp") {
				defer os.Remove(path)
			}

			// The editor owns the terminal; events go to the log file.
			if err := app.LogToFile(); err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			sink := &consoleSink{out: app.Log.Writer(), log: app.Log}
			sync := app.Synchronizer(forms, sink, sec.ID)
			defer sync.Close()

			w, err := watch.New(path, 0, func(content []byte) {
				changed, err := applyDraft(sec, v, content)
				if err != nil {
					app.Log.Printf("watch: %s: %v", path, err)
					return
				}
				if changed {
					sync.OnFieldChanged()
				}
			}, app.Log)
			if err != nil {
				return err
			}

			ed, err := editor.Command(path)
			if err != nil {
				_ = w.Close()
				return err
			}
			ed.Stdin, ed.Stdout, ed.Stderr = os.Stdin, os.Stdout, os.Stderr
			runErr := ed.Run()
			w.Flush()
			_ = w.Close()
			if runErr != nil {
				return fmt.Errorf("editor: %w", runErr)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if _, err := applyDraft(sec, v, content); err != nil {
				return fmt.Errorf("draft not saved: %w", err)
			}
			if _, err := sync.SaveSection(false).Wait(ctx); err != nil {
				return fmt.Errorf("save %s: %w", sec.ID, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Section %s saved.\n", sec.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepTmp, "keep-tmp", false, "keep the draft file after the session")
	return cmd
}
