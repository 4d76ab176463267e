package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/server"
	"github.com/mithrel/docgen/internal/watch"
)

// serveDefault selects preview.serve_addr when --serve has no value.
const serveDefault = "config"

func newWatchCmd() *cobra.Command {
	var serve string
	cmd := &cobra.Command{
		Use:   "watch <section> <file>",
		Short: "Autosave a draft file as it changes",
		Long: `Watch a draft file and keep the section on the service in step with it.
The file is created from the current section content when missing. Each
save in your editor refreshes the preview; stopping the command saves the
section one last time.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeSection,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

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
			path, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			created, err := ensureDraftFile(path, sec, v)
			if err != nil {
				return err
			}

			sink := &consoleSink{out: cmd.ErrOrStderr(), log: app.Log}
			var serveErr <-chan error
			if serve != "" {
				addr := serve
				if addr == serveDefault {
					addr = app.Cfg.GetString("preview.serve_addr")
				}
				var srv *server.Server
				srv, serveErr = startPreviewServer(ctx, app, addr, cmd.OutOrStdout())
				sink.server = srv
			}
			sync := app.Synchronizer(forms, sink, sec.ID)
			defer sync.Close()

			onChange := func(content []byte) {
				changed, err := applyDraft(sec, v, content)
				if err != nil {
					sink.Notify(notifyError("Draft not applied: " + err.Error()))
					return
				}
				if changed {
					sync.OnFieldChanged()
				}
			}
			w, err := watch.New(path, 0, onChange, app.Log)
			if err != nil {
				return err
			}
			defer w.Close()
			if !created {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				onChange(content)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for section %s. Press Ctrl+C to stop.\n", path, sec.ID)
			select {
			case <-ctx.Done():
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("preview server: %w", err)
				}
			}

			w.Flush()
			saveCtx, cancel := context.WithTimeout(context.Background(), finalSaveTimeout)
			defer cancel()
			if _, err := sync.SaveIfDirty(false).Wait(saveCtx); err != nil {
				return fmt.Errorf("final save of %s: %w", sec.ID, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serve, "serve", "", "serve a live HTML preview on this address")
	cmd.Flags().Lookup("serve").NoOptDefVal = serveDefault
	return cmd
}
