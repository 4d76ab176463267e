package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/docgen/internal/config"
	"github.com/mithrel/docgen/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// skipApp marks commands that run without a wired App.
const skipApp = "docgen/skip-app"

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string
	var serverURL string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "docgen",
		Short:         "docgen: fill in project documentation from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			if serverURL != "" {
				v.Set("server_url", serverURL)
			}
			if verbose {
				v.Set("remote.verbose", true)
			}
			ctx := context.WithValue(cmd.Context(), cfgKey, v)
			cmd.SetContext(ctx)
			if skipsApp(cmd) {
				return nil
			}
			if err := config.CheckConfigValidity(v); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			app, err := wire.BuildApp(ctx, v)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(ctx, appKey, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
				return app.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml|yaml)")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "DocGen service URL (overrides server_url)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request to the service")

	cmd.AddCommand(newSetupCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newOpenCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newThemeCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newDraftsCmd())
	cmd.AddCommand(newSectionsCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

const cfgKey ctxKey = "cfg"

func skipsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipApp] == "true" {
			return true
		}
	}
	return false
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}

// getConfig returns the loaded configuration, also for commands that skip
// the App.
func getConfig(cmd *cobra.Command) *viper.Viper {
	if v, ok := cmd.Context().Value(cfgKey).(*viper.Viper); ok {
		return v
	}
	return viper.New()
}
