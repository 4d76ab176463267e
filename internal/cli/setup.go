package cli

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/pkg/api"
)

func projectTypeNames() []string {
	out := make([]string, len(api.ProjectTypes))
	for i, p := range api.ProjectTypes {
		out[i] = string(p)
	}
	return out
}

func newSetupCmd() *cobra.Command {
	var example bool
	cmd := &cobra.Command{
		Use:               "setup [project-type]",
		Short:             "Start a project on the service",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeValues(projectTypeNames()),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			var pt api.ProjectType
			switch {
			case len(args) == 1:
				pt = api.ProjectType(args[0])
				if !pt.Valid() {
					return fmt.Errorf("unknown project type %q (one of %v)", args[0], projectTypeNames())
				}
			case isTerminal(cmd.InOrStdin()):
				chosen, err := promptProjectType()
				if err != nil {
					return err
				}
				pt = chosen
			default:
				return fmt.Errorf("project type required; pass one of %v", projectTypeNames())
			}

			if err := app.Remote.Setup(cmd.Context(), pt, example); err != nil {
				return fmt.Errorf("setup: %w", err)
			}
			if _, err := app.Store.Drafts.DeleteDrafts(cmd.Context()); err != nil {
				app.Log.Printf("drafts: clear after setup: %v", err)
			}
			if err := persistSetting(cmd, app.Cfg, "project_type", string(pt)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Project set up as %s.\n", pt)
			return nil
		},
	}
	cmd.Flags().BoolVar(&example, "example", false, "fill the sections with example data")
	return cmd
}

func promptProjectType() (api.ProjectType, error) {
	prompt := promptui.Select{
		Label: "Select project type",
		Items: api.ProjectTypes,
		Templates: &promptui.SelectTemplates{
			Active:   `▸ {{ . | cyan }}`,
			Inactive: `  {{ . }}`,
			Selected: `✓ {{ . | green }}`,
			Details:  `{{ .Description }}`,
		},
		Size: len(api.ProjectTypes),
	}
	i, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("project type selection: %w", err)
	}
	return api.ProjectTypes[i], nil
}
