package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/docgen/internal/config"
	"github.com/mithrel/docgen/internal/util"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "completion",
		Short:       "Generate shell completion scripts",
		Annotations: map[string]string{skipApp: "true"},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate bash",
		Short: "Generate Bash completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().GenBashCompletion(os.Stdout)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "generate zsh",
		Short: "Generate Zsh completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().GenZshCompletion(os.Stdout)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "generate fish",
		Short: "Generate Fish completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		},
	})

	return cmd
}

// completionTemplate loads the template without the App; completion runs
// before the persistent hooks.
func completionTemplate(cmd *cobra.Command) (models.Template, error) {
	v := viper.New()
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
	}
	if err := config.Load(cmd.Context(), v); err != nil {
		return models.Template{}, err
	}
	return models.LoadTemplate(api.ProjectType(v.GetString("project_type")))
}

// completeSection completes the first positional argument with section ids.
func completeSection(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	tpl, err := completionTemplate(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	if toComplete == "" {
		return tpl.SectionIDs(), cobra.ShellCompDirectiveNoFileComp
	}
	return util.ScoreCompletions(toComplete, tpl.SectionIDs(), 20), cobra.ShellCompDirectiveNoFileComp
}

func completeValues(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
