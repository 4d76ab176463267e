package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/util"
)

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections [input]",
		Short: "List section ids, fuzzy matched against input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			tpl, err := app.Template()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				for _, id := range util.ScoreCompletions(args[0], tpl.SectionIDs(), 20) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, sec := range tpl.Sections {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", sec.ID, sec.Title)
			}
			return tw.Flush()
		},
	}
}
