package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var yes bool
	var keepDrafts bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the project on the service and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if err := confirm(cmd.InOrStdin(), "Reset the project?", "Every section on the service is discarded.", yes); err != nil {
				return err
			}
			if err := app.Remote.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			if !keepDrafts {
				n, err := app.Store.Drafts.DeleteDrafts(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Project reset; %d local drafts removed.\n", n)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Project reset.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&keepDrafts, "keep-drafts", false, "keep the local draft journal")
	return cmd
}

func confirm(in io.Reader, title, desc string, yes bool) error {
	if yes {
		return nil
	}
	if !isTerminal(in) {
		return fmt.Errorf("confirmation required; rerun with --yes")
	}
	ok := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted")
	}
	return nil
}
