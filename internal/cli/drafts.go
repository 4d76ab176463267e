package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/docgen/internal/db"
	"github.com/mithrel/docgen/internal/present"
	"github.com/mithrel/docgen/internal/util"
)

func newDraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect the local journal of saved sections",
	}
	cmd.AddCommand(newDraftsListCmd())
	cmd.AddCommand(newDraftsShowCmd())
	return cmd
}

func parseDraftMode(s string) (present.Mode, error) {
	mode, ok := present.ParseMode(strings.ToLower(s))
	if !ok || mode == present.ModePretty || mode == present.ModeMarkdown {
		return 0, fmt.Errorf("invalid --output: %s", s)
	}
	return mode, nil
}

func newDraftsListCmd() *cobra.Command {
	var since string
	var outputMode string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			mode, err := parseDraftMode(outputMode)
			if err != nil {
				return err
			}
			drafts, err := app.Store.Drafts.ListDrafts(cmd.Context())
			if err != nil {
				return err
			}
			if since != "" {
				from, err := util.ParseSince(since, time.Now())
				if err != nil {
					return fmt.Errorf("--since: %w", err)
				}
				kept := drafts[:0]
				for _, d := range drafts {
					if !d.SavedAt.Before(from) {
						kept = append(kept, d)
					}
				}
				drafts = kept
			}
			opts := present.Options{Mode: mode, Headers: !noHeaders}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderDrafts(w, drafts, opts)
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only drafts saved after this (e.g. 2d, 3h, 2026-01-02)")
	cmd.Flags().StringVar(&outputMode, "output", "plain", "output mode: plain|json|ndjson")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"plain", "json", "ndjson"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newDraftsShowCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:               "show <section>",
		Short:             "Show the last saved draft of a section",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSection,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			mode, err := parseDraftMode(outputMode)
			if err != nil {
				return err
			}
			tpl, err := app.Template()
			if err != nil {
				return err
			}
			sec, err := resolveSection(tpl, args[0])
			if err != nil {
				return err
			}
			d, err := app.Store.Drafts.GetDraft(cmd.Context(), sec.ID)
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("no saved draft for %s", sec.ID)
			}
			if err != nil {
				return err
			}
			return present.RenderDraft(cmd.OutOrStdout(), d, present.Options{Mode: mode, JSONIndent: true})
		},
	}
	cmd.Flags().StringVar(&outputMode, "output", "plain", "output mode: plain|json|ndjson")
	return cmd
}

