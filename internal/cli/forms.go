package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/docgen/internal/config"
	"github.com/mithrel/docgen/internal/db"
	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/internal/util"
	"github.com/mithrel/docgen/internal/wire"
	"github.com/mithrel/docgen/pkg/models"
)

// loadForms builds a holder with one form per section, seeded from the
// last saved drafts in the local journal.
func loadForms(ctx context.Context, app *wire.App, tpl models.Template) (*form.Holder, error) {
	h := form.NewHolder()
	for _, sec := range tpl.Sections {
		d, err := app.Store.Drafts.GetDraft(ctx, sec.ID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			h.Put(form.New(sec))
		case err != nil:
			return nil, fmt.Errorf("load draft %s: %w", sec.ID, err)
		default:
			h.Put(form.FromSnapshot(sec, form.FromDraft(d)))
		}
	}
	return h, nil
}

// resolveSection maps user input to a section of the template.
func resolveSection(tpl models.Template, input string) (models.Section, error) {
	id, err := util.Resolve(input, tpl.SectionIDs())
	if err != nil {
		return models.Section{}, fmt.Errorf("section: %w", err)
	}
	sec, _ := tpl.Section(id)
	return sec, nil
}

// configFile is the file settings are persisted to.
func configFile(v *viper.Viper) string {
	if p := v.ConfigFileUsed(); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

// persistSetting writes key = value into the config file, creating it from
// the defaults when missing.
func persistSetting(cmd *cobra.Command, v *viper.Viper, key string, value any) error {
	path := configFile(v)
	existing := config.RenderDefaultTOML()
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(config.SetKey(existing, key, value)), 0o600); err != nil {
		return err
	}
	v.Set(key, value)
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s in %s\n", key, path)
	return nil
}
