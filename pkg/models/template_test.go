package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mithrel/docgen/pkg/api"
)

func TestLoadTemplateBase(t *testing.T) {
	tpl, err := LoadTemplate("")
	require.NoError(t, err)
	require.Equal(t, "project_info", tpl.Sections[0].ID)
	require.Contains(t, tpl.SectionIDs(), "license")

	lic, ok := tpl.Section("license")
	require.True(t, ok)
	custom, ok := lic.Field("custom_license")
	require.True(t, ok)
	require.NotNil(t, custom.Conditional)
	require.Equal(t, "license_type", custom.Conditional.Field)
	require.Equal(t, "Outra", custom.Conditional.Value)
}

func TestLoadTemplateReplacesInPlace(t *testing.T) {
	base, err := LoadTemplate("")
	require.NoError(t, err)
	tpl, err := LoadTemplate(api.ProjectBackend)
	require.NoError(t, err)

	require.Equal(t, base.Index("api"), tpl.Index("api"))
	apiSec, _ := tpl.Section("api")
	_, hasRadio := apiSec.Field("has_api")
	require.False(t, hasRadio, "backend api section replaces the base one")
	require.Equal(t, "database", tpl.Sections[len(tpl.Sections)-1].ID)
}

func TestLoadTemplateMobileCheckbox(t *testing.T) {
	tpl, err := LoadTemplate(api.ProjectMobile)
	require.NoError(t, err)
	sec, ok := tpl.Section("platforms")
	require.True(t, ok)
	f, ok := sec.Field("platform_list")
	require.True(t, ok)
	require.Equal(t, KindCheckbox, f.Kind)
	require.Equal(t, []string{"Android", "iOS", "Web", "Outros"}, f.Options)
}

func TestLoadTemplateUnknown(t *testing.T) {
	_, err := LoadTemplate("data-science")
	require.Error(t, err)
}
