package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mithrel/docgen/internal/archive"
	"github.com/mithrel/docgen/internal/render"
	"github.com/mithrel/docgen/pkg/api"
)

// CheckConfigValidity reports every problem in a loaded configuration at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error

	if raw := strings.TrimSpace(v.GetString("server_url")); raw == "" {
		errs = append(errs, errors.New("server_url is required"))
	} else if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server_url must be an http(s) URL, got %q", raw))
	}
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}

	for _, key := range []string{"autosave.debounce", "remote.timeout"} {
		if d, err := time.ParseDuration(v.GetString(key)); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration, got %q", key, v.GetString(key)))
		}
	}
	if v.GetInt("preview.width") < 0 {
		errs = append(errs, errors.New("preview.width must not be negative"))
	}
	if v.GetInt64("upload.max_bytes") <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be greater than 0"))
	}

	if theme := v.GetString("theme"); !slices.Contains(api.Themes, theme) {
		errs = append(errs, fmt.Errorf("theme must be one of %s, got %q", strings.Join(api.Themes, ", "), theme))
	}
	if pt := v.GetString("project_type"); pt != "" && !api.ProjectType(pt).Valid() {
		names := make([]string, 0, len(api.ProjectTypes))
		for _, t := range api.ProjectTypes {
			names = append(names, string(t))
		}
		errs = append(errs, fmt.Errorf("project_type must be one of %s, got %q", strings.Join(names, ", "), pt))
	}
	if style := v.GetString("preview.style"); !render.KnownStyle(style) {
		errs = append(errs, fmt.Errorf("preview.style %q is not a known glamour style", style))
	}
	if err := archive.ValidatePatterns(v.GetStringSlice("upload.exclude")); err != nil {
		errs = append(errs, fmt.Errorf("upload.exclude: %w", err))
	}

	return errors.Join(errs...)
}
