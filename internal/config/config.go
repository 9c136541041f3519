package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/serroba/recipebox/internal/shopping"
	"github.com/spf13/viper"
)

// LoadEnv reads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	return nil
}

// LoadLayout returns the PDF layout: built-in defaults, overridden by path
// (YAML, TOML or JSON by extension) when set, then by PDF_* environment
// variables such as PDF_FONT_PATH.
func LoadLayout(path string) (shopping.Layout, error) {
	v := viper.New()

	defaults := shopping.DefaultLayout()
	v.SetDefault("page_width", defaults.PageWidth)
	v.SetDefault("page_height", defaults.PageHeight)
	v.SetDefault("margin_left", defaults.MarginLeft)
	v.SetDefault("margin_right", defaults.MarginRight)
	v.SetDefault("margin_top", defaults.MarginTop)
	v.SetDefault("margin_bottom", defaults.MarginBottom)
	v.SetDefault("line_height", defaults.LineHeight)
	v.SetDefault("header_font_size", defaults.HeaderFontSize)
	v.SetDefault("line_font_size", defaults.LineFontSize)
	v.SetDefault("font_path", defaults.FontPath)
	v.SetDefault("compress", defaults.Compress)

	v.SetEnvPrefix("PDF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return shopping.Layout{}, fmt.Errorf("read layout %s: %w", path, err)
		}
	}

	var layout shopping.Layout
	if err := v.Unmarshal(&layout); err != nil {
		return shopping.Layout{}, fmt.Errorf("decode layout: %w", err)
	}

	return layout, layout.Validate()
}

// ParseDuration parses a duration option. Empty means zero.
func ParseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", name)
	}

	return d, nil
}

// SplitList splits a comma separated option, dropping blanks.
func SplitList(value string) []string {
	var out []string

	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
