package app

import (
	"os"
	"strings"
)

// Theme is the visual scheme of the user-facing surfaces.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ResolveTheme picks the active theme. An explicit override wins; otherwise
// the system preference is probed from the environment, defaulting to light.
// Overrides are per run and never persisted.
func ResolveTheme(override string) Theme {
	if t := parseTheme(override); t != "" {
		return t
	}
	if t := parseTheme(os.Getenv("ECOPOINTS_THEME")); t != "" {
		return t
	}
	// Common terminal convention: COLORFGBG reports "fg;bg", dark backgrounds
	// use high codes.
	if v := os.Getenv("COLORFGBG"); v != "" {
		parts := strings.Split(v, ";")
		bg := parts[len(parts)-1]
		if bg == "0" || bg == "8" {
			return ThemeDark
		}
	}
	return ThemeLight
}

func parseTheme(v string) Theme {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "light":
		return ThemeLight
	case "dark":
		return ThemeDark
	}
	return ""
}
