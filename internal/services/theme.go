package services

import (
	"sync/atomic"

	"eventdesk/internal/models"
)

// ThemeApplier is the presentation side effect of a theme change.
type ThemeApplier interface {
	ApplyTheme(resolved models.Theme)
}

type ThemeApplierFunc func(resolved models.Theme)

func (f ThemeApplierFunc) ApplyTheme(resolved models.Theme) { f(resolved) }

// DarkModeSignal reports whether the environment currently prefers a dark theme.
type DarkModeSignal func() bool

// ResolveTheme maps "system" through the dark mode signal. Any other value is
// returned unchanged.
func ResolveTheme(theme models.Theme, prefersDark DarkModeSignal) models.Theme {
	if theme != models.ThemeSystem {
		return theme
	}
	if prefersDark != nil && prefersDark() {
		return models.ThemeDark
	}
	return models.ThemeLight
}

// SystemAppearance holds the last dark mode preference reported by the
// webview (prefers-color-scheme).
type SystemAppearance struct {
	dark atomic.Bool
}

func (a *SystemAppearance) SetPrefersDark(dark bool) { a.dark.Store(dark) }

func (a *SystemAppearance) PrefersDark() bool { return a.dark.Load() }
