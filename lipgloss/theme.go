// Package lipgloss provides the patch browser color themes.
package lipgloss

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.Theme = (*Theme)(nil)

// ErrUnknownTheme is returned by ByName for unsupported theme names.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme implements gias.Theme with Lipgloss-compatible hex colors.
type Theme struct {
	styles  gias.Styles
	palette gias.Palette
}

// Styles returns the color styles for this theme.
func (t *Theme) Styles() gias.Styles {
	return t.styles
}

// Palette returns the semantic color palette for this theme.
func (t *Theme) Palette() gias.Palette {
	return t.palette
}

// ByName returns the theme called "dark" or "light". Empty selects the default.
func ByName(name string) (*Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dark":
		return DarkTheme(), nil
	case "light":
		return LightTheme(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// DarkTheme returns a theme for dark terminal backgrounds (Catppuccin Mocha).
// Line backgrounds stay very dark so syntax colors remain readable.
func DarkTheme() *Theme {
	p := gias.Palette{
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",

		Added:    "#a6e3a1",
		Deleted:  "#f38ba8",
		Modified: "#f9e2af",
		Context:  "#6c7086",

		Keyword:     "#cba6f7",
		String:      "#a6e3a1",
		Number:      "#fab387",
		Comment:     "#6c7086",
		Operator:    "#89dceb",
		Function:    "#89b4fa",
		Type:        "#f9e2af",
		Constant:    "#fab387",
		Punctuation: "#9399b2",

		UIBackground: "#313244",
		UIForeground: "#a6adc8",
		UIAccent:     "#89b4fa",
	}
	return &Theme{
		palette: p,
		styles: gias.Styles{
			Added:         gias.ColorPair{Foreground: string(p.Added), Background: "#004000"},
			Deleted:       gias.ColorPair{Foreground: string(p.Deleted), Background: "#3f0001"},
			Context:       gias.ColorPair{Foreground: string(p.Context)},
			HunkHeader:    gias.ColorPair{Foreground: string(p.UIAccent)},
			FileHeader:    gias.ColorPair{Foreground: string(p.Modified), Background: string(p.UIBackground)},
			FileSeparator: gias.ColorPair{Foreground: "#45475a"},
			LineNumber:    gias.ColorPair{Foreground: string(p.Context)},
			Selected:      gias.ColorPair{Foreground: string(p.Background), Background: string(p.UIAccent)},
			Muted:         gias.ColorPair{Foreground: string(p.UIForeground)},
		},
	}
}

// LightTheme returns a theme for light terminal backgrounds (Catppuccin Latte).
func LightTheme() *Theme {
	p := gias.Palette{
		Background: "#eff1f5",
		Foreground: "#4c4f69",

		Added:    "#40a02b",
		Deleted:  "#d20f39",
		Modified: "#df8e1d",
		Context:  "#9ca0b0",

		Keyword:     "#8839ef",
		String:      "#40a02b",
		Number:      "#fe640b",
		Comment:     "#9ca0b0",
		Operator:    "#04a5e5",
		Function:    "#1e66f5",
		Type:        "#df8e1d",
		Constant:    "#fe640b",
		Punctuation: "#6c6f85",

		UIBackground: "#e6e9ef",
		UIForeground: "#6c6f85",
		UIAccent:     "#1e66f5",
	}
	return &Theme{
		palette: p,
		styles: gias.Styles{
			Added:         gias.ColorPair{Foreground: string(p.Added), Background: "#d4f4d4"},
			Deleted:       gias.ColorPair{Foreground: string(p.Deleted), Background: "#f4d4d4"},
			Context:       gias.ColorPair{Foreground: string(p.Context)},
			HunkHeader:    gias.ColorPair{Foreground: string(p.UIAccent)},
			FileHeader:    gias.ColorPair{Foreground: string(p.Modified), Background: string(p.UIBackground)},
			FileSeparator: gias.ColorPair{Foreground: "#bcc0cc"},
			LineNumber:    gias.ColorPair{Foreground: string(p.Context)},
			Selected:      gias.ColorPair{Foreground: "#ffffff", Background: string(p.UIAccent)},
			Muted:         gias.ColorPair{Foreground: string(p.UIForeground)},
		},
	}
}
