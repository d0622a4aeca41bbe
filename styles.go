package gias

// ColorPair represents a foreground and background color combination.
// Colors are "#RRGGBB" hex strings; empty means the terminal default.
type ColorPair struct {
	Foreground string
	Background string
}

// Styles contains color pairs for the visual elements of the patch browser.
type Styles struct {
	Added         ColorPair // Added lines (+)
	Deleted       ColorPair // Deleted lines (-)
	Context       ColorPair // Unchanged lines
	HunkHeader    ColorPair // @@ ... @@
	FileHeader    ColorPair // Per-file banner
	FileSeparator ColorPair // Rule drawn around the file banner
	LineNumber    ColorPair // Gutter
	Selected      ColorPair // Highlighted row in the patch list
	Muted         ColorPair // Secondary text such as sizes and dates
}

// Color is a "#RRGGBB" hex string.
type Color string

// Palette holds the semantic colors a theme is built from.
type Palette struct {
	Background Color
	Foreground Color

	Added    Color
	Deleted  Color
	Modified Color
	Context  Color

	Keyword     Color
	String      Color
	Number      Color
	Comment     Color
	Operator    Color
	Function    Color
	Type        Color
	Constant    Color
	Punctuation Color

	UIBackground Color
	UIForeground Color
	UIAccent     Color
}

// Theme provides styles for rendering patches.
type Theme interface {
	Styles() Styles
	Palette() Palette
}
