package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/gias"
)

// minGutterWidth is the minimum width of each line number column in the gutter.
const minGutterWidth = 4

// RenderOptions controls how RenderDiff draws a parsed patch.
type RenderOptions struct {
	Styles gias.Styles
	// Renderer selects the color profile. Nil uses the default lipgloss renderer.
	Renderer *lipgloss.Renderer
	// Width pads added and deleted lines to a full-width background. Zero disables padding.
	Width int
	// Detector and Tokenizer enable syntax colouring when both are set.
	Detector  gias.LanguageDetector
	Tokenizer gias.Tokenizer
}

// RenderDiff converts a parsed patch to a styled string, one terminal line per diff line.
func RenderDiff(diff *gias.Diff, opts RenderOptions) string {
	if diff == nil {
		return ""
	}
	styles := opts.Styles
	renderer := opts.Renderer
	width := opts.Width
	gutterWidth := calculateGutterWidth(diff)

	fileHeaderStyle := styleFromColorPair(styles.FileHeader, renderer)
	separatorStyle := styleFromColorPair(styles.FileSeparator, renderer)
	hunkHeaderStyle := styleFromColorPair(styles.HunkHeader, renderer)
	addedStyle := styleFromColorPair(styles.Added, renderer)
	deletedStyle := styleFromColorPair(styles.Deleted, renderer)
	contextStyle := styleFromColorPair(styles.Context, renderer)
	lineNumStyle := styleFromColorPair(styles.LineNumber, renderer)
	mutedStyle := styleFromColorPair(styles.Muted, renderer)

	var sb strings.Builder
	for _, file := range diff.Files {
		if !shouldRenderFile(file) {
			continue
		}
		path := file.Path()
		added, deleted := file.Stats()
		sb.WriteString(formatFileHeader(path, added, deleted, width, fileHeaderStyle, separatorStyle))
		sb.WriteString("\n")

		if len(file.Hunks) == 0 {
			sb.WriteString(mutedStyle.Render("(empty)"))
			sb.WriteString("\n")
			continue
		}

		var language string
		if opts.Detector != nil && opts.Tokenizer != nil {
			language = opts.Detector.DetectFromPath(path)
		}

		for _, hunk := range file.Hunks {
			sb.WriteString(hunkHeaderStyle.Render(formatHunkHeader(hunk)))
			sb.WriteString("\n")

			for _, line := range hunk.Lines {
				gutter := formatGutter(line.OldLineNum, line.NewLineNum, gutterWidth, lineNumStyle)
				prefix := linePrefixFor(line.Type)
				// Tabs are expanded relative to the column after the gutter and prefix.
				content := ExpandTabs(strings.TrimSuffix(line.Content, "\n"), lipgloss.Width(gutter)+1)
				contentWidth := width - lipgloss.Width(gutter)

				var tokens []gias.Token
				if language != "" {
					tokens = opts.Tokenizer.Tokenize(language, content)
				}

				sb.WriteString(gutter)
				switch {
				case tokens != nil:
					sb.WriteString(renderLineWithTokens(prefix, tokens, colorsFor(line.Type, styles), renderer, contentWidth))
				case line.Type == gias.LineAdded:
					sb.WriteString(addedStyle.Render(padLine(prefix+content, contentWidth)))
				case line.Type == gias.LineDeleted:
					sb.WriteString(deletedStyle.Render(padLine(prefix+content, contentWidth)))
				default:
					sb.WriteString(contextStyle.Render(prefix + content))
				}
				sb.WriteString("\n")
				if line.NoNewline {
					sb.WriteString(mutedStyle.Render(`\ No newline at end of file`))
					sb.WriteString("\n")
				}
			}
		}
	}
	return sb.String()
}

// formatFileHeader renders the per-file banner: "── path ─── +N -M ──".
func formatFileHeader(path string, added, deleted, width int, pathStyle, ruleStyle lipgloss.Style) string {
	stats := fmt.Sprintf("+%d -%d", added, deleted)
	fill := 3
	if width > 0 {
		// "── " + path + " " + fill + " " + stats + " ──"
		used := 3 + lipgloss.Width(path) + 1 + 1 + lipgloss.Width(stats) + 3
		if width-used > fill {
			fill = width - used
		}
	}
	return ruleStyle.Render("── ") +
		pathStyle.Render(path) +
		ruleStyle.Render(" "+strings.Repeat("─", fill)+" ") +
		pathStyle.Render(stats) +
		ruleStyle.Render(" ──")
}

func colorsFor(lineType gias.LineType, styles gias.Styles) gias.ColorPair {
	switch lineType {
	case gias.LineAdded:
		return styles.Added
	case gias.LineDeleted:
		return styles.Deleted
	default:
		return styles.Context
	}
}

// renderLineWithTokens renders a line with syntax highlighting.
// Each token gets its syntax foreground combined with the diff background.
func renderLineWithTokens(prefix string, tokens []gias.Token, colors gias.ColorPair, renderer *lipgloss.Renderer, width int) string {
	var sb strings.Builder

	baseStyle := styleFromColorPair(colors, renderer)
	sb.WriteString(baseStyle.Render(prefix))

	currentLen := lipgloss.Width(prefix)
	for _, tok := range tokens {
		style := styleFromColorPair(gias.ColorPair{Background: colors.Background}, renderer)
		if tok.Style.Foreground != "" {
			style = style.Foreground(lipgloss.Color(tok.Style.Foreground))
		} else if colors.Foreground != "" {
			style = style.Foreground(lipgloss.Color(colors.Foreground))
		}
		if tok.Style.Bold {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render(tok.Text))
		currentLen += lipgloss.Width(tok.Text)
	}

	// Context lines keep the terminal background.
	if colors.Background != "" && currentLen < width {
		sb.WriteString(baseStyle.Render(strings.Repeat(" ", width-currentLen)))
	}
	return sb.String()
}

// calculateGutterWidth determines the gutter width from the largest line number in the diff.
func calculateGutterWidth(diff *gias.Diff) int {
	maxLineNum := 0
	for _, file := range diff.Files {
		for _, hunk := range file.Hunks {
			for _, line := range hunk.Lines {
				maxLineNum = max(maxLineNum, line.OldLineNum, line.NewLineNum)
			}
		}
	}
	return max(digitWidth(maxLineNum), minGutterWidth)
}

// formatGutter formats the old and new line numbers; missing numbers render as blanks.
func formatGutter(oldLineNum, newLineNum, width int, style lipgloss.Style) string {
	return style.Render(fmt.Sprintf("%s %s ", formatLineNum(oldLineNum, width), formatLineNum(newLineNum, width)))
}

func formatLineNum(num, width int) string {
	if num == 0 {
		return strings.Repeat(" ", width)
	}
	return fmt.Sprintf("%*d", width, num)
}

// styleFromColorPair creates a lipgloss style from a ColorPair.
// If renderer is nil, the default lipgloss renderer is used.
func styleFromColorPair(cp gias.ColorPair, renderer *lipgloss.Renderer) lipgloss.Style {
	var style lipgloss.Style
	if renderer != nil {
		style = renderer.NewStyle()
	} else {
		style = lipgloss.NewStyle()
	}
	if cp.Foreground != "" {
		style = style.Foreground(lipgloss.Color(cp.Foreground))
	}
	if cp.Background != "" {
		style = style.Background(lipgloss.Color(cp.Background))
	}
	return style
}

// formatHunkHeader formats a hunk header in standard diff format.
func formatHunkHeader(hunk gias.Hunk) string {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk.OldStart, hunk.OldCount, hunk.NewStart, hunk.NewCount)
	if hunk.Section != "" {
		header += " " + hunk.Section
	}
	return header
}

func linePrefixFor(lineType gias.LineType) string {
	switch lineType {
	case gias.LineAdded:
		return "+"
	case gias.LineDeleted:
		return "-"
	default:
		return " "
	}
}

// padLine pads a line with spaces to the given display width.
func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth >= width {
		return line
	}
	return line + strings.Repeat(" ", width-lineWidth)
}

// shouldRenderFile skips binary files and mode-only changes.
func shouldRenderFile(file gias.FileDiff) bool {
	if file.IsBinary {
		return false
	}
	if len(file.Hunks) > 0 {
		return true
	}
	switch file.Operation {
	case gias.FileAdded, gias.FileDeleted, gias.FileRenamed, gias.FileCopied:
		return true
	}
	return false
}

func digitWidth(n int) int {
	if n <= 0 {
		return 1
	}
	width := 0
	for n > 0 {
		width++
		n /= 10
	}
	return width
}

// filePositions returns the rendered line index of every file banner.
func filePositions(diff *gias.Diff) []int {
	if diff == nil {
		return nil
	}
	var positions []int
	lineNum := 0
	for _, file := range diff.Files {
		if !shouldRenderFile(file) {
			continue
		}
		positions = append(positions, lineNum)
		lineNum++
		if len(file.Hunks) == 0 {
			lineNum++
			continue
		}
		for _, hunk := range file.Hunks {
			lineNum++
			for _, line := range hunk.Lines {
				lineNum++
				if line.NoNewline {
					lineNum++
				}
			}
		}
	}
	return positions
}
