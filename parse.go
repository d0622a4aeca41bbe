package gias

import (
	"regexp"
	"strings"
)

const fence = "```"

// Body separators. A "---" line wins over a "=>" line wherever they appear.
const (
	separatorPrimary   = "---"
	separatorSecondary = "=>"
)

// labelMarker matches "file: path" and "PATH : path".
var labelMarker = regexp.MustCompile(`(?i)^(?:file|path)\s*:\s*(\S.*)$`)

// ParseSpecification extracts per-file changes from model-written text.
//
// Each fenced code block whose path can be discovered becomes one entry. The
// path comes from the fence info string ("```file: a/b.py", "```a/b.py:",
// "```a/b.py") or, failing that, from a marker on the nearest preceding
// non-blank line ("file: a/b.py", "**a/b.py**:"). The block body is split at
// the first "---" line, or at the first "=>" line when there is no "---" line.
// Without a separator the whole body is the new content of a created file.
//
// ParseSpecification never fails: text without usable blocks yields an empty set.
func ParseSpecification(text string) *ChangeSet {
	cs := &ChangeSet{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for i := 0; i < len(lines); i++ {
		open := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(open, fence) {
			continue
		}
		end := closingFence(lines, i+1)
		if end < 0 {
			break
		}
		path := pathFromInfo(strings.TrimPrefix(open, fence))
		if path == "" {
			path = pathFromPreceding(lines, i)
		}
		if path != "" {
			original, modified := splitBody(lines[i+1 : end])
			cs.Set(path, original, modified)
		}
		i = end
	}
	return cs
}

func closingFence(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == fence {
			return j
		}
	}
	return -1
}

func splitBody(body []string) (original, modified string) {
	sep := indexOfLine(body, separatorPrimary)
	if sep < 0 {
		sep = indexOfLine(body, separatorSecondary)
	}
	if sep < 0 {
		return "", strings.TrimSpace(strings.Join(body, "\n"))
	}
	original = strings.TrimSpace(strings.Join(body[:sep], "\n"))
	modified = strings.TrimSpace(strings.Join(body[sep+1:], "\n"))
	if modified == "" {
		modified = original
	}
	return original, modified
}

func indexOfLine(lines []string, want string) int {
	for i, l := range lines {
		if strings.TrimSpace(l) == want {
			return i
		}
	}
	return -1
}

// pathFromInfo reads a path from a fence info string. Bare language tags
// such as "python" are not paths.
func pathFromInfo(info string) string {
	info = strings.TrimSpace(info)
	if info == "" {
		return ""
	}
	if m := labelMarker.FindStringSubmatch(info); m != nil {
		return labelledPath(m[1])
	}
	if strings.HasSuffix(info, ":") {
		return barePath(strings.TrimSuffix(info, ":"))
	}
	return barePath(info)
}

func pathFromPreceding(lines []string, open int) string {
	j := open - 1
	for j >= 0 && strings.TrimSpace(lines[j]) == "" {
		j--
	}
	if j < 0 {
		return ""
	}
	line := strings.TrimSpace(lines[j])
	line = strings.TrimSpace(strings.TrimLeft(line, "#->"))
	line = strings.Trim(line, "`*\"'")
	if m := labelMarker.FindStringSubmatch(line); m != nil {
		return labelledPath(m[1])
	}
	if strings.HasSuffix(line, ":") {
		return barePath(strings.TrimSuffix(line, ":"))
	}
	return ""
}

// labelledPath accepts the text after a "file:" label when it is a single token.
func labelledPath(s string) string {
	p := cleanPath(s)
	if strings.ContainsAny(p, " \t") {
		return ""
	}
	return p
}

// barePath accepts an unlabeled token only when it looks like a file path.
func barePath(s string) string {
	p := cleanPath(s)
	if p == "" || strings.ContainsAny(p, " \t") {
		return ""
	}
	if !strings.ContainsAny(p, "/.") {
		return ""
	}
	return p
}

func cleanPath(s string) string {
	p := strings.TrimSpace(s)
	p = strings.Trim(p, "`*\"'")
	p = strings.TrimSpace(strings.TrimSuffix(p, ":"))
	p = strings.Trim(p, "`*\"'")
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimPrefix(p, "./")
}
