// Package gitdiff parses stored patch documents using bluekeyes/go-gitdiff.
package gitdiff

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.DiffParser = (*Parser)(nil)

// Parser parses unified diff content using go-gitdiff. Mail-style
// preambles such as the patch header are skipped.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses patch text.
func (p *Parser) Parse(text string) (*gias.Diff, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}

	result := &gias.Diff{
		Files: make([]gias.FileDiff, 0, len(files)),
	}

	traditional := !isGitFormat(text)
	for _, f := range files {
		fileDiff := convertFile(f)
		if traditional {
			fileDiff.OldPath = stripPrefix(fileDiff.OldPath)
			fileDiff.NewPath = stripPrefix(fileDiff.NewPath)
		}
		result.Files = append(result.Files, fileDiff)
	}

	return result, nil
}

// isGitFormat reports whether the text carries "diff --git" headers, whose
// names go-gitdiff already strips.
func isGitFormat(text string) bool {
	return strings.HasPrefix(text, "diff --git ") || strings.Contains(text, "\ndiff --git ")
}

func stripPrefix(name string) string {
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

func convertFile(f *gitdiff.File) gias.FileDiff {
	fd := gias.FileDiff{
		OldPath:  f.OldName,
		NewPath:  f.NewName,
		IsBinary: f.IsBinary,
		OldMode:  f.OldMode,
		NewMode:  f.NewMode,
	}

	switch {
	case f.IsNew:
		fd.Operation = gias.FileAdded
	case f.IsDelete:
		fd.Operation = gias.FileDeleted
	case f.IsRename:
		fd.Operation = gias.FileRenamed
	case f.IsCopy:
		fd.Operation = gias.FileCopied
	default:
		fd.Operation = gias.FileModified
	}

	fd.Hunks = make([]gias.Hunk, 0, len(f.TextFragments))
	for _, frag := range f.TextFragments {
		hunk := convertFragment(frag)
		fd.Hunks = append(fd.Hunks, hunk)
	}

	return fd
}

func convertFragment(frag *gitdiff.TextFragment) gias.Hunk {
	hunk := gias.Hunk{
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
		Section:  frag.Comment,
	}

	oldLineNum := int(frag.OldPosition)
	newLineNum := int(frag.NewPosition)

	for _, l := range frag.Lines {
		line := gias.Line{
			Content:   l.Line,
			NoNewline: l.NoEOL(),
		}

		switch l.Op {
		case gitdiff.OpContext:
			line.Type = gias.LineContext
			line.OldLineNum = oldLineNum
			line.NewLineNum = newLineNum
			oldLineNum++
			newLineNum++
		case gitdiff.OpAdd:
			line.Type = gias.LineAdded
			line.NewLineNum = newLineNum
			newLineNum++
		case gitdiff.OpDelete:
			line.Type = gias.LineDeleted
			line.OldLineNum = oldLineNum
			oldLineNum++
		}

		hunk.Lines = append(hunk.Lines, line)
	}

	return hunk
}
