package gias

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Patch defaults.
const (
	DefaultAuthor       = "GIAS Agent"
	AgentAuthor         = "GIAS Patch Agent"
	AuthorAddress       = "gias@github.local"
	RepositoryHeader    = "X-GIAS-Repository"
	DefaultContextLines = 3

	PatchExt    = ".patch"
	MetadataExt = "_metadata.json"
)

// PatchHeader is the mail-style preamble of a patch document.
type PatchHeader struct {
	Author      string
	Date        time.Time
	Repository  Repository
	Description string
}

// String renders the header, ending with the "---" line that precedes the diffs.
func (h PatchHeader) String() string {
	author := h.Author
	if author == "" {
		author = DefaultAuthor
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", author, AuthorAddress)
	fmt.Fprintf(&b, "Date: %s\n", h.Date.Format(time.RFC3339))
	fmt.Fprintf(&b, "Subject: Fix for %s\n", h.Repository.FullName())
	fmt.Fprintf(&b, "%s: %s\n", RepositoryHeader, h.Repository.FullName())
	b.WriteString("\n")
	b.WriteString(h.Description)
	b.WriteString("\n\n---\n")
	return b.String()
}

// AssemblePatch renders each non-noop change in order and joins the
// fragments under the header, each preceded by a blank line.
func AssemblePatch(header PatchHeader, changes *ChangeSet, renderer DiffRenderer, contextLines int) (string, error) {
	if changes.Len() == 0 {
		return "", ErrEmptyChangeSet
	}
	var b strings.Builder
	b.WriteString(header.String())
	for _, c := range changes.Changes() {
		if c.IsNoop() {
			continue
		}
		b.WriteString("\n")
		b.WriteString(renderer.Render(c.Original, c.Modified, c.Path, contextLines))
	}
	return b.String(), nil
}

// PatchOptions controls how a patch document is written.
type PatchOptions struct {
	// Name is the file name inside the patch directory. Empty selects DefaultPatchName.
	Name        string
	Repository  Repository
	Description string
	Author      string
}

// DefaultPatchName names an unattended patch: "<repo>_fix_<YYYYMMDD_HHMMSS>.patch".
func DefaultPatchName(repo Repository, now time.Time) string {
	return repo.Name + "_fix_" + now.Format("20060102_150405") + PatchExt
}

// IssuePatchName names a patch generated for an issue: "issue_<id>_<repo>_fix.patch".
func IssuePatchName(issueID int, repo Repository) string {
	return "issue_" + strconv.Itoa(issueID) + "_" + repo.Name + "_fix" + PatchExt
}

// MetadataName derives the metadata file name from a patch name.
func MetadataName(patchName string) string {
	return strings.TrimSuffix(patchName, PatchExt) + MetadataExt
}

// ValidatePatchName rejects names that are empty or would leave the patch directory.
func ValidatePatchName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidPatchName, name)
	}
	return nil
}

// PatchMetadata is the JSON sidecar written next to a patch.
type PatchMetadata struct {
	Timestamp    time.Time `json:"timestamp"`
	Repository   string    `json:"repository"`
	IssueID      int       `json:"issue_id"`
	IssueTitle   string    `json:"issue_title"`
	PatchFile    string    `json:"patch_file"`
	Analysis     string    `json:"analysis"`
	FilesChanged []string  `json:"files_changed"`
}

// PatchListing describes a patch file found in the patch directory.
type PatchListing struct {
	Name     string         `json:"name"`
	Path     string         `json:"path"`
	Size     int64          `json:"size"`
	Created  time.Time      `json:"created"`
	Metadata *PatchMetadata `json:"metadata,omitempty"`
}
