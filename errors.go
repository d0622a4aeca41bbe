package gias

import "errors"

var (
	// ErrEmptyChangeSet is returned when assembling a patch from no changes.
	ErrEmptyChangeSet = errors.New("change set is empty")

	// ErrPatchNotFound is returned when no patch has the requested name.
	ErrPatchNotFound = errors.New("patch not found")

	// ErrInvalidPatchName is returned for names that are empty or escape the patch directory.
	ErrInvalidPatchName = errors.New("invalid patch name")

	// ErrInvalidRepository is returned for malformed "owner/name" strings.
	ErrInvalidRepository = errors.New("invalid repository")

	// ErrIssueNotFound is returned when the issue cannot be fetched.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrNoDocuments is returned when a repository yields nothing to index.
	ErrNoDocuments = errors.New("no documents loaded")

	// ErrEmptyCompletion is returned when a model answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrUpstream marks failures of a language model or other remote collaborator.
	ErrUpstream = errors.New("upstream service failed")
)
