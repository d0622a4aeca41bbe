package gias

// Status is the closed set of patch generation results.
type Status string

// Patch generation statuses.
const (
	StatusSuccess      Status = "success"
	StatusWarning      Status = "warning"
	StatusFailed       Status = "failed"
	StatusNotGenerated Status = "not_generated"
)

// PatchOutcome is the result of one patch generation attempt.
type PatchOutcome struct {
	Status        Status   `json:"status"`
	Message       string   `json:"message"`
	PatchFile     string   `json:"patch_file,omitempty"`
	MetadataFile  string   `json:"metadata_file,omitempty"`
	CommitMessage string   `json:"commit_message,omitempty"`
	FilesChanged  []string `json:"files_changed,omitempty"`
	// PatchContent holds the written patch document on success.
	PatchContent string `json:"patch_content,omitempty"`
	// Specification holds the raw model output when nothing could be parsed from it.
	Specification string `json:"specification,omitempty"`
}

// AnalysisResult is the answer to an issue analysis.
type AnalysisResult struct {
	Repository Repository
	Issue      Issue
	Analysis   string
	Sources    []string
	Patch      PatchOutcome
}

// QueryResult is the answer to a free-form question about a repository.
type QueryResult struct {
	Repository Repository
	Query      string
	Answer     string
	Sources    []string
	Patch      PatchOutcome
}
