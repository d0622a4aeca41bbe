package gias

import "fmt"

// CommitDescriptionLimit caps how much analysis text goes into a commit message body.
const CommitDescriptionLimit = 1000

// CommitMessage builds the commit message proposed for a patch fixing an issue.
func CommitMessage(repo Repository, issueID int, title, description string) string {
	return fmt.Sprintf(
		"Fix #%d: %s\n\n%s\n\nFixes: https://github.com/%s/issues/%d\n\nGenerated by GIAS (GitHub Issue Analysis System)\n",
		issueID, title, description, repo.FullName(), issueID,
	)
}

// CommitMessage rebuilds the commit message of the patch the metadata describes.
func (m PatchMetadata) CommitMessage() (string, error) {
	repo, err := ParseRepository(m.Repository)
	if err != nil {
		return "", err
	}
	return CommitMessage(repo, m.IssueID, m.IssueTitle, Truncate(m.Analysis, CommitDescriptionLimit)), nil
}
