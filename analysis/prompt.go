package analysis

import (
	"fmt"
	"strings"

	"github.com/fwojciec/gias"
)

// Prompt truncation limits, in runes.
const (
	PatchBodyLimit       = 1000
	PatchAnalysisLimit   = 2000
	DescriptionBodyLimit = 500
	CommitAnalysisLimit  = gias.CommitDescriptionLimit
	QueryBodyLimit       = 500
)

// AnalysisSystemPrompt frames the analysis model.
const AnalysisSystemPrompt = `You are a senior software engineer with deep GitHub expertise.
You answer questions about a repository, its issues and its source code.
Ground every claim in the provided code context and name the files involved.`

// PatchSystemPrompt frames the patch model.
const PatchSystemPrompt = `You are an expert code patch generator specializing in production-ready fixes for GitHub issues.
You analyze issues using the provided code context and produce complete, testable code changes
that can be converted to git patches.`

// NoDescription replaces an empty issue body.
const NoDescription = "No description provided"

// BuildIssueQuestion creates the analysis question for an issue.
func BuildIssueQuestion(issue gias.Issue) string {
	return fmt.Sprintf("Issue Title: %s\n\nIssue Description:\n%s", issue.Title, issue.Body)
}

// BuildAnalysisPrompt creates the user prompt for analysis and free-form questions.
func BuildAnalysisPrompt(codeContext, question string) string {
	return fmt.Sprintf(`Use the following code context from the repository to answer the question.

**Code Context:**
%s

**Question:**
%s

Explain the root cause, point to the relevant files and functions, and describe how to fix it.`, codeContext, question)
}

// BuildPatchQuery creates the patch request from an issue and its analysis.
func BuildPatchQuery(issueID int, title, body, analysis string) string {
	return fmt.Sprintf(`Based on this GitHub issue and analysis, generate a detailed patch/fix:

**Issue #%d: %s**

**Description:**
%s

**Analysis:**
%s

Please provide:
1. A detailed explanation of the fix
2. Specific file paths that need to be changed
3. The exact code changes for each file (showing before and after)
4. How to test the changes
5. Any potential side effects or considerations

Format your response as a structured patch specification that can be converted to a git patch.`,
		issueID, title, gias.Truncate(body, PatchBodyLimit), gias.Truncate(analysis, PatchAnalysisLimit))
}

// BuildPatchPrompt wraps a patch query with the output format and retrieved context.
func BuildPatchPrompt(codeContext, query string) string {
	return fmt.Sprintf(`**Output Format:**

When providing code changes, use the following format:

`+"```"+`file: path/to/file.py
[original code section that will be replaced]
---
[new/modified code section]
`+"```"+`

For new files:
`+"```"+`file: path/to/new_file.py
---
[complete file content]
`+"```"+`

**Guidelines:**
1. Show complete code blocks with surrounding context (at least 2-3 lines before and after changes)
2. The original section must match the repository file exactly
3. For each file, explain what changed and why
4. Include import statements and dependencies

**Code Context:**
%s

**Issue to Fix:**
%s

Please provide:
1. **Summary**: Brief overview of the fix
2. **Root Cause**: Why this issue occurs
3. **Changes**: Detailed code changes for each affected file
4. **Testing**: How to verify the fix works
5. **Considerations**: Edge cases, backward compatibility issues, or side effects`, codeContext, query)
}

// PatchDescription is the description embedded in the patch header.
func PatchDescription(issueID int, title, body string) string {
	return fmt.Sprintf("Fix for %s\n\nIssue: #%d\n%s", title, issueID, gias.Truncate(body, DescriptionBodyLimit))
}

// FormatContext renders snippets for a prompt, stopping before the token budget is exceeded.
// A nil counter or non-positive budget includes every snippet.
func FormatContext(snippets []gias.Snippet, counter gias.TokenCounter, budget int) (string, []string) {
	var b strings.Builder
	var sources []string
	used := 0
	for _, sn := range snippets {
		block := fmt.Sprintf("### %s\n```\n%s\n```\n\n", sn.Source, sn.Content)
		if counter != nil && budget > 0 {
			n := counter.Count(block)
			if used+n > budget {
				break
			}
			used += n
		}
		b.WriteString(block)
		sources = appendUnique(sources, sn.Source)
	}
	return strings.TrimSpace(b.String()), sources
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
