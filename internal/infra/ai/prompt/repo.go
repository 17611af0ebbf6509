package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
)

// RepoSystemPrompt provides strict directions and schema for the per-repository JSON output.
func RepoSystemPrompt() string {
	return `You are a senior software engineer reviewing a developer's commit history. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Analyze the repository from three viewpoints:
1. Tech & Architecture: code quality, design ability, optimization.
2. Stability & Maintenance: tests, bug fixing, reliability.
3. Communication & Convention: commit message conventions, collaboration habits.

Requirements:
- Every field is a non-empty string of one to three sentences.
- Base every statement on the commit messages given; do not invent features.
- If there are no commit messages, say so and judge conservatively.

Schema:
{
  "repo_name": "<string>",
  "tech_view": "<string>",
  "stability_view": "<string>",
  "comm_view": "<string>",
  "summary": "<string>"
}`
}

// RepoUserPrompt lists the newest commit messages of one repository.
func RepoUserPrompt(in ai.RepoInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n\n[Commit Logs]\n", in.RepoName)
	if len(in.Commits) == 0 {
		b.WriteString("(no commits)\n")
	}
	for _, c := range in.Commits {
		// first line only, bodies waste tokens
		line, _, _ := strings.Cut(c, "\n")
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(line))
	}
	b.WriteString("\nRespond with the JSON per schema.")
	return b.String()
}
