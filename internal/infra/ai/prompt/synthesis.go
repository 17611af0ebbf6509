package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
)

// SynthesisSystemPrompt asks for the overall developer report.
func SynthesisSystemPrompt() string {
	return `You are a senior engineering mentor. Using the per-repository analyses provided, define this developer's overall persona and write a short report with their strengths and weaknesses.

Requirements:
- Plain prose, at most two paragraphs, no markdown headings.
- Mention concrete repositories when they support a point.`
}

// SynthesisUserPrompt renders every repository narrative as context.
func SynthesisUserPrompt(username string, narratives []ai.RepoNarrative) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis results of the projects of user '%s'.\n\n[Analysis Data]\n", username)
	for _, n := range narratives {
		fmt.Fprintf(&b, "== Repo: %s ==\n- Tech: %s\n- Stability: %s\n- Comm: %s\n- Summary: %s\n\n",
			n.RepoName, n.TechView, n.StabilityView, n.CommView, n.Summary)
	}
	if len(narratives) == 0 {
		b.WriteString("(no repository could be analyzed)\n")
	}
	return b.String()
}
