package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
)

func TestRepoUserPrompt(t *testing.T) {
	p := RepoUserPrompt(ai.RepoInput{
		RepoName: "api",
		Commits:  []string{"fix: crash\n\nlong body here", "feat: init"},
	})

	assert.Contains(t, p, "Repository: api")
	assert.Contains(t, p, "- fix: crash\n")
	assert.NotContains(t, p, "long body")
	assert.Contains(t, p, "- feat: init\n")

	assert.Contains(t, RepoUserPrompt(ai.RepoInput{RepoName: "empty"}), "(no commits)")
}

func TestSynthesisUserPrompt(t *testing.T) {
	p := SynthesisUserPrompt("octo", []ai.RepoNarrative{
		{RepoName: "api", TechView: "t", StabilityView: "s", CommView: "c", Summary: "sum"},
	})

	assert.Contains(t, p, "user 'octo'")
	assert.Contains(t, p, "== Repo: api ==")
	assert.Contains(t, p, "- Summary: sum")
	assert.Contains(t, RepoSystemPrompt(), `"tech_view"`)
}
