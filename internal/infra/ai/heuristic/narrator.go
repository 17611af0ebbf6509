// Package heuristic is an offline ai.Provider. It derives narratives from
// commit message patterns only, so runs work without an LLM key.
package heuristic

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

var conventional = regexp.MustCompile(`^(feat|fix|docs|refactor|test|chore|perf|build|ci|style|revert)(\([^)]+\))?!?: `)

type Narrator struct{}

var _ ai.Provider = Narrator{}

func New() Narrator { return Narrator{} }

func (Narrator) Source() ai.Source { return ai.SourceHeuristic }

// AnalyzeRepo never fails unless ctx is done.
func (Narrator) AnalyzeRepo(ctx context.Context, in ai.RepoInput) (ai.RepoNarrative, error) {
	if err := ctx.Err(); err != nil {
		return ai.RepoNarrative{}, err
	}
	counts := signals.CountCategories(in.Commits)
	total := len(in.Commits)

	n := ai.RepoNarrative{RepoName: in.RepoName}
	if total == 0 {
		n.TechView = "No recent commits were available, so the architecture could not be judged."
		n.StabilityView = "Stability cannot be assessed without commit history."
		n.CommView = "No commit messages to review."
		n.Summary = fmt.Sprintf("%s has no recent activity to analyze.", in.RepoName)
		return n, nil
	}

	feat, refactor := counts[signals.CategoryFeat], counts[signals.CategoryRefactor]
	switch {
	case refactor > 0 && refactor >= feat/2:
		n.TechView = fmt.Sprintf("Regular refactoring (%d of %d commits) shows attention to structure and design.", refactor, total)
	case feat > 0:
		n.TechView = fmt.Sprintf("Feature work dominates (%d of %d commits); the codebase is growing quickly.", feat, total)
	default:
		n.TechView = "Changes are mostly maintenance; little structural work is visible."
	}

	fix, test := counts[signals.CategoryFix], counts[signals.CategoryTest]
	switch {
	case test > 0 && fix > 0:
		n.StabilityView = fmt.Sprintf("Both fixes (%d) and tests (%d) appear, a sign of deliberate quality work.", fix, test)
	case test > 0:
		n.StabilityView = fmt.Sprintf("Tests are touched in %d commits, which keeps regressions in check.", test)
	case fix > 0:
		n.StabilityView = fmt.Sprintf("%d bug fixes without matching test work; stability relies on reactive fixing.", fix)
	default:
		n.StabilityView = "No explicit fix or test activity in the recent history."
	}

	conv := 0
	for _, c := range in.Commits {
		if conventional.MatchString(strings.ToLower(c)) {
			conv++
		}
	}
	ratio := float64(conv) / float64(total)
	switch {
	case ratio >= 0.8:
		n.CommView = "Commit messages consistently follow Conventional Commits."
	case ratio >= 0.3:
		n.CommView = "Commit messages partly follow a convention; consistency could improve."
	default:
		n.CommView = "Commit messages are free-form; adopting a convention would help collaborators."
	}
	if docs := counts[signals.CategoryDocs]; docs > 0 {
		n.CommView += fmt.Sprintf(" Documentation is updated in %d commits.", docs)
	}

	n.Summary = fmt.Sprintf("%s: %d recent commits, mainly %s work.", in.RepoName, total, topCategory(counts))
	return n, nil
}

// Synthesize summarizes the repository narratives in a fixed format.
func (Narrator) Synthesize(ctx context.Context, username string, narratives []ai.RepoNarrative) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(narratives) == 0 {
		return fmt.Sprintf("%s has no repository analysis available yet.", username), nil
	}
	names := make([]string, 0, len(narratives))
	for _, n := range narratives {
		names = append(names, n.RepoName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s was analyzed across %d repositories (%s).", username, len(narratives), strings.Join(names, ", "))
	for _, n := range narratives {
		fmt.Fprintf(&b, " %s", n.Summary)
	}
	return b.String(), nil
}

func topCategory(counts map[signals.Category]int) string {
	cats := append([]signals.Category(nil), signals.Categories...)
	sort.SliceStable(cats, func(i, j int) bool { return counts[cats[i]] > counts[cats[j]] })
	if counts[cats[0]] == 0 {
		return "unclassified"
	}
	return string(cats[0])
}
