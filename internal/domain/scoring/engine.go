package scoring

import (
	"math"
	"sort"

	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

const topLanguageCount = 3

// RepoClass is the decorative classification of one repository.
type RepoClass struct {
	Trait  signals.Category `json:"dominant_type"`
	Object string           `json:"building_type"`
}

// Result of scoring one batch of signals
type Result struct {
	CategoryTotals map[signals.Category]int     `json:"commit_stats"`
	WeightedScores map[signals.Category]float64 `json:"weighted_scores"`
	TotalScore     float64                      `json:"total_score"`
	DominantTrait  signals.Category             `json:"dominant_trait"`
	Theme          Theme                        `json:"theme"`
	Persona        string                       `json:"persona"`
	Repositories   map[string]RepoClass         `json:"repositories"`
	TopLanguages   []string                     `json:"main_languages"`
}

// Score turns completed signals into scores and classifications. Failed
// signals are ignored. The result depends only on the signal contents,
// except for top-language ties which follow the order of sigs.
func Score(sigs []signals.RepositorySignal) Result {
	totals := signals.EmptyCounts()
	for _, s := range sigs {
		if !s.Usable() {
			continue
		}
		for c, n := range s.Categories {
			totals[c] += n
		}
	}

	cats := orderedCategories(totals)
	weighted := make(map[signals.Category]float64, len(cats))
	var total float64
	for _, c := range cats {
		w := round1(float64(totals[c]) * Weight(c))
		weighted[c] = w
		total += w
	}
	total = round1(total)

	trait := dominant(cats, func(c signals.Category) float64 { return weighted[c] })
	theme := BeginnerTheme
	if total >= LowActivityThreshold {
		theme = ThemeFor(trait)
	}

	repos := make(map[string]RepoClass)
	for _, s := range sigs {
		if !s.Usable() {
			continue
		}
		rt := RepoTrait(s.Categories)
		repos[s.Repo] = RepoClass{Trait: rt, Object: ObjectFor(theme, rt)}
	}

	return Result{
		CategoryTotals: totals,
		WeightedScores: weighted,
		TotalScore:     total,
		DominantTrait:  trait,
		Theme:          theme,
		Persona:        Persona(theme),
		Repositories:   repos,
		TopLanguages:   TopLanguages(sigs, topLanguageCount),
	}
}

// RepoTrait returns the dominant category of one repository by raw count.
// Repositories without any classified commit default to chore.
func RepoTrait(counts map[signals.Category]int) signals.Category {
	cats := orderedCategories(counts)
	return dominant(cats, func(c signals.Category) float64 { return float64(counts[c]) })
}

// TopLanguages merges byte counts across usable signals and keeps the n
// largest; ties keep the language that was seen first.
func TopLanguages(sigs []signals.RepositorySignal, n int) []string {
	type entry struct {
		name  string
		bytes int64
		seen  int
	}
	idx := make(map[string]int)
	var merged []entry
	for _, s := range sigs {
		if !s.Usable() {
			continue
		}
		for _, l := range s.Languages {
			if i, ok := idx[l.Name]; ok {
				merged[i].bytes += l.Bytes
				continue
			}
			idx[l.Name] = len(merged)
			merged = append(merged, entry{name: l.Name, bytes: l.Bytes, seen: len(merged)})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].bytes != merged[j].bytes {
			return merged[i].bytes > merged[j].bytes
		}
		return merged[i].seen < merged[j].seen
	})
	if len(merged) > n {
		merged = merged[:n]
	}
	out := make([]string, 0, len(merged))
	for _, e := range merged {
		out = append(out, e.name)
	}
	return out
}

// dominant picks the strictly highest value; cats must be in tie-break
// order so the first maximum wins. All-zero input yields DefaultTrait.
func dominant(cats []signals.Category, value func(signals.Category) float64) signals.Category {
	best := DefaultTrait
	bestVal := 0.0
	for _, c := range cats {
		if v := value(c); v > bestVal {
			best, bestVal = c, v
		}
	}
	return best
}

// orderedCategories returns the keys of counts (plus every known category)
// sorted by tie-break priority, unknown categories by name.
func orderedCategories(counts map[signals.Category]int) []signals.Category {
	seen := make(map[signals.Category]bool, len(counts)+len(priority))
	var cats []signals.Category
	for _, c := range priority {
		seen[c] = true
		cats = append(cats, c)
	}
	var extra []signals.Category
	for c := range counts {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(cats, extra...)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
