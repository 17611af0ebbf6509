package signals

import "time"

// Category of commit activity
type Category string

const (
	CategoryFeat     Category = "feat"
	CategoryFix      Category = "fix"
	CategoryDocs     Category = "docs"
	CategoryRefactor Category = "refactor"
	CategoryTest     Category = "test"
	CategoryChore    Category = "chore"
)

// Categories is the canonical category order used for output and iteration.
var Categories = []Category{
	CategoryFeat,
	CategoryFix,
	CategoryDocs,
	CategoryRefactor,
	CategoryTest,
	CategoryChore,
}

// Status enum
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailed         Status = "failed"
)

// Commit is the subset of a hosting-API commit the collector needs.
type Commit struct {
	SHA         string    `json:"sha"`
	Message     string    `json:"message"`
	CommittedAt time.Time `json:"committed_at"`
}

// LanguageBytes keeps one entry of a repository language breakdown.
// Slices of LanguageBytes preserve the order the hosting API returned.
type LanguageBytes struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

// Repository is a hosting-API repository listing entry.
type Repository struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Stars       int       `json:"stars"`
	Language    string    `json:"language,omitempty"`
	URL         string    `json:"url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RepositorySignal is the derived activity data of one repository for one run.
type RepositorySignal struct {
	Repo         string           `json:"repo"`
	TotalCommits int              `json:"total_commits"`
	Categories   map[Category]int `json:"commit_stats"`
	Languages    []LanguageBytes  `json:"languages"`
	Messages     []string         `json:"-"` // newest first
	LatestCommit *time.Time       `json:"latest_commit,omitempty"`
	Status       Status           `json:"status"`
	Error        string           `json:"error,omitempty"`
}

// Usable reports whether the signal takes part in scoring and AI analysis.
func (s RepositorySignal) Usable() bool {
	return s.Status == StatusSuccess || s.Status == StatusPartialSuccess
}

// EmptyCounts returns a zero-filled count map with every known category.
func EmptyCounts() map[Category]int {
	m := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		m[c] = 0
	}
	return m
}

// LanguageMap flattens the ordered language list into a map.
func (s RepositorySignal) LanguageMap() map[string]int64 {
	m := make(map[string]int64, len(s.Languages))
	for _, l := range s.Languages {
		m[l.Name] += l.Bytes
	}
	return m
}
