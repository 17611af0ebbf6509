package signals

import "strings"

// keywords per category, matched as lower-case substrings.
// Korean keywords are kept because a good part of the analyzed users commit in Korean.
var keywords = map[Category][]string{
	CategoryFeat:     {"feat", "add", "create", "implement", "추가", "구현", "생성"},
	CategoryFix:      {"fix", "bug", "patch", "issue", "수정", "해결", "고침", "오류"},
	CategoryDocs:     {"docs", "readme", "document", "문서", "설명", "주석"},
	CategoryRefactor: {"refactor", "clean", "simplify", "개선", "리팩"},
	CategoryTest:     {"test", "testing", "spec", "테스트"},
	CategoryChore:    {"chore", "build", "config", "setting", "설정", "배포"},
}

// Keywords returns a copy of the keyword set of a category.
func Keywords(c Category) []string {
	return append([]string(nil), keywords[c]...)
}

// Classify returns every category whose keyword set matches the message.
// A category appears at most once no matter how many of its keywords match.
func Classify(message string) []Category {
	msg := strings.ToLower(message)
	var out []Category
	for _, c := range Categories {
		for _, kw := range keywords[c] {
			if strings.Contains(msg, kw) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// CountCategories classifies every message and sums the matches per category.
func CountCategories(messages []string) map[Category]int {
	counts := EmptyCounts()
	for _, m := range messages {
		for _, c := range Classify(m) {
			counts[c]++
		}
	}
	return counts
}
