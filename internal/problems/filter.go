package problems

import (
	"sort"
	"strings"

	"github.com/verte-zerg/codeduel/internal/model"
)

// FilterAll disables a filter dimension.
const FilterAll = "All"

// Filter narrows the practice list. Empty or "All" fields match everything.
type Filter struct {
	Search     string
	Difficulty string
	Topic      string
	Language   string
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, FilterAll)
}

// Match reports whether p passes every active dimension.
func (f Filter) Match(p model.Problem) bool {
	if q := strings.TrimSpace(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q)) {
			return false
		}
	}
	if active(f.Difficulty) && !strings.EqualFold(p.Difficulty, f.Difficulty) {
		return false
	}
	if active(f.Topic) && !strings.EqualFold(p.TopicOrDefault(), f.Topic) {
		return false
	}
	if active(f.Language) && !strings.EqualFold(p.LanguageOrDefault(), f.Language) {
		return false
	}
	return true
}

// Apply returns the problems matching f, keeping order.
func (f Filter) Apply(list []model.Problem) []model.Problem {
	out := make([]model.Problem, 0, len(list))
	for _, p := range list {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Topics lists the distinct topics present, sorted.
func Topics(list []model.Problem) []string {
	seen := make(map[string]struct{})
	for _, p := range list {
		seen[p.TopicOrDefault()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DifficultyProgress is solved/total for one difficulty.
type DifficultyProgress struct {
	Difficulty string
	Solved     int
	Total      int
}

// Progress counts solved problems per difficulty, Easy/Medium/Hard order.
func Progress(list []model.Problem, solved map[model.ID]bool) []DifficultyProgress {
	out := []DifficultyProgress{
		{Difficulty: model.DifficultyEasy},
		{Difficulty: model.DifficultyMedium},
		{Difficulty: model.DifficultyHard},
	}
	for _, p := range list {
		for i := range out {
			if !strings.EqualFold(p.Difficulty, out[i].Difficulty) {
				continue
			}
			out[i].Total++
			if solved[p.ID] {
				out[i].Solved++
			}
		}
	}
	return out
}
