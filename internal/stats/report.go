package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"

	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/problems"
)

const (
	terminalWidthBackup = 80
	rankBarWidth        = 30
	minTitleWidth       = 12
)

// TerminalWidth returns the width of f, or 80 when f is not a terminal.
func TerminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// RenderProfile prints the profile card with rank progress.
func RenderProfile(w io.Writer, p model.Profile) error {
	st := p.Stats
	level := st.Level
	if level == 0 {
		level = 1
	}
	if _, err := fmt.Fprintf(w, "%s", orDefault(p.Username, "(no username)")); err != nil {
		return err
	}
	if p.FullName != "" {
		if _, err := fmt.Fprintf(w, " (%s)", p.FullName); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	rows := [][]string{
		{"College", orDefault(p.College, "-")},
		{"Language", orDefault(p.PreferredLanguage, "-")},
		{"GitHub", orDefault(p.Github, "-")},
		{"Bio", orDefault(p.Bio, "-")},
		{"Level", strconv.Itoa(level)},
		{"Points", strconv.Itoa(st.Points)},
		{"Ranked points", strconv.Itoa(st.RankedPoints)},
		{"Rank", orDefault(st.Rank, "Unranked")},
		{"Solved", strconv.Itoa(st.QuestionsSolved)},
		{"Streak", strconv.Itoa(st.Streak)},
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	step := NextRank(st.RankedPoints)
	if step.Next == MaxRank {
		_, err := fmt.Fprintln(w, "\nMax Rank Achieved!")
		return err
	}
	pct := RankPercent(st.RankedPoints)
	_, err := fmt.Fprintf(w, "\nNext: %s %s %d/%d (%.0f%%)\n",
		step.Next, ProgressBar(pct, rankBarWidth), st.RankedPoints, step.Limit, pct)
	return err
}

// RenderProblems prints the practice list. Solved problems are ticked.
// width limits the title column; zero means unlimited.
func RenderProblems(w io.Writer, list []model.Problem, solved map[model.ID]bool, width int) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No problems match.")
		return err
	}
	headers := []string{"", "ID", "Title", "Difficulty", "Topic", "Language"}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		mark := ""
		if solved[p.ID] {
			mark = "✓"
		}
		rows = append(rows, []string{mark, string(p.ID), p.Title, p.Difficulty, p.TopicOrDefault(), p.LanguageOrDefault()})
	}
	if width > 0 {
		fitTitles(headers, rows, width)
	}
	for _, line := range formatTable(headers, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// fitTitles truncates the title column so rows fit in width.
func fitTitles(headers []string, rows [][]string, width int) {
	const titleCol = 2
	others := 0
	for col := range headers {
		if col == titleCol {
			continue
		}
		colWidth := displayWidth(headers[col])
		for _, row := range rows {
			if w := displayWidth(row[col]); w > colWidth {
				colWidth = w
			}
		}
		others += colWidth + 2
	}
	room := width - others
	if room < minTitleWidth {
		room = minTitleWidth
	}
	for _, row := range rows {
		row[titleCol] = truncate(row[titleCol], room)
	}
}

// RenderProgress prints solved/total per difficulty.
func RenderProgress(w io.Writer, progress []problems.DifficultyProgress) error {
	rows := make([][]string, 0, len(progress))
	for _, p := range progress {
		pct := 0.0
		if p.Total > 0 {
			pct = float64(p.Solved) / float64(p.Total) * 100
		}
		rows = append(rows, []string{
			p.Difficulty,
			fmt.Sprintf("%d/%d", p.Solved, p.Total),
			ProgressBar(pct, 20),
		})
	}
	for _, line := range formatTable(nil, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
