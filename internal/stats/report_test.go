package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/problems"
)

func TestNextRankLadder(t *testing.T) {
	cases := []struct {
		points int
		next   string
		limit  int
	}{
		{0, "Bronze II", 500},
		{499, "Bronze II", 500},
		{500, "Bronze III", 800},
		{999, "Silver I", 1000},
		{1000, "Gold I", 1300},
		{1499, "Platinum I", 1500},
		{1500, "Diamond I", 2000},
		{2000, "Grandmaster", 3200},
		{3200, MaxRank, 3200},
		{4000, MaxRank, 4000},
	}
	for _, tc := range cases {
		step := NextRank(tc.points)
		if step.Next != tc.next || step.Limit != tc.limit {
			t.Fatalf("NextRank(%d) = %+v, want %s/%d", tc.points, step, tc.next, tc.limit)
		}
	}
}

func TestRankPercent(t *testing.T) {
	if got := RankPercent(250); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := RankPercent(5000); got != 100 {
		t.Fatalf("max rank should be 100, got %v", got)
	}
	if got := RankPercent(0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(50, 10); got != "█████░░░░░" {
		t.Fatalf("unexpected bar: %q", got)
	}
	if got := ProgressBar(150, 4); got != "████" {
		t.Fatalf("bar should clamp: %q", got)
	}
	if got := ProgressBar(10, 0); got != "" {
		t.Fatalf("zero width bar: %q", got)
	}
}

func TestRenderProfile(t *testing.T) {
	var buf bytes.Buffer
	p := model.Profile{
		Username: "ada",
		FullName: "Ada L",
		Stats:    model.Stats{Points: 40, RankedPoints: 650, QuestionsSolved: 7},
	}
	if err := RenderProfile(&buf, p); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ada (Ada L)", "Unranked", "Level", "Next: Bronze III", "650/800"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderProfileMaxRank(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderProfile(&buf, model.Profile{Username: "g", Stats: model.Stats{RankedPoints: 3500}}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Max Rank Achieved!") {
		t.Fatalf("expected max rank line:\n%s", buf.String())
	}
}

func TestRenderProblemsMarksSolvedAndFits(t *testing.T) {
	list := []model.Problem{
		{ID: "1", Title: "Two Sum", Difficulty: model.DifficultyEasy},
		{ID: "2", Title: "A Very Long Problem Title That Will Not Fit", Difficulty: model.DifficultyHard, Topic: "Graphs"},
	}
	var buf bytes.Buffer
	if err := RenderProblems(&buf, list, map[model.ID]bool{"1": true}, 60); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "✓") {
		t.Fatalf("solved row should be ticked: %q", lines[1])
	}
	if !strings.Contains(lines[1], "General") || !strings.Contains(lines[1], "Multi") {
		t.Fatalf("defaults missing: %q", lines[1])
	}
	for _, line := range lines {
		if displayWidth(line) > 60 {
			t.Fatalf("line wider than 60: %q", line)
		}
	}
	if !strings.Contains(lines[2], "…") {
		t.Fatalf("long title should be truncated: %q", lines[2])
	}
}

func TestRenderProblemsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderProblems(&buf, nil, nil, 0); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No problems match.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderProgress(t *testing.T) {
	var buf bytes.Buffer
	err := RenderProgress(&buf, []problems.DifficultyProgress{
		{Difficulty: model.DifficultyEasy, Solved: 1, Total: 2},
		{Difficulty: model.DifficultyHard, Solved: 0, Total: 0},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "1/2") || !strings.Contains(out, "0/0") {
		t.Fatalf("unexpected progress:\n%s", out)
	}
}
