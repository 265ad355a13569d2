package tui

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/verte-zerg/codeduel/internal/model"
)

var plain = lipgloss.NewStyle()

func TestBuildStyledRunesNewlinesAndTabs(t *testing.T) {
	runes := buildStyledRunes("a\tb\r\nc", plain)
	if len(runes) != 5 {
		t.Fatalf("expected 5 runes, got %d", len(runes))
	}
	if !runes[1].isSpace {
		t.Fatalf("tab should become a space")
	}
	if !runes[3].isNewline {
		t.Fatalf("expected newline marker at index 3")
	}
}

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	got := wrapText("hello world foo", plain, 8)
	if got != "hello\nworld\nfoo" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapStyledRunesSplitsLongWords(t *testing.T) {
	got := wrapText("abcdefghij", plain, 4)
	if got != "abcd\nefgh\nij" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapStyledRunesKeepsNewlines(t *testing.T) {
	got := wrapText("ab\ncd", plain, 10)
	if got != "ab\ncd" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	if got := wrapText("ab\ncd", plain, 0); got != "ab\ncd" {
		t.Fatalf("zero width should not wrap: %q", got)
	}
}

func TestWrapStyledRunesWideRunes(t *testing.T) {
	got := wrapText("日本語", plain, 4)
	if got != "日本\n語" {
		t.Fatalf("wide runes should take two cells: %q", got)
	}
}

func TestRenderProblem(t *testing.T) {
	p := model.Problem{
		Title:       "Two Sum",
		Difficulty:  model.DifficultyEasy,
		Description: "Return the sum.",
		Examples: []model.Example{
			{Input: json.RawMessage(`"[1,2]"`), Output: json.RawMessage(`3`), Explanation: "1 + 2"},
		},
		Constraints: []string{"n <= 10"},
	}
	out := ansi.Strip(renderProblem(p, 40))
	for _, want := range []string{"Two Sum", "Easy · General", "Return the sum.", "Example 1", "Input: [1,2]", "Output: 3", "Explanation: 1 + 2", "Constraints", "• n <= 10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("statement missing %q:\n%s", want, out)
		}
	}
}
