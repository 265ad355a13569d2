package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/codeduel/internal/model"
)

var (
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#61afef")).Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98c379"))

	difficultyStyles = map[string]lipgloss.Style{
		model.DifficultyEasy:   lipgloss.NewStyle().Foreground(lipgloss.Color("#98c379")),
		model.DifficultyMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c07b")),
		model.DifficultyHard:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
	}
)

func difficultyLabel(d string) string {
	if st, ok := difficultyStyles[d]; ok {
		return st.Render(d)
	}
	return mutedStyle.Render(d)
}

// exampleValue shows JSON strings unquoted and anything else as written.
func exampleValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// renderProblem lays out the statement for the problem pane.
func renderProblem(p model.Problem, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title))
	b.WriteString("\n")
	b.WriteString(difficultyLabel(p.Difficulty))
	b.WriteString(mutedStyle.Render(" · " + p.TopicOrDefault()))
	b.WriteString("\n\n")
	b.WriteString(wrapText(strings.TrimSpace(p.Description), textStyle, width))

	for i, ex := range p.Examples {
		b.WriteString("\n\n")
		b.WriteString(headingStyle.Render(fmt.Sprintf("Example %d", i+1)))
		b.WriteString("\n")
		b.WriteString(wrapText("Input: "+exampleValue(ex.Input), textStyle, width))
		b.WriteString("\n")
		b.WriteString(wrapText("Output: "+exampleValue(ex.Output), textStyle, width))
		if ex.Explanation != "" {
			b.WriteString("\n")
			b.WriteString(wrapText("Explanation: "+ex.Explanation, mutedStyle, width))
		}
	}

	if len(p.Constraints) > 0 {
		b.WriteString("\n\n")
		b.WriteString(headingStyle.Render("Constraints"))
		for _, c := range p.Constraints {
			b.WriteString("\n")
			b.WriteString(wrapText("• "+c, textStyle, width))
		}
	}
	return b.String()
}
