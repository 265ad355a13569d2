package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette colors.
var (
	keywordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d55fde"))
	functionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#61afef"))
	typeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c07b"))
	stringStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98c379"))
	numberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d19a66"))
	commentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5c6370")).Italic(true)
	plainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#abb2bf"))
)

// Style returns the style for a token kind.
func Style(kind Kind) lipgloss.Style {
	switch kind {
	case Keyword:
		return keywordStyle
	case Function:
		return functionStyle
	case Type:
		return typeStyle
	case String:
		return stringStyle
	case Number:
		return numberStyle
	case Comment:
		return commentStyle
	default:
		return plainStyle
	}
}

// Render styles tokens. Newlines are kept outside the escape sequences.
func Render(tokens []Token) string {
	var b strings.Builder
	for i, line := range Lines(tokens) {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, tok := range line {
			b.WriteString(Style(tok.Kind).Render(tok.Text))
		}
	}
	return b.String()
}

// Code tokenizes and renders in one step.
func Code(code, language string) string {
	return Render(Tokenize(code, language))
}
