// Package editor is a small multi-line code buffer with a highlighted view.
package editor

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/codeduel/internal/highlight"
)

// TabWidth is the number of spaces inserted by Tab.
const TabWidth = 4

var (
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5c6370"))
)

// Editor holds text as lines of runes and a cursor.
type Editor struct {
	lines [][]rune
	row   int
	col   int
	// Scroll offsets of the last View.
	top  int
	left int
}

// New returns an editor holding text with the cursor at the start.
func New(text string) *Editor {
	e := &Editor{}
	e.SetText(text)
	return e
}

// SetText replaces the buffer and moves the cursor to the start.
func (e *Editor) SetText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", TabWidth))
	parts := strings.Split(text, "\n")
	e.lines = make([][]rune, len(parts))
	for i, p := range parts {
		e.lines[i] = []rune(p)
	}
	e.row, e.col, e.top, e.left = 0, 0, 0, 0
}

// Text returns the buffer contents.
func (e *Editor) Text() string {
	parts := make([]string, len(e.lines))
	for i, l := range e.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

// Cursor returns the zero-based row and column.
func (e *Editor) Cursor() (row, col int) {
	return e.row, e.col
}

// LineCount returns the number of lines.
func (e *Editor) LineCount() int {
	return len(e.lines)
}

// Insert types runes at the cursor. Newlines split the line.
func (e *Editor) Insert(runes ...rune) {
	for _, r := range runes {
		switch r {
		case '\n', '\r':
			e.Newline()
		case '\t':
			e.Tab()
		default:
			line := e.lines[e.row]
			line = append(line[:e.col], append([]rune{r}, line[e.col:]...)...)
			e.lines[e.row] = line
			e.col++
		}
	}
}

// Newline splits the line at the cursor and carries the indentation over.
func (e *Editor) Newline() {
	line := e.lines[e.row]
	indent := leadingSpaces(line)
	if indent > e.col {
		indent = e.col
	}
	head := append([]rune{}, line[:e.col]...)
	tail := append([]rune(strings.Repeat(" ", indent)), line[e.col:]...)

	lines := make([][]rune, 0, len(e.lines)+1)
	lines = append(lines, e.lines[:e.row]...)
	lines = append(lines, head, tail)
	lines = append(lines, e.lines[e.row+1:]...)
	e.lines = lines
	e.row++
	e.col = indent
}

// Tab inserts spaces up to the next tab stop.
func (e *Editor) Tab() {
	n := TabWidth - e.col%TabWidth
	for i := 0; i < n; i++ {
		e.Insert(' ')
	}
}

// Backspace deletes before the cursor, joining lines at column zero.
func (e *Editor) Backspace() {
	if e.col > 0 {
		line := e.lines[e.row]
		e.lines[e.row] = append(line[:e.col-1], line[e.col:]...)
		e.col--
		return
	}
	if e.row == 0 {
		return
	}
	prev := e.lines[e.row-1]
	e.col = len(prev)
	e.lines[e.row-1] = append(prev, e.lines[e.row]...)
	e.lines = append(e.lines[:e.row], e.lines[e.row+1:]...)
	e.row--
}

// Delete removes the rune under the cursor, joining with the next line at end of line.
func (e *Editor) Delete() {
	line := e.lines[e.row]
	if e.col < len(line) {
		e.lines[e.row] = append(line[:e.col], line[e.col+1:]...)
		return
	}
	if e.row == len(e.lines)-1 {
		return
	}
	e.lines[e.row] = append(line, e.lines[e.row+1]...)
	e.lines = append(e.lines[:e.row+1], e.lines[e.row+2:]...)
}

// Left moves the cursor back, wrapping to the previous line.
func (e *Editor) Left() {
	if e.col > 0 {
		e.col--
		return
	}
	if e.row > 0 {
		e.row--
		e.col = len(e.lines[e.row])
	}
}

// Right moves the cursor forward, wrapping to the next line.
func (e *Editor) Right() {
	if e.col < len(e.lines[e.row]) {
		e.col++
		return
	}
	if e.row < len(e.lines)-1 {
		e.row++
		e.col = 0
	}
}

// Up moves one line up, clamping the column.
func (e *Editor) Up() {
	if e.row == 0 {
		e.col = 0
		return
	}
	e.row--
	e.clampCol()
}

// Down moves one line down, clamping the column.
func (e *Editor) Down() {
	if e.row == len(e.lines)-1 {
		e.col = len(e.lines[e.row])
		return
	}
	e.row++
	e.clampCol()
}

// Home moves to the first non-space rune, or column zero when already there.
func (e *Editor) Home() {
	indent := leadingSpaces(e.lines[e.row])
	if e.col == indent {
		e.col = 0
		return
	}
	e.col = indent
}

// End moves to the end of the line.
func (e *Editor) End() {
	e.col = len(e.lines[e.row])
}

func (e *Editor) clampCol() {
	if n := len(e.lines[e.row]); e.col > n {
		e.col = n
	}
}

func leadingSpaces(line []rune) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

type cell struct {
	s     string
	width int
}

// View renders height lines of width columns around the cursor.
// A non-positive height shows every line.
func (e *Editor) View(language string, width, height int) string {
	tokens := highlight.Lines(highlight.Tokenize(e.Text(), language))
	gutterWidth := len(strconv.Itoa(len(e.lines))) + 1
	textWidth := width - gutterWidth - 1
	if width <= 0 || textWidth < 1 {
		textWidth = 0
	}

	if height <= 0 {
		height = len(e.lines)
	}
	if e.row < e.top {
		e.top = e.row
	}
	if e.row >= e.top+height {
		e.top = e.row - height + 1
	}
	if textWidth > 0 {
		cursorX := runewidth.StringWidth(string(e.lines[e.row][:e.col]))
		if cursorX < e.left {
			e.left = cursorX
		}
		if cursorX >= e.left+textWidth {
			e.left = cursorX - textWidth + 1
		}
	}

	var b strings.Builder
	for i := e.top; i < len(e.lines) && i < e.top+height; i++ {
		if i > e.top {
			b.WriteByte('\n')
		}
		num := strconv.Itoa(i + 1)
		b.WriteString(gutterStyle.Render(strings.Repeat(" ", gutterWidth-1-len(num)) + num + " "))
		cursor := -1
		if i == e.row {
			cursor = e.col
		}
		var lineTokens []highlight.Token
		if i < len(tokens) {
			lineTokens = tokens[i]
		}
		b.WriteString(renderCells(lineCells(lineTokens, cursor), e.left, textWidth))
	}
	return b.String()
}

// lineCells styles each rune; the cursor cell is reversed and may sit past the end.
func lineCells(tokens []highlight.Token, cursor int) []cell {
	var cells []cell
	idx := 0
	for _, tok := range tokens {
		style := highlight.Style(tok.Kind)
		for _, r := range tok.Text {
			st := style
			if idx == cursor {
				st = cursorStyle
			}
			cells = append(cells, cell{s: st.Render(string(r)), width: runewidth.RuneWidth(r)})
			idx++
		}
	}
	if cursor >= idx {
		cells = append(cells, cell{s: cursorStyle.Render(" "), width: 1})
	}
	return cells
}

func renderCells(cells []cell, left, width int) string {
	var b strings.Builder
	x := 0
	used := 0
	for _, c := range cells {
		if x < left {
			x += c.width
			continue
		}
		if width > 0 && used+c.width > width {
			break
		}
		b.WriteString(c.s)
		used += c.width
		x += c.width
	}
	return b.String()
}
