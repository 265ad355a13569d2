// Package highlight tokenizes source code and renders it with terminal colors.
package highlight

import (
	"strings"
	"unicode"
)

// Kind classifies a token.
type Kind int

// Token kinds.
const (
	Plain Kind = iota
	Keyword
	Type
	Function
	String
	Number
	Comment
)

// Token is a run of source text with one kind.
type Token struct {
	Kind Kind
	Text string
}

type rules struct {
	keywords  map[string]bool
	types     map[string]bool
	functions map[string]bool
	hashLine  bool
	backtick  bool
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var common = []string{"return", "if", "else", "while", "for", "break", "continue"}

var languages = map[string]rules{
	"C++": {
		keywords: set(append([]string{"using", "namespace", "std", "include", "define",
			"class", "struct", "public", "private", "protected", "virtual", "friend",
			"template", "typename", "new", "delete", "this", "true", "false"}, common...)...),
		types:     set("int", "float", "double", "char", "void", "bool", "string", "vector", "auto", "const"),
		functions: set("cout", "cin", "printf", "scanf", "main", "push_back", "size"),
	},
	"Java": {
		keywords: set(append([]string{"public", "private", "protected", "class", "interface",
			"extends", "implements", "new", "this", "super", "import", "package",
			"static", "final", "try", "catch", "throw", "throws", "true", "false", "null"}, common...)...),
		types:     set("int", "boolean", "char", "double", "float", "long", "short", "byte", "String", "void"),
		functions: set("System", "out", "println", "main", "length"),
	},
	"JavaScript": {
		keywords: set(append([]string{"const", "let", "var", "function", "import", "from",
			"export", "default", "async", "await", "try", "catch", "class", "extends",
			"new", "this", "typeof", "instanceof", "true", "false", "null", "undefined"}, common...)...),
		types:     set("Object", "Array", "String", "Number", "Boolean", "Date", "Promise"),
		functions: set("console", "log", "map", "filter", "reduce", "push", "split", "join"),
		backtick:  true,
	},
	"Python": {
		keywords: set("def", "class", "if", "elif", "else", "while", "for", "in", "try", "except",
			"finally", "with", "as", "import", "from", "return", "pass", "break",
			"continue", "lambda", "global", "nonlocal", "True", "False", "None", "is", "not", "and", "or"),
		types:     set("int", "float", "str", "bool", "list", "dict", "set", "tuple"),
		functions: set("print", "len", "range", "input", "open", "type", "id", "str", "int"),
		hashLine:  true,
	},
}

var order = []string{"C++", "Java", "JavaScript", "Python"}

// Resolve maps a free-form label such as "Python Environment" to a rule set name.
// The longest contained name wins so "JavaScript" is not read as "Java".
func Resolve(label string) string {
	best := ""
	for _, name := range order {
		if strings.Contains(label, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		lower := strings.ToLower(label)
		switch {
		case strings.Contains(lower, "cpp"), strings.Contains(lower, "c++"):
			best = "C++"
		case strings.Contains(lower, "python"):
			best = "Python"
		case strings.Contains(lower, "javascript"):
			best = "JavaScript"
		case strings.Contains(lower, "java"):
			best = "Java"
		default:
			best = "JavaScript"
		}
	}
	return best
}

// Tokenize splits code into tokens. Concatenating the token texts yields code.
func Tokenize(code, language string) []Token {
	r := languages[Resolve(language)]
	src := []rune(code)
	var out []Token
	emit := func(kind Kind, text string) {
		if text == "" {
			return
		}
		if n := len(out); n > 0 && out[n-1].Kind == kind && kind == Plain {
			out[n-1].Text += text
			return
		}
		out = append(out, Token{Kind: kind, Text: text})
	}

	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case r.hashLine && ch == '#':
			j := lineEnd(src, i)
			emit(Comment, string(src[i:j]))
			i = j
		case !r.hashLine && ch == '/' && i+1 < len(src) && src[i+1] == '/':
			j := lineEnd(src, i)
			emit(Comment, string(src[i:j]))
			i = j
		case !r.hashLine && ch == '/' && i+1 < len(src) && src[i+1] == '*':
			j := blockEnd(src, i+2)
			emit(Comment, string(src[i:j]))
			i = j
		case ch == '"' || ch == '\'' || (r.backtick && ch == '`'):
			j := stringEnd(src, i)
			emit(String, string(src[i:j]))
			i = j
		case unicode.IsDigit(ch):
			j := i
			for j < len(src) && (unicode.IsDigit(src[j]) || src[j] == '.' || src[j] == '_') {
				j++
			}
			emit(Number, string(src[i:j]))
			i = j
		case isIdentStart(ch):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := string(src[i:j])
			emit(classify(r, word), word)
			i = j
		default:
			emit(Plain, string(ch))
			i++
		}
	}
	return out
}

func classify(r rules, word string) Kind {
	switch {
	case r.keywords[word]:
		return Keyword
	case r.types[word]:
		return Type
	case r.functions[word]:
		return Function
	default:
		return Plain
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func lineEnd(src []rune, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func blockEnd(src []rune, i int) int {
	for i+1 < len(src) {
		if src[i] == '*' && src[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(src)
}

// stringEnd returns the index after the closing quote. Quotes other than
// backticks stop at end of line when unterminated.
func stringEnd(src []rune, start int) int {
	quote := src[start]
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i
			}
		}
		i++
	}
	return len(src)
}

// Lines splits tokens at newlines. The newline runes are dropped.
func Lines(tokens []Token) [][]Token {
	lines := [][]Token{nil}
	for _, tok := range tokens {
		parts := strings.Split(tok.Text, "\n")
		for idx, part := range parts {
			if idx > 0 {
				lines = append(lines, nil)
			}
			if part != "" {
				lines[len(lines)-1] = append(lines[len(lines)-1], Token{Kind: tok.Kind, Text: part})
			}
		}
	}
	return lines
}
