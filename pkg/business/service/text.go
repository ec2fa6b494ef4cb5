package service

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type ITextService interface {
	RemoveTags(input string) string
	RemoveTokens(input string, tokens ...string) string
	ContainsToken(input, token string) bool
	RemovePatterns(input string, patterns ...*regexp.Regexp) string
	CollapseSpaces(input string) string
	TrimTrailingDash(input string) string
	Delimited(input, open, close string) []string
}

type TextService struct{}

func NewTextService() *TextService {
	return &TextService{}
}

var (
	tagsRe   = regexp.MustCompile(`<[^>]*>`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// RemoveTags unescapes HTML entities and drops markup.
func (ts *TextService) RemoveTags(input string) string {
	return tagsRe.ReplaceAllString(html.UnescapeString(input), "")
}

// RemoveTokens deletes literal tokens case-insensitively, in the given order. A match
// that would split a word, like "Retro" inside "Retrofitter", is left alone.
func (ts *TextService) RemoveTokens(input string, tokens ...string) string {
	for _, token := range tokens {
		spans := tokenSpans(input, token)
		if len(spans) == 0 {
			continue
		}
		var b strings.Builder
		last := 0
		for _, span := range spans {
			b.WriteString(input[last:span[0]])
			b.WriteByte(' ')
			last = span[1]
		}
		b.WriteString(input[last:])
		input = b.String()
	}
	return input
}

// ContainsToken reports whether token occurs in input case-insensitively as a whole word.
func (ts *TextService) ContainsToken(input, token string) bool {
	return len(tokenSpans(input, token)) > 0
}

func tokenSpans(input, token string) [][]int {
	if token == "" {
		return nil
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(token))
	var spans [][]int
	for _, span := range re.FindAllStringIndex(input, -1) {
		if wordBounded(input, span[0], span[1]) {
			spans = append(spans, span)
		}
	}
	return spans
}

// wordBounded fails when a word rune at either edge of input[start:end] continues into
// a word rune outside it.
func wordBounded(input string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(input[start:end])
	if isWordRune(first) && start > 0 {
		if before, _ := utf8.DecodeLastRuneInString(input[:start]); isWordRune(before) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(input[start:end])
	if isWordRune(last) && end < len(input) {
		if after, _ := utf8.DecodeRuneInString(input[end:]); isWordRune(after) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (ts *TextService) RemovePatterns(input string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		input = re.ReplaceAllString(input, " ")
	}
	return input
}

func (ts *TextService) CollapseSpaces(input string) string {
	return strings.TrimSpace(spacesRe.ReplaceAllString(input, " "))
}

func (ts *TextService) TrimTrailingDash(input string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(input), "-–—"))
}

// Delimited returns the trimmed, non-empty tokens enclosed by open and close, in order.
func (ts *TextService) Delimited(input, open, close string) []string {
	var out []string
	rest := input
	for {
		start := strings.Index(rest, open)
		if start < 0 {
			return out
		}
		rest = rest[start+len(open):]
		end := strings.Index(rest, close)
		if end < 0 {
			return out
		}
		if token := strings.TrimSpace(rest[:end]); token != "" {
			out = append(out, token)
		}
		rest = rest[end+len(close):]
	}
}
