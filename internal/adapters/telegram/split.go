package telegram

import (
	"strings"
	"unicode"
)

const messageLimit = 4096

var cutSeparators = [][]rune{{'\n', '\n'}, {'\n'}, {' '}}

// SplitMessage breaks plain text into chunks that fit a single Telegram
// message. Each chunk ends at the last blank line, newline or space inside the
// limit, tried in that order; a word longer than the limit is cut hard.
func SplitMessage(text string) []string {
	return split(text, messageLimit, nil)
}

// SplitHTML is SplitMessage for text sent with the HTML parse mode. Parts are
// never cut inside a tag, an entity or an element such as <code>...</code>,
// unless a single element is longer than the limit.
func SplitHTML(text string) []string {
	return split(text, messageLimit, htmlCuts)
}

func splitRunes(text string, limit int) []string {
	return split(text, limit, nil)
}

// split cuts text into parts of at most limit runes. cuts, when set, reports
// which positions of a window are allowed as cut points.
func split(text string, limit int, cuts func([]rune) []bool) []string {
	rest := []rune(strings.TrimSpace(text))
	var parts []string
	for len(rest) > 0 {
		if len(rest) <= limit {
			parts = append(parts, string(rest))
			break
		}
		window := rest[:limit]
		var allowed []bool
		if cuts != nil {
			allowed = cuts(window)
		}
		cut := cutPoint(window, allowed)
		parts = append(parts, strings.TrimRightFunc(string(rest[:cut]), unicode.IsSpace))
		rest = rest[cut:]
		for len(rest) > 0 && unicode.IsSpace(rest[0]) {
			rest = rest[1:]
		}
	}
	return parts
}

func cutPoint(window []rune, allowed []bool) int {
	for _, sep := range cutSeparators {
		for i := lastIndex(window, sep); i > 0; i = lastIndex(window[:i], sep) {
			if cut := i + len(sep); allowed == nil || allowed[cut] {
				return cut
			}
		}
	}
	if allowed != nil {
		for cut := len(window); cut > 0; cut-- {
			if allowed[cut] {
				return cut
			}
		}
	}
	return len(window)
}

// htmlCuts marks every position of window that lies outside tags, entities
// and open elements. The result has len(window)+1 entries.
func htmlCuts(window []rune) []bool {
	allowed := make([]bool, len(window)+1)
	depth := 0
	inTag, closing, inEntity := false, false, false
	for i, r := range window {
		allowed[i] = depth == 0 && !inTag && !inEntity
		switch {
		case inTag:
			if r != '>' {
				continue
			}
			inTag = false
			if !closing {
				depth++
			} else if depth > 0 {
				depth--
			}
		case inEntity:
			if r == ';' || unicode.IsSpace(r) {
				inEntity = false
			}
		case r == '<':
			inTag = true
			closing = i+1 < len(window) && window[i+1] == '/'
		case r == '&':
			inEntity = true
		}
	}
	allowed[len(window)] = depth == 0 && !inTag && !inEntity
	return allowed
}

func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
