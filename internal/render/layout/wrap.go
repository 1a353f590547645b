package layout

import "strings"

// MeasureFunc returns the rendered pixel width of s.
type MeasureFunc func(s string) int

// NormalizeBreaks converts CRLF and lone CR line endings to '\n'.
func NormalizeBreaks(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitLines splits text on hard breaks only. Every line is kept, including
// empty ones, so the caller can stack them with uniform line height.
func SplitLines(text string) []string {
	return strings.Split(NormalizeBreaks(text), "\n")
}

// Wrap greedily breaks text into lines no wider than maxWidth pixels.
//
// Lines break at spaces; '\n' always forces a break. A word that is wider
// than maxWidth on its own is emitted on a line by itself and overflows.
// Once no space is left, the remainder becomes the last line only if it
// fits or is a single word; otherwise the line breaks at the last space
// that fit, so "AAAA BBBB" one pixel too narrow gives ["AAAA", "BBBB"].
// Each returned line is trimmed of surrounding spaces. A leading run of
// hard breaks yields one empty line per break; text made only of spaces
// yields no lines.
func Wrap(text string, maxWidth int, measure MeasureFunc) []string {
	remaining := NormalizeBreaks(text)
	var lines []string
	for remaining != "" {
		if remaining[0] == '\n' {
			lines = append(lines, "")
			remaining = remaining[1:]
			continue
		}
		if trimmed := strings.TrimLeft(remaining, " "); trimmed != remaining {
			remaining = trimmed
			continue
		}
		line, rest := nextLine(remaining, maxWidth, measure)
		lines = append(lines, strings.Trim(line, " "))
		remaining = rest
	}
	return lines
}

// nextLine resolves one line off the front of s and returns it together with
// the unconsumed text. s is non-empty and starts with neither '\n' nor a
// space. Every call consumes at least one byte.
func nextLine(s string, maxWidth int, measure MeasureFunc) (line, rest string) {
	firstSpace := -1
	for {
		from := firstSpace + 1
		secondSpace := indexFrom(s, ' ', from)
		end := secondSpace
		if end < 0 {
			end = len(s)
		}

		// A hard break before the tentative space wins if what precedes it
		// fits, or if there is no earlier space to fall back to.
		if hard := indexFrom(s[:end], '\n', from); hard >= 0 {
			if firstSpace < 0 || measure(s[:hard]) <= maxWidth {
				return s[:hard], s[hard+1:]
			}
			return s[:firstSpace], s[firstSpace+1:]
		}

		if secondSpace < 0 {
			if firstSpace < 0 || measure(s) <= maxWidth {
				return s, ""
			}
			return s[:firstSpace], s[firstSpace+1:]
		}

		if measure(s[:secondSpace]) > maxWidth {
			if firstSpace < 0 {
				return s[:secondSpace], s[secondSpace+1:]
			}
			return s[:firstSpace], s[firstSpace+1:]
		}
		firstSpace = secondSpace
	}
}

func indexFrom(s string, c byte, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.IndexByte(s[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}
