package ui

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NextSafeBoundary returns the byte offset just past the first paragraph
// break in text at which the markdown before it is self-contained, or -1.
//
// A break ("\n\n") is safe when it is outside a fenced code block and every
// inline marker opened since the start of text has been closed. The result
// depends only on the text before the break, so feeding the same content in
// different chunkings yields the same cut points.
func NextSafeBoundary(text string) int {
	pos := 0
	for {
		idx := strings.Index(text[pos:], "\n\n")
		if idx == -1 {
			return -1
		}
		safePos := pos + idx + 2
		prefix := text[:safePos]
		if !isInCodeBlock(prefix, len(prefix)) && areInlineMarkersBalanced(prefix) {
			return safePos
		}
		pos = pos + idx + 1
	}
}

// isInCodeBlock returns true if position pos is inside an unclosed code block.
// Code blocks are delimited by ``` or ~~~ at the start of a line.
func isInCodeBlock(text string, pos int) bool {
	if pos > len(text) {
		pos = len(text)
	}
	return countCodeFences(text[:pos])%2 == 1
}

// countCodeFences counts fence markers that appear at the start of a line.
func countCodeFences(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			count++
		}
	}
	return count
}

// areInlineMarkersBalanced checks that **, *, _, ~~ and code spans are closed.
// List bullets and intra-word underscores are not markers.
func areInlineMarkersBalanced(text string) bool {
	inBold := false
	inItalicAsterisk := false
	inItalicUnderscore := false
	inStrikethrough := false

	i := 0
	for i < len(text) {
		switch {
		case text[i] == '`':
			start := i
			for i < len(text) && text[i] == '`' {
				i++
			}
			closing := text[start:i]
			closeIdx := strings.Index(text[i:], closing)
			if closeIdx == -1 {
				return false
			}
			i += closeIdx + len(closing)
			continue

		case text[i] == '*':
			if i+1 < len(text) && text[i+1] == '*' {
				inBold = !inBold
				i += 2
				continue
			}
			if !isBullet(text, i) {
				inItalicAsterisk = !inItalicAsterisk
			}

		case text[i] == '_':
			if !isIntraWord(text, i) {
				inItalicUnderscore = !inItalicUnderscore
			}

		case text[i] == '~' && i+1 < len(text) && text[i+1] == '~':
			inStrikethrough = !inStrikethrough
			i += 2
			continue
		}
		i++
	}

	return !inBold && !inItalicAsterisk && !inItalicUnderscore && !inStrikethrough
}

// isBullet reports whether the '*' at i starts a list item or stands alone.
func isBullet(text string, i int) bool {
	if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\t' && text[i+1] != '\n' {
		return false
	}
	if i+1 >= len(text) {
		return true
	}
	j := i - 1
	for j >= 0 && (text[j] == ' ' || text[j] == '\t') {
		j--
	}
	return j < 0 || text[j] == '\n' || i > 0 && text[i-1] == ' '
}

func isIntraWord(text string, i int) bool {
	if i == 0 || i+1 >= len(text) {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(text[:i])
	after, _ := utf8.DecodeRuneInString(text[i+1:])
	return isWordRune(before) && isWordRune(after)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
