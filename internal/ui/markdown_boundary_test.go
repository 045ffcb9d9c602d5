package ui

import (
	"strings"
	"testing"
)

func TestNextSafeBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "no break", in: "hello world", want: -1},
		{name: "paragraph", in: "first\n\nsecond", want: 7},
		{name: "inside fence", in: "```go\nx\n\ny\n```\n\nafter", want: len("```go\nx\n\ny\n```\n\n")},
		{name: "open fence", in: "```\ncode\n\nmore", want: -1},
		{name: "open bold", in: "**bold\n\nstill** done\n\nnext", want: len("**bold\n\nstill** done\n\n")},
		{name: "bullets", in: "* one\n* two\n* three\n\nafter", want: len("* one\n* two\n* three\n\n")},
		{name: "snake case", in: "use foo_bar here\n\nnext", want: len("use foo_bar here\n\n")},
		{name: "open code span", in: "run `make\n\nit` now\n\n", want: len("run `make\n\nit` now\n\n")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextSafeBoundary(tc.in); got != tc.want {
				t.Fatalf("NextSafeBoundary(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

// Cutting at each boundary as text arrives must give the same segments no
// matter how the text was chunked.
func TestNextSafeBoundaryChunkInvariant(t *testing.T) {
	text := "Intro **bold**\n\n```sh\necho 1\n\necho 2\n```\n\n* a\n* b\n\nlast _word_ here\n\n"

	split := func(chunks []string) []string {
		var segs []string
		pending := ""
		for _, c := range chunks {
			pending += c
			for {
				b := NextSafeBoundary(pending)
				if b < 0 {
					break
				}
				segs = append(segs, pending[:b])
				pending = pending[b:]
			}
		}
		if pending != "" {
			segs = append(segs, pending)
		}
		return segs
	}

	whole := split([]string{text})
	var runes []string
	for _, r := range text {
		runes = append(runes, string(r))
	}
	byRune := split(runes)

	if strings.Join(whole, "|") != strings.Join(byRune, "|") {
		t.Fatalf("segments differ:\nwhole:   %q\nby rune: %q", whole, byRune)
	}
	if len(whole) != 4 {
		t.Fatalf("got %d segments, want 4: %q", len(whole), whole)
	}
}
