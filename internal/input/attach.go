// Package input loads files attached to a prompt with /attach.
package input

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samsaffron/term-chat/internal/clipboard"
)

// MaxFileSize is the largest file /attach accepts.
const MaxFileSize = 2 << 20

// ClipboardSpec attaches the clipboard text instead of a file.
const ClipboardSpec = "clipboard"

// FileContent is one attachment.
type FileContent struct {
	Path    string // display path, or "clipboard"
	Content string
}

// ErrNoMatch is returned when a glob matches no files.
var ErrNoMatch = errors.New("no files match")

// Load resolves attachment specs against cwd. Globs use doublestar syntax,
// so "**/*.go" recurses. Directories matched by a glob are skipped; a
// directory named directly is an error, as is a binary or oversized file.
func Load(ctx context.Context, cwd string, specs []string) ([]FileContent, error) {
	var result []FileContent
	for _, raw := range specs {
		if strings.EqualFold(raw, ClipboardSpec) {
			text, err := clipboard.ReadText(ctx)
			if err != nil {
				return nil, fmt.Errorf("read clipboard: %w", err)
			}
			result = append(result, FileContent{Path: ClipboardSpec, Content: text})
			continue
		}

		spec, err := ParseFileSpec(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid file spec %q: %w", raw, err)
		}
		matches, err := expand(cwd, spec.Path)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			content, err := readText(match)
			if err != nil {
				return nil, err
			}
			if spec.HasRegion {
				content = ExtractLines(content, spec.StartLine, spec.EndLine)
			}
			result = append(result, FileContent{
				Path:    spec.Label(displayPath(cwd, match)),
				Content: content,
			})
		}
	}
	return result, nil
}

// expand turns a path or glob into the files it names.
func expand(cwd, path string) ([]string, error) {
	path = expandHome(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	if !hasGlobChars(path) {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory; use a glob such as %s", path, filepath.Join(path, "**", "*"))
		}
		return []string{path}, nil
	}

	matches, err := doublestar.FilepathGlob(path, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoMatch, path)
	}
	return matches, nil
}

func readText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s is too large (%d bytes, limit %d)", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", path, err)
	}
	if isBinary(data) {
		return "", fmt.Errorf("%s looks like a binary file", path)
	}
	return string(data), nil
}

// sniffLen is how much of a file isBinary inspects.
const sniffLen = 8000

// isBinary reports NUL bytes or invalid UTF-8 in the first sniffLen bytes.
func isBinary(data []byte) bool {
	head := data
	truncated := len(head) > sniffLen
	if truncated {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	if utf8.Valid(head) {
		return false
	}
	if !truncated {
		return true
	}
	// The window may end inside a multi-byte rune.
	for cut := 1; cut < utf8.UTFMax; cut++ {
		if utf8.Valid(head[:len(head)-cut]) {
			return false
		}
	}
	return true
}

func displayPath(cwd, path string) string {
	if rel, err := filepath.Rel(cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func hasGlobChars(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// Format prepends attachments to a prompt with delimiters the model can
// tell apart from the question.
func Format(files []FileContent, prompt string) string {
	if len(files) == 0 {
		return prompt
	}
	var sb strings.Builder
	for _, f := range files {
		sb.WriteString("<<<<< FILE: ")
		sb.WriteString(f.Path)
		sb.WriteString(" >>>>>\n")
		sb.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("<<<<< END FILE >>>>>\n")
	}
	if prompt != "" {
		sb.WriteString("\n")
		sb.WriteString(prompt)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Names lists attachment display paths.
func Names(files []FileContent) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Path
	}
	return names
}

// LineCount returns the number of lines in content. A final newline does
// not start another line.
func LineCount(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}
