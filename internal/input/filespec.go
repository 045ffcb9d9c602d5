package input

import (
	"fmt"
	"strconv"
	"strings"
)

// FileSpec is an attachment argument: a path or glob with an optional
// 1-indexed line range.
type FileSpec struct {
	Path      string
	StartLine int // 0 means from the beginning
	EndLine   int // 0 means to the end
	HasRegion bool
}

// ParseFileSpec splits "main.go:11-22" into a path and a line range.
// Supported forms:
//   - main.go       whole file
//   - main.go:11-22 lines 11 to 22
//   - main.go:11-   line 11 to the end
//   - main.go:-22   lines 1 to 22
//   - main.go:11    line 11 only
//
// A colon suffix that is not a range stays part of the path.
func ParseFileSpec(spec string) (FileSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return FileSpec{}, fmt.Errorf("empty file spec")
	}
	i := strings.LastIndexByte(spec, ':')
	if i <= 0 || !isRange(spec[i+1:]) {
		return FileSpec{Path: spec}, nil
	}

	fs := FileSpec{Path: spec[:i], HasRegion: true}
	start, end, hasDash := strings.Cut(spec[i+1:], "-")
	var err error
	if start != "" {
		if fs.StartLine, err = strconv.Atoi(start); err != nil {
			return FileSpec{}, fmt.Errorf("invalid start line %q", start)
		}
	}
	switch {
	case !hasDash:
		fs.EndLine = fs.StartLine
	case end != "":
		if fs.EndLine, err = strconv.Atoi(end); err != nil {
			return FileSpec{}, fmt.Errorf("invalid end line %q", end)
		}
	}
	if fs.EndLine > 0 && fs.StartLine > fs.EndLine {
		return FileSpec{}, fmt.Errorf("line range %d-%d is reversed", fs.StartLine, fs.EndLine)
	}
	return fs, nil
}

// isRange reports whether s looks like "N", "N-", "-N" or "N-M".
func isRange(s string) bool {
	if s == "" || s == "-" {
		return false
	}
	dashes := 0
	for _, r := range s {
		switch {
		case r == '-':
			dashes++
		case r < '0' || r > '9':
			return false
		}
	}
	return dashes <= 1
}

// ExtractLines returns the lines from start to end inclusive. Line numbers
// are 1-indexed; 0 leaves that side open.
func ExtractLines(content string, start, end int) string {
	lines := strings.Split(content, "\n")
	from := max(start-1, 0)
	if from >= len(lines) {
		return ""
	}
	to := len(lines)
	if end > 0 && end < to {
		to = end
	}
	if from >= to {
		return ""
	}
	return strings.Join(lines[from:to], "\n")
}

// Label is the display form of the reference, with the range when one was given.
func (fs FileSpec) Label(path string) string {
	if !fs.HasRegion {
		return path
	}
	switch {
	case fs.EndLine == 0:
		return fmt.Sprintf("%s:%d-", path, max(fs.StartLine, 1))
	case fs.StartLine == fs.EndLine:
		return fmt.Sprintf("%s:%d", path, fs.StartLine)
	}
	return fmt.Sprintf("%s:%d-%d", path, max(fs.StartLine, 1), fs.EndLine)
}
