package editor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// FileCompletion is one entry of the file completion menu.
type FileCompletion struct {
	Name  string
	IsDir bool
	// Insert is the token text that selecting the entry produces.
	Insert string
}

type fileSource []FileCompletion

func (f fileSource) String(i int) string {
	return f[i].Name
}

func (f fileSource) Len() int {
	return len(f)
}

// IsPathLike reports whether a token should complete as a file path.
func IsPathLike(token string) bool {
	token = strings.TrimPrefix(token, "@")
	switch {
	case token == "":
		return false
	case strings.HasPrefix(token, "/") && !strings.Contains(token[1:], "/"):
		// "/cmd" is a slash command, not an absolute path.
		return false
	case strings.ContainsRune(token, '/'),
		strings.HasPrefix(token, "."),
		strings.HasPrefix(token, "~"):
		return true
	}
	return false
}

// CompleteFiles lists completions for a path-like token. cwd resolves
// relative tokens; hidden entries appear only when the typed base starts
// with a dot.
func CompleteFiles(cwd, token string) []FileCompletion {
	mention := ""
	if strings.HasPrefix(token, "@") {
		mention, token = "@", token[1:]
	}
	dirPart, base := "", token
	if i := strings.LastIndexByte(token, '/'); i >= 0 {
		dirPart, base = token[:i+1], token[i+1:]
	}

	dir := expandHome(dirPart)
	switch {
	case dir == "":
		dir = cwd
	case !filepath.IsAbs(dir):
		dir = filepath.Join(cwd, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []FileCompletion
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		insert := mention + dirPart + name
		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
				isDir = info.IsDir()
			}
		}
		if isDir {
			insert += "/"
		}
		files = append(files, FileCompletion{Name: name, IsDir: isDir, Insert: insert})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	if base == "" {
		return files
	}
	var filtered []FileCompletion
	seen := make(map[string]bool)
	lower := strings.ToLower(base)
	for _, f := range files {
		if strings.HasPrefix(strings.ToLower(f.Name), lower) {
			filtered = append(filtered, f)
			seen[f.Name] = true
		}
	}
	for _, match := range fuzzy.FindFrom(base, fileSource(files)) {
		if f := files[match.Index]; !seen[f.Name] {
			filtered = append(filtered, f)
			seen[f.Name] = true
		}
	}
	return filtered
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
