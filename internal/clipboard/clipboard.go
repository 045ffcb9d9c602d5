// Package clipboard reads and writes the system clipboard through the
// platform's command-line utilities.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard utility is installed.
var ErrUnavailable = errors.New("no clipboard utility found")

// Command is one clipboard utility invocation.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// readers and writers are tried in order; the first installed one wins.
var (
	readers = map[string][]Command{
		"darwin": {{Name: "pbpaste"}},
		"linux": {
			{Name: "wl-paste", Args: []string{"--no-newline"}},
			{Name: "xclip", Args: []string{"-selection", "clipboard", "-o"}},
			{Name: "xsel", Args: []string{"--clipboard", "--output"}},
		},
	}
	writers = map[string][]Command{
		"darwin": {{Name: "pbcopy"}},
		"linux": {
			{Name: "wl-copy"},
			{Name: "xclip", Args: []string{"-selection", "clipboard", "-i"}},
			{Name: "xsel", Args: []string{"--clipboard", "--input"}},
		},
	}
)

// ReadText returns the clipboard text.
func ReadText(ctx context.Context) (string, error) {
	return run(ctx, readers[runtime.GOOS], "")
}

// WriteText replaces the clipboard text.
func WriteText(ctx context.Context, text string) error {
	_, err := run(ctx, writers[runtime.GOOS], text)
	return err
}

// run executes the first installed command, feeding it stdin. A command
// that is installed but fails falls through to the next one.
func run(ctx context.Context, cmds []Command, stdin string) (string, error) {
	if len(cmds) == 0 {
		return "", fmt.Errorf("%w on %s", ErrUnavailable, runtime.GOOS)
	}
	var lastErr error
	for _, c := range cmds {
		path, err := exec.LookPath(c.Name)
		if err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, path, c.Args...)
		var out, errOut bytes.Buffer
		cmd.Stdin = strings.NewReader(stdin)
		cmd.Stdout = &out
		cmd.Stderr = &errOut
		if err := cmd.Run(); err != nil {
			lastErr = fmt.Errorf("%s: %w: %s", c, err, strings.TrimSpace(errOut.String()))
			continue
		}
		return out.String(), nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return "", fmt.Errorf("%w (install %s)", ErrUnavailable, strings.Join(names, " or "))
}
