package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// ErrNoSelection is returned when the picker was dismissed.
var ErrNoSelection = errors.New("no entry selected")

const multilineMarker = " ↵ "

// Picker lets the user choose a past entry in a full-screen child UI. It
// runs Command (fzf by default) when it is installed and falls back to a
// built-in filterable list otherwise. The caller hands the terminal over
// before calling Pick.
type Picker struct {
	Command string
	Stderr  io.Writer
}

// NewPicker creates a picker running command.
func NewPicker(command string) *Picker {
	return &Picker{Command: command, Stderr: os.Stderr}
}

// Pick shows entries newest first and returns the chosen one.
func (p *Picker) Pick(ctx context.Context, entries []string) (string, error) {
	if len(entries) == 0 {
		return "", ErrNoSelection
	}
	lines, originals := pickerLines(entries)
	if args := strings.Fields(p.Command); len(args) > 0 {
		if path, err := exec.LookPath(args[0]); err == nil {
			return p.runExternal(ctx, path, args[1:], lines, originals)
		}
	}
	return p.runBuiltin(ctx, lines, originals)
}

// pickerLines flattens entries to one line each, newest first, and maps
// every line back to its entry.
func pickerLines(entries []string) ([]string, map[string]string) {
	lines := make([]string, 0, len(entries))
	originals := make(map[string]string, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		line := strings.ReplaceAll(strings.TrimRight(entries[i], "\n"), "\n", multilineMarker)
		if _, dup := originals[line]; dup {
			continue
		}
		originals[line] = entries[i]
		lines = append(lines, line)
	}
	return lines, originals
}

func (p *Picker) runExternal(ctx context.Context, path string, args, lines []string, originals map[string]string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = p.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		// fzf exits 1 for no match and 130 when dismissed.
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 1 || exitErr.ExitCode() == 130) {
			return "", ErrNoSelection
		}
		return "", fmt.Errorf("run %s: %w", path, err)
	}
	choice := strings.TrimRight(out.String(), "\r\n")
	if i := strings.IndexByte(choice, '\n'); i >= 0 {
		choice = choice[:i]
	}
	if original, ok := originals[choice]; ok {
		return original, nil
	}
	if choice == "" {
		return "", ErrNoSelection
	}
	return choice, nil
}

func (p *Picker) runBuiltin(ctx context.Context, lines []string, originals map[string]string) (string, error) {
	options := make([]huh.Option[string], len(lines))
	for i, line := range lines {
		options[i] = huh.NewOption(line, originals[line])
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("History").
				Options(options...).
				Filtering(true).
				Height(15).
				Value(&selected),
		),
	).WithProgramOptions(tea.WithAltScreen())

	// Use /dev/tty directly to bypass shell redirections
	if tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		defer tty.Close()
		form = form.WithInput(tty).WithOutput(tty)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrNoSelection
		}
		return "", fmt.Errorf("history picker: %w", err)
	}
	if selected == "" {
		return "", ErrNoSelection
	}
	return selected, nil
}
