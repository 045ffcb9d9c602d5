package chat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samsaffron/term-chat/internal/clipboard"
	"github.com/samsaffron/term-chat/internal/history"
	"github.com/samsaffron/term-chat/internal/render"
)

// handOff gives the terminal to fn: the coordinator yields the screen and
// the host leaves raw mode. Both come back when fn returns, whatever
// happens inside it. The caller redraws the prompt.
func (s *Session) handOff(fn func() error) error {
	s.out.Suspend()
	reacquire := s.host.Release()
	defer func() {
		row, col := reacquire()
		s.out.Resume(row, col)
	}()
	return fn()
}

// runShell runs "!command" with the terminal attached. A bare "!" opens
// an interactive shell.
func (s *Session) runShell(ctx context.Context, command string) {
	if s.busy() {
		return
	}
	label := command
	if label == "" {
		label = "interactive shell"
	}
	s.live.Emit(render.ToolStart())
	s.live.Emit(render.ToolUse("Shell " + label))
	s.live.Emit(render.ToolEnd())

	err := s.handOff(func() error {
		cmd := s.shellCommand(ctx, command)
		cmd.Dir = s.cwd
		cmd.Stdin, cmd.Stdout, cmd.Stderr = s.stdin, s.stdout, s.stderr
		return cmd.Run()
	})
	if err != nil {
		s.live.Emit(render.Error(fmt.Sprintf("!%s: %v", command, err)))
	}
}

// editorCommand picks the external editor: config, then $VISUAL, then
// $EDITOR, then vi.
func (s *Session) editorCommand() string {
	for _, e := range []string{s.cfg.Chat.Editor, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(e) != "" {
			return e
		}
	}
	return "vi"
}

// openEditor edits the buffer in an external editor.
func (s *Session) openEditor(ctx context.Context) {
	if s.busy() {
		return
	}
	f, err := os.CreateTemp("", "term-chat-*.md")
	if err != nil {
		s.live.Emit(render.Error("Failed to create temp file: " + err.Error()))
		return
	}
	path := f.Name()
	defer os.Remove(path)
	_, err = f.WriteString(s.editor.Text())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.live.Emit(render.Error("Failed to write temp file: " + err.Error()))
		return
	}

	if err := s.runEditor(ctx, path); err != nil {
		s.live.Emit(render.Error(err.Error()))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.live.Emit(render.Error("Failed to read edited text: " + err.Error()))
		return
	}
	s.editor.SetText(strings.TrimRight(string(data), "\n"))
}

// runEditor opens path in the external editor with the terminal handed over.
func (s *Session) runEditor(ctx context.Context, path string) error {
	args := strings.Fields(s.editorCommand())
	err := s.handOff(func() error {
		cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
		cmd.Dir = s.cwd
		cmd.Stdin, cmd.Stdout, cmd.Stderr = s.stdin, s.stdout, s.stderr
		return cmd.Run()
	})
	if err != nil {
		return fmt.Errorf("editor %s failed: %w", args[0], err)
	}
	return nil
}

// editFile runs "/edit path" and records what changed as a diff block.
// A file that does not exist yet is created by the editor.
func (s *Session) editFile(ctx context.Context, arg string) {
	if arg == "" {
		s.live.Emit(render.Info("Usage: /edit <path>"))
		return
	}
	if s.busy() {
		return
	}
	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cwd, path)
	}
	before, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.live.Emit(render.Error(fmt.Sprintf("Cannot edit %s: %v", arg, err)))
		return
	}

	s.live.Emit(render.ToolStart())
	defer s.live.Emit(render.ToolEnd())
	s.live.Emit(render.ToolUse("Edit " + arg))
	if err := s.runEditor(ctx, path); err != nil {
		s.live.Emit(render.ToolResult(true, err.Error(), "failed"))
		return
	}
	after, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.live.Emit(render.ToolResult(true, err.Error(), "failed"))
		return
	}
	diff, changed := render.DiffFiles(arg, string(before), string(after))
	if !changed {
		s.live.Emit(render.ToolResult(false, "", "No changes to "+arg))
		return
	}
	s.live.Emit(diff)
}

// openPicker lets the user choose a previous entry into the buffer.
func (s *Session) openPicker(ctx context.Context) {
	if s.busy() {
		return
	}
	entries := s.editor.History().Entries()
	if len(entries) == 0 {
		s.live.Emit(render.Info("No history yet"))
		return
	}
	var picked string
	err := s.handOff(func() error {
		var err error
		picked, err = s.picker.Pick(ctx, entries)
		return err
	})
	switch {
	case errors.Is(err, history.ErrNoSelection):
	case err != nil:
		s.live.Emit(render.Error("History picker failed: " + err.Error()))
	default:
		s.editor.SetText(picked)
	}
}

// paste inserts the clipboard text at the cursor.
func (s *Session) paste(ctx context.Context) {
	text, err := clipboard.ReadText(ctx)
	if err != nil {
		s.live.Emit(render.Error("Paste failed: " + err.Error()))
		return
	}
	s.editor.HandlePaste(text)
}
