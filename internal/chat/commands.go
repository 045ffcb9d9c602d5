package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/samsaffron/term-chat/internal/clipboard"
	"github.com/samsaffron/term-chat/internal/input"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/render"
	"github.com/samsaffron/term-chat/internal/ui"
)

// command runs a built-in slash command.
func (s *Session) command(ctx context.Context, entry string) {
	name, args, _ := strings.Cut(entry, " ")
	args = strings.TrimSpace(args)
	cmd, ok := s.editor.Registry().Lookup(name)
	if !ok {
		s.live.Emit(render.Error(fmt.Sprintf("Unknown command %s. Type /help for a list.", name)))
		return
	}
	s.log.Debug("command", "name", cmd.Name, "args", args)

	switch cmd.Name {
	case "help":
		s.help()
	case "clear":
		s.clear()
	case "quit":
		s.quit = true
	case "history":
		s.openPicker(ctx)
	case "attach":
		s.attach(ctx, args)
	case "detach":
		s.detach()
	case "copy":
		s.copyAnswer(ctx)
	case "run":
		s.runCommand(ctx, args)
	case "redraw":
		s.RedrawHistory()
	case "spacing":
		s.toggleSpacing()
	case "model":
		s.switchModel(args)
	case "edit":
		s.editFile(ctx, args)
	}
}

func (s *Session) help() {
	var b strings.Builder
	b.WriteString("Commands:")
	for _, cmd := range s.editor.Registry().All() {
		fmt.Fprintf(&b, "\n  %-34s %s", cmd.Usage, cmd.Description)
	}
	fmt.Fprintf(&b, "\n  %-34s %s", "!<command>", "Run a shell command in the terminal")
	b.WriteString("\nKeys:")
	for _, binding := range s.editor.KeyMap().ShortHelp() {
		h := binding.Help()
		fmt.Fprintf(&b, "\n  %-34s %s", h.Key, h.Desc)
	}
	s.live.Emit(render.Info(b.String()))
}

// clear starts the session over: no conversation, no transcript.
func (s *Session) clear() {
	s.waitJob()
	s.messages = nil
	s.attachments = nil
	s.lastAnswer = ""
	s.stats.Reset()
	s.live.Reset()
	s.RedrawHistory()
}

func (s *Session) attach(ctx context.Context, args string) {
	if args == "" {
		if len(s.attachments) == 0 {
			s.live.Emit(render.Info("Usage: /attach <glob|path:start-end|clipboard>"))
			return
		}
		s.live.Emit(render.Info("Attached: " + strings.Join(input.Names(s.attachments), ", ")))
		return
	}
	files, err := input.Load(ctx, s.cwd, strings.Fields(args))
	if err != nil {
		s.live.Emit(render.Error(err.Error()))
		return
	}
	s.attachments = append(s.attachments, files...)
	for _, f := range files {
		s.live.Emit(render.ToolStart())
		s.live.Emit(render.ToolUse("Read " + f.Path))
		s.live.Emit(render.FileReadOutput(f.Path, f.Content, input.LineCount(f.Content)))
		s.live.Emit(render.ToolEnd())
	}
	s.live.Emit(render.Info(fmt.Sprintf("Attached %s to the next message", strings.Join(input.Names(files), ", "))))
}

func (s *Session) detach() {
	n := len(s.attachments)
	s.attachments = nil
	s.live.Emit(render.Info(fmt.Sprintf("Dropped %d attachment(s)", n)))
}

func (s *Session) copyAnswer(ctx context.Context) {
	if s.lastAnswer == "" {
		s.live.Emit(render.Info("Nothing to copy yet"))
		return
	}
	if err := clipboard.WriteText(ctx, s.lastAnswer); err != nil {
		s.live.Emit(render.Error("Copy failed: " + err.Error()))
		return
	}
	s.live.Emit(render.Info("Copied the last answer"))
}

// toggleSpacing flips blank lines between blocks and repaints so the whole
// transcript follows the new setting.
func (s *Session) toggleSpacing() {
	suppressed := !ui.SpacingSuppressed()
	ui.SetSpacingSuppressed(suppressed)
	if suppressed {
		s.live.Emit(render.Info("Blank lines between blocks off"))
	} else {
		s.live.Emit(render.Info("Blank lines between blocks on"))
	}
	s.RedrawHistory()
}

// switchModel shows the active model, or switches to "provider",
// "provider:model" or a model of the current provider.
func (s *Session) switchModel(args string) {
	if args == "" {
		s.live.Emit(render.Info(fmt.Sprintf("Using %s:%s (providers: %s)",
			s.provider.Name(), s.provider.Model(), strings.Join(llm.ProviderNames, ", "))))
		return
	}
	if s.busy() {
		return
	}
	providerName, model, err := llm.ParseProviderModel(args)
	if err != nil {
		if strings.Contains(args, ":") {
			s.live.Emit(render.Error(err.Error()))
			return
		}
		providerName, model = s.provider.Name(), args
	}

	cfg := *s.cfg
	cfg.ApplyOverrides(providerName, model)
	provider, err := llm.NewProvider(&cfg)
	if err != nil {
		s.live.Emit(render.Error(err.Error()))
		return
	}
	s.cfg = &cfg
	s.provider = provider
	s.live.Emit(render.Info(fmt.Sprintf("Switched to %s:%s", provider.Name(), provider.Model())))
}
