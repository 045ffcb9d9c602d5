// Package chat drives an interactive session: it feeds keys to the prompt
// editor, streams answers into the transcript above it and hands the
// terminal to child processes when asked.
package chat

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/editor"
	"github.com/samsaffron/term-chat/internal/history"
	"github.com/samsaffron/term-chat/internal/input"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/output"
	"github.com/samsaffron/term-chat/internal/render"
	"github.com/samsaffron/term-chat/internal/terminal"
	"github.com/samsaffron/term-chat/internal/ui"
)

// shutdownTimeout bounds the wait for a running job when the session ends.
const shutdownTimeout = 2 * time.Second

// Options configures a Session.
type Options struct {
	Config   *config.Config
	Provider llm.Provider
	Term     terminal.Controller
	Host     Host
	// StartRow is the screen row the prompt starts on.
	StartRow int
	Store    history.Store
	Styles   *ui.Styles
	Logger   *slog.Logger
	CWD      string
	// Resize delivers window size changes.
	Resize <-chan struct{}

	// Stdin, Stdout and Stderr are handed to interactive child processes.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Session is one interactive chat. Everything except Live and the
// coordinator is owned by the goroutine calling Run.
type Session struct {
	cfg      *config.Config
	provider llm.Provider
	host     Host
	out      *output.Coordinator
	live     *render.Live
	editor   *editor.Editor
	prompt   *editor.Prompt
	styles   *ui.Styles
	store    history.Store
	picker   *history.Picker
	stats    *ui.SessionStats
	log      *slog.Logger
	cwd      string
	resize   <-chan struct{}

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	messages    []llm.Message
	attachments []input.FileContent
	lastAnswer  string

	job     *job
	jobDone chan *job
	quit    bool
}

// New creates a session. The prompt is not drawn until Run.
func New(opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	styles := opts.Styles
	if styles == nil {
		styles = ui.DefaultStyles()
	}
	store := opts.Store
	if store == nil {
		store = history.NewMemoryStore(cfg.History.MaxEntries)
	}
	cwd := opts.CWD
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	s := &Session{
		cfg:      cfg,
		provider: opts.Provider,
		host:     opts.Host,
		styles:   styles,
		store:    store,
		picker:   history.NewPicker(cfg.History.Picker),
		stats:    ui.NewSessionStats(),
		log:      logger,
		cwd:      cwd,
		resize:   opts.Resize,
		stdin:    orReader(opts.Stdin, os.Stdin),
		stdout:   orWriter(opts.Stdout, os.Stdout),
		stderr:   orWriter(opts.Stderr, os.Stderr),
		jobDone:  make(chan *job, 1),
	}
	if s.provider == nil {
		s.provider = llm.NewEchoProvider(cfg.Echo.ChunkDelay)
	}
	s.picker.Stderr = s.stderr

	log := render.NewLog(styles)
	s.out = output.New(opts.Term, opts.StartRow, output.WithLogger(logger), output.WithHistory(log))
	s.live = render.NewLive(s.out, s.width, log, styles)

	registry := editor.NewRegistry(cfg.Chat.Commands)
	s.editor = editor.New(
		editor.WithRegistry(registry),
		editor.WithCWD(cwd),
		editor.WithHistory(editor.NewHistory(s.loadHistory(), registry.IsBuiltinEntry)),
	)
	s.prompt = editor.NewPrompt(styles)
	ui.SetSpacingSuppressed(cfg.Chat.SuppressSpacing)
	return s
}

func orReader(r, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orWriter(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

func (s *Session) loadHistory() []string {
	entries, err := s.store.List(context.Background(), 0)
	if err != nil {
		s.log.Warn("failed to load history", "error", err)
		return nil
	}
	return history.Texts(entries)
}

// Coordinator returns the output coordinator.
func (s *Session) Coordinator() *output.Coordinator {
	return s.out
}

// Log returns the session event log.
func (s *Session) Log() *render.Log {
	return s.live.Log()
}

// Stats returns the session statistics.
func (s *Session) Stats() *ui.SessionStats {
	return s.stats
}

func (s *Session) width() int {
	w, _ := s.out.Size()
	return w
}

// Run reads input until the user quits, ctx is done or input ends. The
// prompt is erased on the way out and the cursor left below the transcript.
func (s *Session) Run(ctx context.Context) error {
	s.drawPrompt()
	defer s.shutdown()

	for !s.quit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-s.jobDone:
			s.finishJob(j)
		case <-s.resize:
			s.RedrawHistory()
		case ev, ok := <-s.host.Events():
			if !ok {
				return nil
			}
			s.handleEvent(ctx, ev)
		}
	}
	return nil
}

func (s *Session) shutdown() {
	if s.interrupt() {
		select {
		case j := <-s.jobDone:
			s.finishJob(j)
		case <-time.After(shutdownTimeout):
			s.log.Warn("job did not stop before exit")
		}
	}
	s.out.HideAndExit()
	s.log.Info("session ended", "stats", s.stats.Render())
}

func (s *Session) handleEvent(ctx context.Context, ev terminal.Event) {
	switch ev.Kind {
	case terminal.EventKey:
		s.handleKey(ctx, ev.Key)
	case terminal.EventPaste:
		s.editor.HandlePaste(ev.Text)
	case terminal.EventResize:
		s.RedrawHistory()
		return
	default:
		return
	}
	if !s.quit {
		s.drawPrompt()
	}
}

func (s *Session) handleKey(ctx context.Context, k terminal.Key) {
	res := s.editor.HandleKey(k)
	switch res.Action {
	case editor.ActionSubmit:
		s.submit(ctx, res.Text)
	case editor.ActionInterrupt:
		switch {
		case s.interrupt():
		case s.editor.Text() != "":
			s.editor.Reset()
		default:
			s.quit = true
		}
	case editor.ActionExit:
		s.quit = true
	case editor.ActionCancel:
		s.interrupt()
	case editor.ActionPaste:
		s.paste(ctx)
	case editor.ActionEditor:
		s.openEditor(ctx)
	case editor.ActionPicker:
		s.openPicker(ctx)
	case editor.ActionRedraw:
		s.RedrawHistory()
	}
}

// submit dispatches an entry: "!" runs a shell, "/" a command, anything
// else goes to the model.
func (s *Session) submit(ctx context.Context, text string) {
	s.remember(ctx, text)
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "!"):
		s.runShell(ctx, strings.TrimSpace(trimmed[1:]))
	case strings.HasPrefix(trimmed, "/"):
		if prompt, ok := s.editor.Registry().Expand(trimmed); ok {
			s.ask(ctx, trimmed, prompt)
			return
		}
		s.command(ctx, trimmed)
	default:
		s.ask(ctx, text, text)
	}
}

func (s *Session) remember(ctx context.Context, text string) {
	entry := history.Entry{Text: text, CWD: s.cwd, CreatedAt: time.Now()}
	if err := s.store.Add(ctx, entry); err != nil {
		s.log.Warn("failed to save history entry", "error", err)
	}
}

// busy reports a running job with a warning block.
func (s *Session) busy() bool {
	if s.job == nil {
		return false
	}
	s.live.Emit(render.Warning("Still busy; press esc to stop first"))
	return true
}

// ask sends a prompt to the model, with pending attachments prepended.
// display is what the transcript shows for it.
func (s *Session) ask(ctx context.Context, display, prompt string) {
	if s.job != nil {
		s.busy()
		s.editor.SetText(display)
		return
	}
	content := input.Format(s.attachments, prompt)
	s.attachments = nil
	s.messages = append(s.messages, llm.UserText(content))
	s.compact()
	s.live.Emit(render.UserPrompt(display))

	req := llm.Request{
		System:   s.cfg.Chat.System,
		Messages: append([]llm.Message(nil), s.messages...),
	}
	s.stats.BeginTurn()
	s.startJob(ctx, true, func(ctx context.Context, j *job) error {
		return s.generate(ctx, j, req)
	}, s.finishAnswer)
}

// RedrawHistory repaints the transcript from the event log and redraws the
// prompt below it.
func (s *Session) RedrawHistory() {
	s.updateStatus()
	frame := s.prompt.Frame(s.editor, s.width())
	s.live.Redraw(s.out, len(frame.Lines))
	s.drawPrompt()
}

func (s *Session) updateStatus() {
	s.prompt.SetStatus(editor.StatusInfo{
		Provider:    s.provider.Name(),
		Model:       s.provider.Model(),
		CWD:         s.cwd,
		Thinking:    llm.ThinkingEnabled(s.provider),
		Attachments: len(s.attachments),
		Streaming:   s.job != nil && s.job.status,
	})
	s.editor.SetWidth(editor.InputWidth(s.width()))
}

func (s *Session) drawPrompt() {
	s.updateStatus()
	s.prompt.Draw(s.out, s.editor)
}
