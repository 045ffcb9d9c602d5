package chat

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/history"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/render"
	"github.com/samsaffron/term-chat/internal/terminal"
	"github.com/samsaffron/term-chat/internal/testutil"
	"github.com/samsaffron/term-chat/internal/ui"
)

// fakeHost feeds scripted input and records hand-offs.
type fakeHost struct {
	events   chan terminal.Event
	screen   *testutil.Screen
	releases int
}

func (h *fakeHost) Events() <-chan terminal.Event { return h.events }

func (h *fakeHost) Release() func() (int, int) {
	h.releases++
	return func() (int, int) { return h.screen.Cursor() }
}

type testSession struct {
	*Session
	t      *testing.T
	ctx    context.Context
	screen *testutil.Screen
	host   *fakeHost
	stdout *bytes.Buffer
}

func newTestSession(t *testing.T, p llm.Provider, configure ...func(*config.Config)) *testSession {
	t.Helper()
	cfg := &config.Config{}
	cfg.Chat.Shell = "/bin/sh"
	cfg.Chat.ViewportLines = 4
	cfg.Chat.StatusFPS = 50
	for _, fn := range configure {
		fn(cfg)
	}
	t.Cleanup(func() { ui.SetSpacingSuppressed(false) })

	screen := testutil.NewScreen(60, 24)
	host := &fakeHost{events: make(chan terminal.Event, 16), screen: screen}
	stdout := &bytes.Buffer{}
	s := New(Options{
		Config:   cfg,
		Provider: p,
		Term:     screen,
		Host:     host,
		Styles:   ui.NewStyles(io.Discard),
		CWD:      t.TempDir(),
		Stdin:    strings.NewReader(""),
		Stdout:   stdout,
		Stderr:   stdout,
	})
	s.drawPrompt()
	return &testSession{Session: s, t: t, ctx: context.Background(), screen: screen, host: host, stdout: stdout}
}

func (ts *testSession) enter(text string) {
	ts.submit(ts.ctx, text)
	ts.drawPrompt()
}

// wait finishes the running job the way the control loop does.
func (ts *testSession) wait() {
	ts.t.Helper()
	select {
	case j := <-ts.jobDone:
		ts.finishJob(j)
	case <-time.After(5 * time.Second):
		ts.t.Fatal("job did not finish")
	}
}

func (ts *testSession) waitFor(what string, cond func() bool) {
	ts.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			ts.t.Fatalf("timed out waiting for %s\n%s", what, ts.screen)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (ts *testSession) screenHas(text string) bool {
	return strings.Contains(strings.Join(ts.screen.Lines(), "\n"), text)
}

// lastEvent returns the newest event of kind.
func (ts *testSession) lastEvent(kind render.Kind) (render.Event, bool) {
	events := ts.Log().Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == kind {
			return events[i], true
		}
	}
	return render.Event{}, false
}

func TestAskStreamsAnswer(t *testing.T) {
	p := llm.NewMockProvider("mock").AddEvents(
		llm.Event{Type: llm.EventReasoningDelta, Text: "weighing it"},
		llm.Event{Type: llm.EventTextDelta, Text: "Hello "},
		llm.Event{Type: llm.EventTextDelta, Text: "there"},
		llm.Event{Type: llm.EventUsage, Use: &llm.Usage{InputTokens: 3, OutputTokens: 2}},
		llm.Event{Type: llm.EventDone},
	)
	ts := newTestSession(t, p)

	ts.enter("hi")
	if ts.job == nil || !ts.Coordinator().Prompt().StatusLineActive {
		t.Fatal("expected a running job with the status line reserved")
	}
	ts.wait()

	for _, want := range []string{ui.PromptGlyph + " hi", "weighing it", "Hello there"} {
		if !ts.screenHas(want) {
			t.Errorf("screen missing %q:\n%s", want, ts.screen)
		}
	}
	if len(ts.messages) != 2 || ts.messages[1].Text != "Hello there" || ts.lastAnswer != "Hello there" {
		t.Errorf("messages = %+v", ts.messages)
	}
	if ts.Stats().OutputTokens != 2 {
		t.Errorf("output tokens = %d", ts.Stats().OutputTokens)
	}
	if ts.Coordinator().Prompt().StatusLineActive {
		t.Error("status line still reserved after the answer")
	}
	entries, _ := ts.store.List(ts.ctx, 0)
	if len(entries) != 1 || entries[0].Text != "hi" {
		t.Errorf("history = %+v", entries)
	}
}

func TestInterruptStopsGeneration(t *testing.T) {
	p := llm.NewMockProvider("mock").AddBlockingTurn(llm.Event{Type: llm.EventTextDelta, Text: "partial"})
	ts := newTestSession(t, p)

	ts.enter("go on")
	ts.waitFor("the first delta", func() bool {
		_, ok := ts.lastEvent(render.KindAssistantText)
		return ok
	})
	ts.handleKey(ts.ctx, terminal.Key{Type: terminal.KeyEscape})
	ts.wait()

	if e, ok := ts.lastEvent(render.KindInfo); !ok || e.Text != "Interrupted" {
		t.Errorf("last info = %+v", e)
	}
	if last := ts.messages[len(ts.messages)-1]; last.Role != llm.RoleAssistant || last.Text != "partial" {
		t.Errorf("last message = %+v", last)
	}
}

func TestAskWhileBusyKeepsEntry(t *testing.T) {
	p := llm.NewMockProvider("mock").AddBlockingTurn()
	ts := newTestSession(t, p)

	ts.enter("one")
	ts.enter("two")
	if _, ok := ts.lastEvent(render.KindWarning); !ok {
		t.Error("expected a busy warning")
	}
	if ts.editor.Text() != "two" {
		t.Errorf("editor text = %q, want the entry restored", ts.editor.Text())
	}
	ts.waitJob()
	if p.RequestCount() != 1 {
		t.Errorf("requests = %d", p.RequestCount())
	}
}

func TestAttachPrependsFiles(t *testing.T) {
	p := llm.NewMockProvider("mock").AddTextResponse("ok")
	ts := newTestSession(t, p)
	if err := os.WriteFile(filepath.Join(ts.cwd, "notes.txt"), []byte("remember the milk\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts.enter("/attach notes.txt")
	if len(ts.attachments) != 1 || ts.prompt.Status().Attachments != 1 {
		t.Fatalf("attachments = %+v", ts.attachments)
	}
	ts.enter("summarize")
	ts.wait()

	sent := p.Requests[0].Messages[0].Text
	if !strings.HasPrefix(sent, "<<<<< FILE: notes.txt >>>>>\nremember the milk\n") || !strings.HasSuffix(sent, "\nsummarize") {
		t.Errorf("sent = %q", sent)
	}
	if e, _ := ts.lastEvent(render.KindUserPrompt); e.Text != "summarize" {
		t.Errorf("user prompt shows %q", e.Text)
	}
	if len(ts.attachments) != 0 {
		t.Error("attachments not consumed")
	}
	read, ok := ts.lastEvent(render.KindFileReadOutput)
	if !ok || read.Path != "notes.txt" || read.TotalLines != 1 {
		t.Errorf("file read block = %+v", read)
	}
}

func TestAttachErrors(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))
	ts.enter("/attach missing.txt")
	if _, ok := ts.lastEvent(render.KindError); !ok {
		t.Error("expected an error block")
	}
	ts.enter("/detach")
	if e, _ := ts.lastEvent(render.KindInfo); e.Text != "Dropped 0 attachment(s)" {
		t.Errorf("info = %q", e.Text)
	}
}

func TestCustomCommandExpands(t *testing.T) {
	p := llm.NewMockProvider("mock").AddTextResponse("looks fine")
	ts := newTestSession(t, p, func(cfg *config.Config) {
		cfg.Chat.Commands = map[string]string{"review": "Review {{args}} carefully"}
	})

	ts.enter("/review main.go")
	ts.wait()

	if got := p.Requests[0].Messages[0].Text; got != "Review main.go carefully" {
		t.Errorf("sent %q", got)
	}
	if e, _ := ts.lastEvent(render.KindUserPrompt); e.Text != "/review main.go" {
		t.Errorf("user prompt shows %q", e.Text)
	}
}

func TestUnknownCommand(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))
	ts.enter("/bogus")
	if e, ok := ts.lastEvent(render.KindError); !ok || !strings.Contains(e.Text, "Unknown command /bogus") {
		t.Errorf("error = %+v", e)
	}
}

func TestRunCommandRecordsOutput(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))

	ts.enter(`/run printf 'one\ntwo\n'`)
	ts.wait()

	if e, ok := ts.lastEvent(render.KindToolUse); !ok || !strings.HasPrefix(e.Text, "Run printf") {
		t.Errorf("banner = %+v", e)
	}
	if e, ok := ts.lastEvent(render.KindToolOutput); !ok || e.Text != "one\ntwo" || e.TotalLines != 2 {
		t.Errorf("output = %+v", e)
	}
	if ts.Coordinator().ViewportRows() != 0 {
		t.Error("viewport not released")
	}
	if !ts.screenHas("two") {
		t.Errorf("output not in transcript:\n%s", ts.screen)
	}
}

func TestRunCommandFailure(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))
	ts.enter("/run exit 3")
	ts.wait()
	e, ok := ts.lastEvent(render.KindToolResult)
	if !ok || !e.IsError || e.Text != "exit status 3" {
		t.Errorf("result = %+v", e)
	}
}

func TestShellHandOff(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))
	ts.enter("!echo hello")

	if ts.stdout.String() != "hello\n" {
		t.Errorf("child output = %q", ts.stdout.String())
	}
	if ts.host.releases != 1 {
		t.Errorf("releases = %d", ts.host.releases)
	}
	if ts.Coordinator().Suspended() {
		t.Error("coordinator still suspended")
	}
	if !ts.Coordinator().Prompt().Visible {
		t.Error("prompt not redrawn")
	}
}

func TestClearResetsSession(t *testing.T) {
	p := llm.NewMockProvider("mock").AddTextResponse("Hello there")
	ts := newTestSession(t, p)
	ts.enter("hi")
	ts.wait()

	ts.enter("/clear")
	if ts.Log().Len() != 0 || len(ts.messages) != 0 || ts.Stats().TurnCount != 0 {
		t.Errorf("log=%d messages=%d turns=%d", ts.Log().Len(), len(ts.messages), ts.Stats().TurnCount)
	}
	if ts.screenHas("Hello there") {
		t.Errorf("transcript survived /clear:\n%s", ts.screen)
	}
	if ts.Coordinator().Prompt().StartRow != 0 {
		t.Errorf("prompt row = %d, want 0", ts.Coordinator().Prompt().StartRow)
	}
}

func TestModelSwitch(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))

	ts.enter("/model echo")
	if ts.provider.Name() != "echo" {
		t.Fatalf("provider = %s", ts.provider.Name())
	}
	ts.enter("/model")
	if e, _ := ts.lastEvent(render.KindInfo); !strings.HasPrefix(e.Text, "Using echo:echo") {
		t.Errorf("info = %q", e.Text)
	}
	ts.enter("/model bogus:x")
	if _, ok := ts.lastEvent(render.KindError); !ok {
		t.Error("expected an error for an unknown provider")
	}
}

func TestSpacingToggle(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))
	ts.enter("/spacing")
	if !ui.SpacingSuppressed() {
		t.Error("spacing not suppressed")
	}
	ts.enter("/spacing")
	if ui.SpacingSuppressed() {
		t.Error("spacing still suppressed")
	}
}

func TestCopyWithoutAnswer(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))
	ts.enter("/copy")
	if e, _ := ts.lastEvent(render.KindInfo); e.Text != "Nothing to copy yet" {
		t.Errorf("info = %q", e.Text)
	}
}

func TestHistoryLoadedFromStore(t *testing.T) {
	store := history.NewMemoryStore(0)
	if err := store.Add(context.Background(), history.Entry{Text: "earlier"}); err != nil {
		t.Fatal(err)
	}
	s := New(Options{
		Config:   &config.Config{},
		Provider: llm.NewMockProvider("mock"),
		Term:     testutil.NewScreen(40, 10),
		Host:     &fakeHost{events: make(chan terminal.Event)},
		Store:    store,
		Styles:   ui.NewStyles(io.Discard),
		CWD:      t.TempDir(),
	})
	if got := s.editor.History().Entries(); len(got) != 1 || got[0] != "earlier" {
		t.Errorf("entries = %q", got)
	}
}

func TestKeysDriveSession(t *testing.T) {
	p := llm.NewMockProvider("mock").AddTextResponse("pong")
	ts := newTestSession(t, p)

	for _, r := range "ping" {
		ts.handleEvent(ts.ctx, terminal.Event{Kind: terminal.EventKey, Key: terminal.Key{Type: terminal.KeyRune, Rune: r}})
	}
	if !ts.screenHas(ui.PromptGlyph + " ping") {
		t.Errorf("typed text not drawn:\n%s", ts.screen)
	}
	ts.handleEvent(ts.ctx, terminal.Event{Kind: terminal.EventKey, Key: terminal.Key{Type: terminal.KeyEnter}})
	ts.wait()
	if p.RequestCount() != 1 || !ts.screenHas("pong") {
		t.Errorf("requests = %d\n%s", p.RequestCount(), ts.screen)
	}

	ts.handleEvent(ts.ctx, terminal.Event{Kind: terminal.EventPaste, Text: "a\nb"})
	if ts.editor.Text() != "a\nb" {
		t.Errorf("paste = %q", ts.editor.Text())
	}
	ts.handleEvent(ts.ctx, terminal.Event{Kind: terminal.EventKey, Key: terminal.Key{Type: terminal.KeyRune, Rune: 'c', Ctrl: true}})
	if ts.editor.Text() != "" || ts.quit {
		t.Error("ctrl+c should clear a non-empty buffer first")
	}
	ts.handleEvent(ts.ctx, terminal.Event{Kind: terminal.EventKey, Key: terminal.Key{Type: terminal.KeyRune, Rune: 'd', Ctrl: true}})
	if !ts.quit {
		t.Error("ctrl+d on an empty buffer should quit")
	}
}

func TestRunReturnsWhenInputCloses(t *testing.T) {
	ts := newTestSession(t, llm.NewMockProvider("mock"))
	close(ts.host.events)

	done := make(chan error, 1)
	go func() { done <- ts.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	if ts.Coordinator().Prompt().Visible {
		t.Error("prompt left on screen")
	}
}

func TestResizeRepaintsTranscript(t *testing.T) {
	p := llm.NewMockProvider("mock").AddTextResponse("Hello there")
	ts := newTestSession(t, p)
	ts.enter("hi")
	ts.wait()

	ts.screen.Resize(40, 24)
	ts.RedrawHistory()
	if !ts.screenHas(ui.PromptGlyph+" hi") || !ts.screenHas("Hello there") {
		t.Errorf("transcript lost on resize:\n%s", ts.screen)
	}
}

// writeEditor installs a fake $EDITOR script that runs body with the file
// as $1.
func writeEditor(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-editor")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEditShowsDiff(t *testing.T) {
	editor := writeEditor(t, `echo added >> "$1"`)
	ts := newTestSession(t, llm.NewMockProvider("mock"), func(cfg *config.Config) {
		cfg.Chat.Editor = editor
	})
	if err := os.WriteFile(filepath.Join(ts.cwd, "notes.txt"), []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts.enter("/edit notes.txt")

	diff, ok := ts.lastEvent(render.KindFileDiff)
	if !ok {
		t.Fatalf("no diff block; events = %+v", ts.Log().Events())
	}
	if !strings.Contains(diff.Text, "+added") || !strings.Contains(diff.Summary, "1 addition") {
		t.Errorf("diff = %q, summary = %q", diff.Text, diff.Summary)
	}
	if ts.host.releases != 1 || ts.Coordinator().Suspended() {
		t.Errorf("releases = %d, suspended = %v", ts.host.releases, ts.Coordinator().Suspended())
	}
	if !ts.screenHas("Edit notes.txt") {
		t.Errorf("screen missing edit banner:\n%s", ts.screen)
	}
}

func TestEditWithoutChanges(t *testing.T) {
	editor := writeEditor(t, "exit 0")
	ts := newTestSession(t, llm.NewMockProvider("mock"), func(cfg *config.Config) {
		cfg.Chat.Editor = editor
	})
	if err := os.WriteFile(filepath.Join(ts.cwd, "notes.txt"), []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts.enter("/edit notes.txt")

	if _, ok := ts.lastEvent(render.KindFileDiff); ok {
		t.Error("unexpected diff block")
	}
	if e, _ := ts.lastEvent(render.KindToolResult); e.Summary != "No changes to notes.txt" {
		t.Errorf("result = %+v", e)
	}
}

func TestEditorFailureIsReported(t *testing.T) {
	editor := writeEditor(t, "exit 4")
	ts := newTestSession(t, llm.NewMockProvider("mock"), func(cfg *config.Config) {
		cfg.Chat.Editor = editor
	})

	ts.enter("/edit new.txt")

	e, ok := ts.lastEvent(render.KindToolResult)
	if !ok || !e.IsError || !strings.Contains(e.Text, "exit status 4") {
		t.Errorf("result = %+v", e)
	}
}

func TestTrimMessages(t *testing.T) {
	msgs := []llm.Message{
		llm.UserText("aaaa"),
		llm.AssistantText("bbbb"),
		llm.UserText("cccc"),
		llm.AssistantText("dddd"),
		llm.UserText("ee"),
	}
	tests := []struct {
		name      string
		budget    int
		dropped   int
		firstText string
	}{
		{name: "fits", budget: 100, dropped: 0, firstText: "aaaa"},
		{name: "drops whole turns", budget: 10, dropped: 2, firstText: "cccc"},
		{name: "starts on a user message", budget: 7, dropped: 4, firstText: "ee"},
		{name: "keeps the newest message", budget: 1, dropped: 4, firstText: "ee"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kept, dropped := trimMessages(msgs, tc.budget)
			if dropped != tc.dropped || kept[0].Text != tc.firstText {
				t.Errorf("dropped %d, first %q; want %d, %q", dropped, kept[0].Text, tc.dropped, tc.firstText)
			}
			if kept[0].Role != llm.RoleUser {
				t.Errorf("kept history starts with %s", kept[0].Role)
			}
		})
	}
}

func TestLongConversationIsCompacted(t *testing.T) {
	p := llm.NewMockProvider("mock").
		AddTextResponse(strings.Repeat("a", 40)).
		AddTextResponse("short")
	ts := newTestSession(t, p, func(cfg *config.Config) {
		cfg.Chat.ContextChars = 30
	})

	ts.enter("first question")
	ts.wait()
	ts.enter("second")
	ts.wait()

	if _, ok := ts.lastEvent(render.KindAutoCompact); !ok {
		t.Fatal("no compaction notice")
	}
	sent := p.Requests[1].Messages
	if len(sent) != 1 || sent[0].Text != "second" {
		t.Errorf("second request sent %+v", sent)
	}
}

func TestPickerFailureIsReported(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"dismissed", "cat >/dev/null\nexit 130", false},
		{"no match", "cat >/dev/null\nexit 1", false},
		{"broken", "cat >/dev/null\nexit 2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			picker := writeEditor(t, tt.body)
			ts := newTestSession(t, llm.NewMockProvider("mock"), func(cfg *config.Config) {
				cfg.History.Picker = picker
			})
			ts.editor.History().Add("earlier")

			ts.openPicker(ts.ctx)

			e, ok := ts.lastEvent(render.KindError)
			if ok != tt.wantErr {
				t.Fatalf("error block = %v, want %v (%+v)", ok, tt.wantErr, e)
			}
			if ok && !strings.Contains(e.Text, "History picker failed") {
				t.Errorf("error = %q", e.Text)
			}
			if ts.editor.Text() != "" {
				t.Errorf("buffer = %q", ts.editor.Text())
			}
		})
	}
}
