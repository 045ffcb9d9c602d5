package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/render"
)

// job is background work started from the control loop: a model turn or
// a /run command. Only one runs at a time.
type job struct {
	// stopped is set by the control loop and polled by the job between
	// stream events.
	stopped atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	// status shows the streaming status line while the job runs.
	status bool
	finish func(*job)

	// Written by the job goroutine, read by finish after done.
	reply strings.Builder
	lines []string
	err   error
}

func (s *Session) startJob(ctx context.Context, status bool, run func(context.Context, *job) error, finish func(*job)) {
	ctx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel, done: make(chan struct{}), status: status, finish: finish}
	s.job = j
	if status {
		s.out.SetStreamingStatusActive(true)
		go s.animate(j)
	}
	go func() {
		defer cancel()
		j.err = run(ctx, j)
		close(j.done)
		s.jobDone <- j
	}()
}

// interrupt asks the running job to stop and reports whether there was one.
func (s *Session) interrupt() bool {
	if s.job == nil {
		return false
	}
	s.job.stopped.Store(true)
	s.job.cancel()
	return true
}

// waitJob stops the running job and waits for it to finish.
func (s *Session) waitJob() {
	if s.interrupt() {
		s.finishJob(<-s.jobDone)
	}
}

func (s *Session) finishJob(j *job) {
	if j != s.job {
		return
	}
	s.job = nil
	if j.status {
		s.out.SetStreamingStatusActive(false)
	}
	if j.finish != nil {
		j.finish(j)
	}
	s.drawPrompt()
}

// generate streams one model turn into the transcript.
func (s *Session) generate(ctx context.Context, j *job, req llm.Request) error {
	stream, err := s.provider.Stream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	var open render.Kind
	streaming := false
	defer func() {
		// A non-streaming event of the open kind ends the block.
		if streaming {
			s.live.Emit(render.Event{Kind: open})
		}
	}()

	for !j.stopped.Load() {
		ev, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch ev.Type {
		case llm.EventReasoningDelta:
			open, streaming = render.KindThinking, true
			s.live.Emit(render.Thinking(ev.Text, true))
		case llm.EventTextDelta:
			open, streaming = render.KindAssistantText, true
			j.reply.WriteString(ev.Text)
			s.live.Emit(render.AssistantText(ev.Text, true))
		case llm.EventToolExecStart:
			streaming = false
			s.stats.AddToolCall()
			s.live.Emit(render.ToolStart())
			s.live.Emit(render.ToolUse(ev.ToolInfo))
		case llm.EventToolExecEnd:
			s.live.Emit(render.ToolResult(!ev.ToolSuccess, ev.ToolOutput, ""))
			s.live.Emit(render.ToolEnd())
		case llm.EventRetry:
			streaming = false
			s.live.Emit(render.Warning(fmt.Sprintf("Provider busy, retrying in %.0fs (attempt %d of %d)",
				ev.RetryWaitSecs, ev.RetryAttempt+1, ev.RetryMaxAttempts)))
		case llm.EventUsage:
			if ev.Use != nil {
				s.stats.AddUsage(ev.Use.InputTokens, ev.Use.OutputTokens)
			}
		case llm.EventError:
			return ev.Err
		case llm.EventDone:
			return nil
		}
	}
	return nil
}

// finishAnswer records the reply and reports how the turn ended.
func (s *Session) finishAnswer(j *job) {
	if reply := j.reply.String(); reply != "" {
		s.messages = append(s.messages, llm.AssistantText(reply))
		s.lastAnswer = reply
	}
	switch {
	case j.stopped.Load():
		s.live.Emit(render.Info("Interrupted"))
	case j.err != nil:
		s.log.Error("generation failed", "provider", s.provider.Name(), "error", j.err)
		s.live.Emit(render.Error(j.err.Error()))
	}
}

// runCommand runs a shell command in the background, showing its latest
// output in the tool viewport, and records the output when it exits.
func (s *Session) runCommand(ctx context.Context, command string) {
	if command == "" {
		s.live.Emit(render.Error("Usage: /run <command>"))
		return
	}
	if s.busy() {
		return
	}
	s.live.Emit(render.ToolStart())
	s.live.Emit(render.ToolUse("Run " + command))
	height := s.cfg.Chat.ViewportLines
	if height <= 0 {
		height = defaultViewportLines
	}

	s.startJob(ctx, false, func(ctx context.Context, j *job) error {
		return s.capture(ctx, command, func(line string) {
			j.lines = append(j.lines, line)
			s.out.RenderToolViewport(j.lines, height)
		})
	}, s.finishCommand)
}

const defaultViewportLines = 8

func (s *Session) finishCommand(j *job) {
	s.out.ClearViewportLines()
	if len(j.lines) > 0 {
		s.live.Emit(render.ToolOutput(strings.Join(j.lines, "\n"), len(j.lines)))
	}
	switch {
	case j.stopped.Load():
		s.live.Emit(render.ToolResult(true, "", "interrupted"))
	case j.err != nil:
		s.live.Emit(render.ToolResult(true, j.err.Error(), "failed"))
	}
	s.live.Emit(render.ToolEnd())
}

// capture runs command with stdout and stderr merged, calling onLine for
// each line of output.
func (s *Session) capture(ctx context.Context, command string, onLine func(string)) error {
	cmd := s.shellCommand(ctx, command)
	cmd.Dir = s.cwd
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %q: %w", command, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(strings.TrimRight(scanner.Text(), "\r"))
	}
	err = cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("exit status %d", exitErr.ExitCode())
	}
	return err
}

// shellCommand builds "$SHELL -c command", or an interactive shell when
// command is empty.
func (s *Session) shellCommand(ctx context.Context, command string) *exec.Cmd {
	shell := s.cfg.Chat.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	if command == "" {
		return exec.CommandContext(ctx, shell)
	}
	return exec.CommandContext(ctx, shell, "-c", command)
}

// spinners maps config names to bubbles spinner frame sets.
var spinners = map[string]spinner.Spinner{
	"dot":       spinner.Dot,
	"line":      spinner.Line,
	"minidot":   spinner.MiniDot,
	"jump":      spinner.Jump,
	"pulse":     spinner.Pulse,
	"points":    spinner.Points,
	"globe":     spinner.Globe,
	"moon":      spinner.Moon,
	"monkey":    spinner.Monkey,
	"meter":     spinner.Meter,
	"hamburger": spinner.Hamburger,
	"ellipsis":  spinner.Ellipsis,
}

func spinnerFor(name string) spinner.Spinner {
	if sp, ok := spinners[name]; ok {
		return sp
	}
	return spinner.Dot
}

// animate redraws the status line until j finishes. It never waits for the
// output lock, so a busy terminal just skips frames.
func (s *Session) animate(j *job) {
	sp := spinnerFor(s.cfg.Chat.Spinner)
	interval := sp.FPS
	if fps := s.cfg.Chat.StatusFPS; fps > 0 {
		interval = time.Second / time.Duration(fps)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		s.out.TryUpdateStatus(s.statusLine(sp.Frames[frame%len(sp.Frames)]))
		select {
		case <-j.done:
			return
		case <-ticker.C:
		}
	}
}

func (s *Session) statusLine(frame string) string {
	return s.styles.Spinner.Render(frame) + " " +
		s.styles.Muted.Render(s.stats.StatusLine()+" · esc to stop")
}
