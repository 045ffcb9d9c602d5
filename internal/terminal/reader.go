package terminal

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/cancelreader"
)

// Reader decodes terminal input on a background goroutine. It can be
// stopped so a child process gets exclusive use of stdin.
type Reader struct {
	cr     cancelreader.CancelReader
	events chan Event
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
}

// NewReader starts reading from in. Replay events are delivered before
// anything read from in.
func NewReader(in io.Reader, logger *slog.Logger, replay ...Event) (*Reader, error) {
	cr, err := cancelreader.NewReader(in)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Reader{
		cr:     cr,
		events: make(chan Event, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		log:    logger,
	}
	go r.loop(replay)
	return r, nil
}

// Events returns the decoded event stream. It is closed when the reader stops.
func (r *Reader) Events() <-chan Event {
	return r.events
}

// Stop cancels the pending read and waits for the goroutine to exit.
func (r *Reader) Stop() {
	r.once.Do(func() {
		close(r.stop)
		r.cr.Cancel()
		<-r.done
		_ = r.cr.Close()
	})
}

func (r *Reader) loop(replay []Event) {
	defer close(r.done)
	defer close(r.events)

	for _, ev := range replay {
		select {
		case r.events <- ev:
		case <-r.stop:
			return
		}
	}

	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, err := r.cr.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				select {
				case r.events <- ev:
				case <-r.stop:
					return
				}
			}
		}
		if err != nil {
			if !errors.Is(err, cancelreader.ErrCanceled) && !errors.Is(err, io.EOF) {
				r.log.Debug("terminal read failed", "error", err)
			}
			return
		}
	}
}

// ErrNoCursorReport is returned when the terminal does not answer a cursor
// position request in time.
var ErrNoCursorReport = errors.New("terminal did not report cursor position")

// QueryCursor asks the terminal for the cursor position. Raw mode must be on.
// Input read along with the report, before or after it, is returned so the
// caller can replay it.
func QueryCursor(in io.Reader, out io.Writer, timeout time.Duration) (row, col int, pending []Event, err error) {
	cr, err := cancelreader.NewReader(in)
	if err != nil {
		return 0, 0, nil, err
	}
	defer cr.Close()

	if _, err := io.WriteString(out, ansi.RequestCursorPositionReport); err != nil {
		return 0, 0, nil, err
	}

	timer := time.AfterFunc(timeout, func() { cr.Cancel() })
	defer timer.Stop()

	var (
		dec   Decoder
		found bool
	)
	buf := make([]byte, 256)
	for {
		n, rerr := cr.Read(buf)
		for _, ev := range dec.Feed(buf[:n]) {
			if !found && ev.Kind == EventCursorPosition {
				row, col, found = ev.Row, ev.Col, true
				continue
			}
			pending = append(pending, ev)
		}
		if found {
			return row, col, pending, nil
		}
		if rerr != nil {
			if errors.Is(rerr, cancelreader.ErrCanceled) {
				return 0, 0, pending, ErrNoCursorReport
			}
			return 0, 0, pending, rerr
		}
	}
}
