package clipboard

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cmds    []Command
		stdin   string
		want    string
		wantErr error
	}{
		{
			name: "first installed command wins",
			cmds: []Command{{Name: "term-chat-no-such-tool"}, {Name: "echo", Args: []string{"-n", "hi"}}},
			want: "hi",
		},
		{
			name:  "stdin is passed through",
			cmds:  []Command{{Name: "cat"}},
			stdin: "copied text",
			want:  "copied text",
		},
		{
			name: "failing command falls through",
			cmds: []Command{{Name: "false"}, {Name: "echo", Args: []string{"-n", "next"}}},
			want: "next",
		},
		{
			name:    "nothing installed",
			cmds:    []Command{{Name: "term-chat-no-such-tool"}},
			wantErr: ErrUnavailable,
		},
		{
			name:    "unsupported platform",
			wantErr: ErrUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := run(context.Background(), tc.cmds, tc.stdin)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("run() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("run() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunReportsFailure(t *testing.T) {
	t.Parallel()
	_, err := run(context.Background(), []Command{{Name: "false"}}, "")
	if err == nil || errors.Is(err, ErrUnavailable) || !strings.Contains(err.Error(), "false") {
		t.Fatalf("run() error = %v", err)
	}
}
