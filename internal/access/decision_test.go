package access

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTerminalPrompter_Answers(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"yess\n", false},
	}

	for _, tc := range tests {
		t.Run(strings.TrimSpace(tc.input), func(t *testing.T) {
			var out bytes.Buffer
			p := &TerminalPrompter{In: strings.NewReader(tc.input), Out: &out}

			got, err := p.Decide(context.Background())
			if err != nil {
				t.Fatalf("decide: %v", err)
			}
			if got != tc.want {
				t.Errorf("Decide(%q) = %v, want %v", tc.input, got, tc.want)
			}
			if !strings.Contains(out.String(), "Grant access?") {
				t.Error("expected a prompt to be written")
			}
		})
	}
}

func TestTerminalPrompter_LastLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	p := &TerminalPrompter{In: strings.NewReader("y"), Out: &out}

	got, err := p.Decide(context.Background())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !got {
		t.Error("expected affirmative answer without trailing newline to grant")
	}
}

func TestTerminalPrompter_ContextCancelled(t *testing.T) {
	// A reader that never produces input: the prompter must honor
	// cancellation instead of blocking forever.
	blocked := make(chan struct{})
	t.Cleanup(func() { close(blocked) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	p := &TerminalPrompter{In: blockingReader{ch: blocked}, Out: &out}

	_, err := p.Decide(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline error, got %v", err)
	}
}

type blockingReader struct {
	ch chan struct{}
}

func (r blockingReader) Read(p []byte) (int, error) {
	<-r.ch
	return 0, errors.New("closed")
}

func TestStaticDecision(t *testing.T) {
	if got, _ := StaticDecision(true).Decide(context.Background()); !got {
		t.Error("StaticDecision(true) must grant")
	}
	if got, _ := StaticDecision(false).Decide(context.Background()); got {
		t.Error("StaticDecision(false) must deny")
	}
}
