package access

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// DecisionProvider supplies the grant/deny choice for a previously unseen
// identity. Implementations may block (interactive prompt); the context lets
// a caller abandon a decision that never arrives.
type DecisionProvider interface {
	Decide(ctx context.Context) (bool, error)
}

// StaticDecision always answers with a fixed choice. Used for
// non-interactive enrollment and in tests.
type StaticDecision bool

// Decide implements DecisionProvider.
func (d StaticDecision) Decide(ctx context.Context) (bool, error) {
	return bool(d), nil
}

// TerminalPrompter asks for a yes/no decision on a terminal. Anything not
// unambiguously affirmative is treated as denial.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Decide prompts and reads one line. The read itself cannot be interrupted,
// but a cancelled context wins over an answer that arrives afterwards.
func (p *TerminalPrompter) Decide(ctx context.Context) (bool, error) {
	fmt.Fprint(p.Out, "New person detected. Grant access? (y/n): ")

	type answer struct {
		allowed bool
		err     error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && line == "" {
			ch <- answer{err: fmt.Errorf("reading decision: %w", err)}
			return
		}
		ch <- answer{allowed: isAffirmative(line)}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		return a.allowed, a.err
	}
}

// isAffirmative reports whether the input unambiguously grants access.
func isAffirmative(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
