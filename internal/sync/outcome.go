package sync

import "fmt"

// Outcome is the ordered, human-readable log of every decision one
// sync run made. It is rebuilt on every run and never persisted; the
// runner is its only consumer.
type Outcome struct {
	lines []string
}

func NewOutcome() *Outcome {
	return &Outcome{lines: make([]string, 0, 32)}
}

// Logf appends one formatted action line.
func (o *Outcome) Logf(format string, args ...any) {
	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}

// Lines returns the accumulated action lines in order.
func (o *Outcome) Lines() []string {
	out := make([]string, len(o.lines))
	copy(out, o.lines)
	return out
}
