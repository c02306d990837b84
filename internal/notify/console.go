package notify

import (
	"context"
	"fmt"
	"io"
)

// ConsoleSender writes the digest to an output stream. It is the fallback
// channel used when no remote sink is configured, so a credential-less run
// still surfaces its report and is considered successful.
type ConsoleSender struct {
	out io.Writer
}

// NewConsoleSender creates a ConsoleSender writing to out (typically
// os.Stdout).
func NewConsoleSender(out io.Writer) *ConsoleSender {
	return &ConsoleSender{out: out}
}

// Send writes the text followed by a newline.
func (c *ConsoleSender) Send(_ context.Context, text string) error {
	if _, err := fmt.Fprintln(c.out, text); err != nil {
		return fmt.Errorf("console: write: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (c *ConsoleSender) Name() string {
	return "console"
}
