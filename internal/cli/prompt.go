package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks yes/no questions before marketplace writes.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewPrompter creates a prompter over reader and writer, defaulting to the
// process's stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{reader: NewNonBlockingReader(reader), writer: writer}
}

// Writer returns the prompter's output.
func (p *Prompter) Writer() io.Writer {
	return p.writer
}

// Confirm prints summary and asks the question. Only "y" or "yes" confirm;
// an empty answer or end of input declines.
func (p *Prompter) Confirm(ctx context.Context, summary, question string) (bool, error) {
	if summary != "" {
		if _, err := fmt.Fprintln(p.writer, summary); err != nil {
			return false, fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" [y/N]")); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
