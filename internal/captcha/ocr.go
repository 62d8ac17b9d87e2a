package captcha

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Recognizer transcribes a captcha image into text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, image []byte) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// DefaultRecognizeTimeout bounds a single OCR command run.
const DefaultRecognizeTimeout = 20 * time.Second

// CommandRecognizer runs an external OCR command.
// The image is written to the command's stdin and its trimmed stdout is the
// recognized text. Empty output is an empty code, which the portal rejects
// like any other wrong code.
type CommandRecognizer struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommandRecognizer creates a recognizer for command, a program followed
// by its arguments separated by spaces (for example "tesseract stdin stdout").
func NewCommandRecognizer(command string, timeout time.Duration) (*CommandRecognizer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty OCR command")
	}
	if timeout <= 0 {
		timeout = DefaultRecognizeTimeout
	}
	return &CommandRecognizer{name: fields[0], args: fields[1:], timeout: timeout}, nil
}

// Recognize runs the command on image.
func (r *CommandRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.name, r.args...) //nolint:gosec // command comes from the user's own config
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("OCR command %q: %w", r.name, ctx.Err())
		}
		return "", fmt.Errorf("OCR command %q failed: %w: %s", r.name, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
