package theme

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoCompiler is returned for SCSS assets when no compiler is configured.
var ErrNoCompiler = errors.New("no stylesheet compiler configured")

// StylesheetCompiler turns SCSS source into CSS.
type StylesheetCompiler interface {
	Compile(ctx context.Context, source string) (string, error)
}

// SassCommand compiles SCSS with an external sass executable, feeding the
// source on stdin and reading CSS from stdout.
type SassCommand struct {
	Path string   // defaults to "sass"
	Args []string // defaults to --stdin
}

// Compile implements StylesheetCompiler.
func (s SassCommand) Compile(ctx context.Context, source string) (string, error) {
	bin := s.Path
	if bin == "" {
		bin = "sass"
	}
	args := s.Args
	if args == nil {
		args = []string{"--stdin"}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = strings.NewReader(source)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("sass: %w: %s", err, msg)
		}
		return "", fmt.Errorf("sass: %w", err)
	}
	return stdout.String(), nil
}
