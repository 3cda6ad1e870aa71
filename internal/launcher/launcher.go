// Package launcher hands reference paths to the desktop: file browser,
// terminal, editor and clipboard.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/starford/anchor/internal/apperr"
)

// Target is where a path is opened.
type Target string

const (
	TargetFinder   Target = "finder"
	TargetReveal   Target = "reveal"
	TargetTerminal Target = "terminal"
	TargetEditor   Target = "editor"
)

// Targets lists every supported Target.
var Targets = []Target{TargetFinder, TargetReveal, TargetTerminal, TargetEditor}

// Config selects the external programs.
type Config struct {
	// Editor is the editor command line; the path is appended.
	Editor string
	// Terminal is the terminal application. Empty uses the OS default.
	Terminal string
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithGOOS overrides the operating system used to pick commands.
func WithGOOS(goos string) Option {
	return func(l *Launcher) { l.goos = goos }
}

// WithStarter overrides how commands are started.
func WithStarter(start func(*exec.Cmd) error) Option {
	return func(l *Launcher) { l.start = start }
}

// WithClipboard overrides the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(l *Launcher) { l.copy = write }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

// Launcher starts external programs for a path without waiting for them.
type Launcher struct {
	cfg    Config
	goos   string
	start  func(*exec.Cmd) error
	copy   func(string) error
	logger *slog.Logger
}

// New creates a Launcher.
func New(cfg Config, opts ...Option) *Launcher {
	l := &Launcher{
		cfg:    cfg,
		goos:   runtime.GOOS,
		start:  startDetached,
		copy:   writeClipboard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &apperr.ValidationError{Field: "target", Message: fmt.Sprintf("unknown target %q", s)}
}

// Open opens path with target. The path must exist.
func (l *Launcher) Open(target Target, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("path %q: %w", path, apperr.ErrNotFound)
		}
		return &apperr.IOError{Op: "stat", Path: path, Err: err}
	}

	cmd, err := l.Command(target, path, info.IsDir())
	if err != nil {
		return err
	}
	if err := l.start(cmd); err != nil {
		return &apperr.IOError{Op: "launch " + string(target), Path: path, Err: err}
	}
	l.logger.Debug("launched", slog.String("target", string(target)), slog.String("path", path))
	return nil
}

// Command builds the command that opens path with target. isDir tells
// whether path is a directory.
func (l *Launcher) Command(target Target, path string, isDir bool) (*exec.Cmd, error) {
	dir := path
	if !isDir {
		dir = filepath.Dir(path)
	}

	switch target {
	case TargetFinder:
		switch l.goos {
		case "darwin":
			return exec.Command("open", path), nil
		case "windows":
			return exec.Command("explorer", path), nil
		default:
			return exec.Command("xdg-open", path), nil
		}

	case TargetReveal:
		switch l.goos {
		case "darwin":
			return exec.Command("open", "-R", path), nil
		case "windows":
			return exec.Command("explorer", "/select,"+path), nil
		default:
			// No portable "select in file manager"; open the containing folder.
			return exec.Command("xdg-open", filepath.Dir(path)), nil
		}

	case TargetTerminal:
		term := strings.TrimSpace(l.cfg.Terminal)
		var cmd *exec.Cmd
		switch l.goos {
		case "darwin":
			if term == "" {
				term = "Terminal"
			}
			cmd = exec.Command("open", "-a", term, dir)
		case "windows":
			if term == "" {
				term = "cmd"
			}
			cmd = exec.Command("cmd", "/c", "start", "", term)
		default:
			if term == "" {
				term = "x-terminal-emulator"
			}
			parts := strings.Fields(term)
			cmd = exec.Command(parts[0], parts[1:]...)
		}
		cmd.Dir = dir
		return cmd, nil

	case TargetEditor:
		editor := strings.TrimSpace(l.cfg.Editor)
		if editor == "" {
			editor = EditorCommand()
		}
		parts := strings.Fields(editor)
		args := append(parts[1:], path)
		return exec.Command(parts[0], args...), nil
	}

	return nil, &apperr.ValidationError{Field: "target", Message: fmt.Sprintf("unknown target %q", target)}
}

// CopyPath puts path on the system clipboard.
func (l *Launcher) CopyPath(path string) error {
	if err := l.copy(path); err != nil {
		return &apperr.IOError{Op: "copy to clipboard", Path: path, Err: err}
	}
	return nil
}

// PathExists reports whether path exists on disk.
func PathExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// EditorCommand returns $EDITOR, or "code" when unset.
func EditorCommand() string {
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "code"
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child; its exit status is not reported.
	go cmd.Wait() //nolint:errcheck
	return nil
}

func writeClipboard(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard unsupported on this system")
	}
	return clipboard.WriteAll(text)
}
