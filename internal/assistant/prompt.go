package assistant

import (
	_ "embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

//go:embed prompt.txt
var defaultPrompt string

// PromptSource reads the system instruction from a file on every turn so edits
// apply without a restart. A missing or empty file falls back to the embedded text.
type PromptSource struct {
	path string
	log  *slog.Logger
}

func NewPromptSource(path string, log *slog.Logger) *PromptSource {
	if log == nil {
		log = slog.Default()
	}
	return &PromptSource{path: path, log: log}
}

func (p *PromptSource) Load() string {
	if p == nil || p.path == "" {
		return defaultPrompt
	}
	b, err := os.ReadFile(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.log.Warn("assistant.prompt_read", slog.String("path", p.path), slog.Any("error", err))
		}
		return defaultPrompt
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return defaultPrompt
}
