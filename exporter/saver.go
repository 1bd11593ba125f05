package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Saver hands an artifact to the host environment.
type Saver interface {
	Save(a *Artifact) (string, error)
}

// DirSaver writes artifacts into a local directory.
type DirSaver struct {
	Dir string
}

// NewDirSaver returns a DirSaver rooted at dir ("" means the working directory).
func NewDirSaver(dir string) *DirSaver {
	if dir == "" {
		dir = "."
	}
	return &DirSaver{Dir: dir}
}

// Save writes the artifact, replacing a same-day export, and returns its path.
func (s *DirSaver) Save(a *Artifact) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("exporter: create dir: %w", err)
	}
	path := filepath.Join(s.Dir, a.Filename)
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return "", fmt.Errorf("exporter: write %s: %w", path, err)
	}
	slog.Info("result exported", "path", path, "bytes", len(a.Body))
	return path, nil
}
