// Package artifact stores annotated screenshots outside the process.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AnnotatedName is the object name of the annotated screenshot in a run.
const AnnotatedName = "annotated.png"

// Store persists one artifact and returns where it can be fetched from.
type Store interface {
	Put(ctx context.Context, runID, name string, content []byte) (string, error)
}

// NewRunID returns a fresh identifier for grouping a run's artifacts.
func NewRunID() string {
	return uuid.NewString()
}

func objectKey(runID, name string) (string, error) {
	runID = strings.TrimSpace(runID)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if strings.Contains(runID, "..") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid artifact path %q/%q", runID, name)
	}
	return runID + "/" + name, nil
}

// FileStore writes artifacts under a local directory.
type FileStore struct {
	Dir string
}

// Put implements Store. The returned location is the file path.
func (s *FileStore) Put(ctx context.Context, runID, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := objectKey(runID, name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}
