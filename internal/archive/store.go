// Package archive keeps copies of generated reports, keyed by run id and
// path, on local disk or in an S3-compatible bucket.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store persists report files.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("archive: not found")

// Config selects a backend: S3 when Endpoint is set, Dir otherwise.
type Config struct {
	Dir string
	S3  S3Config
}

// Open returns the configured store, or nil when archiving is disabled.
func Open(cfg Config) (Store, error) {
	if strings.TrimSpace(cfg.S3.Endpoint) != "" {
		return NewS3Store(cfg.S3)
	}
	if strings.TrimSpace(cfg.Dir) != "" {
		return NewLocalStore(cfg.Dir)
	}
	return nil, nil
}

func checkKey(runID, path string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimSpace(path)
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	return runID, path, nil
}

func objectKey(runID, path string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(path), "/")
	return strings.TrimSpace(runID) + "/" + normalized
}
