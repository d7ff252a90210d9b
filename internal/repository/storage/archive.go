package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds a unique archive key: statements/<user>/<yyyy-mm>/<uuid>-<name>
func ObjectKey(meta domain.StatementMetadata) string {
	return path.Join(
		"statements",
		sanitize(meta.User),
		fmt.Sprintf("%04d-%02d", meta.Year, meta.Month),
		uuid.New().String()+"-"+sanitize(meta.StatementName),
	)
}

func sanitize(name string) string {
	name = unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "unnamed"
	}
	return name
}

// DiskStatementArchive implements domain.StatementArchive on the local filesystem
type DiskStatementArchive struct {
	root string
}

// NewDiskStatementArchive creates an archive rooted at dir
func NewDiskStatementArchive(dir string) (*DiskStatementArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &DiskStatementArchive{root: dir}, nil
}

// Store writes the raw statement under the archive root and returns its key
func (a *DiskStatementArchive) Store(ctx context.Context, meta domain.StatementMetadata, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := ObjectKey(meta)
	target := filepath.Join(a.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create statement directory: %w", err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write statement: %w", err)
	}
	return key, nil
}
