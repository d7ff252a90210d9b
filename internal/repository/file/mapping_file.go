package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// maxRecordLength bounds a single record on disk. It is well above
// domain.MaxMappingLength so records accepted by the service always fit.
const maxRecordLength = 64 * 1024

// MappingFile is an append-only text log of merchant mappings, one record per line.
// A single lock serialises appends, so readers see a prefix of the log and never a torn record.
type MappingFile struct {
	path string
	mu   sync.RWMutex
}

// NewMappingFile opens the log at path, creating it and its directory when missing
func NewMappingFile(path string) (*MappingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mappings directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open mappings file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("Mappings file ready")
	return &MappingFile{path: path}, nil
}

// Append writes line at the end of the log and syncs it to disk
func (m *MappingFile) Append(ctx context.Context, line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return errors.New("mapping record must be a single line")
	}
	if len(line) >= maxRecordLength {
		return fmt.Errorf("mapping record is %d bytes, limit is %d", len(line), maxRecordLength-1)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open mappings file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append mapping: %w", err)
	}
	return f.Sync()
}

// ReadAll returns every non-blank record in insertion order. Records are read
// with no length limit, so an oversized line already on disk cannot hide the rest of the log.
func (m *MappingFile) ReadAll(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mappings file: %w", err)
	}
	defer f.Close()

	lines := make([]string, 0)
	reader := bufio.NewReader(f)
	for {
		raw, err := reader.ReadString('\n')
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read mappings file: %w", err)
		}
	}
	return lines, nil
}
