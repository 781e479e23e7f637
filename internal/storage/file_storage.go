package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"chacara-backend/internal/logger"
)

var slotNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// FileStorage keeps one JSON file per slot inside a directory
type FileStorage struct {
	dir string
}

// NewFileStorage creates the directory if it does not exist.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(slot string) (string, error) {
	if !slotNamePattern.MatchString(slot) {
		return "", fmt.Errorf("invalid slot name: %q", slot)
	}
	return filepath.Join(f.dir, slot+".json"), nil
}

func (f *FileStorage) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	logger.StorageCall(f.Backend(), "load", slot)
	p, err := f.path(slot)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			logger.StorageResult(f.Backend(), "load", 0, nil)
			return nil, false, nil
		}
		logger.StorageResult(f.Backend(), "load", 0, err)
		return nil, false, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	logger.StorageResult(f.Backend(), "load", len(data), nil)
	return data, true, nil
}

func (f *FileStorage) Save(ctx context.Context, slot string, data []byte) error {
	return f.SaveMany(ctx, map[string][]byte{slot: data})
}

// SaveMany stages every slot in a temp file before renaming any of them, so a
// failed write leaves all slots at their previous content. The renames
// themselves are not atomic as a group.
func (f *FileStorage) SaveMany(ctx context.Context, writes map[string][]byte) error {
	slots := make([]string, 0, len(writes))
	for slot := range writes {
		slots = append(slots, slot)
	}
	logger.StorageCall(f.Backend(), "save", slots...)

	staged := make(map[string]string, len(writes))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	total := 0
	for slot, data := range writes {
		final, err := f.path(slot)
		if err != nil {
			cleanup()
			return err
		}
		tmp, err := os.CreateTemp(f.dir, slot+".*.tmp")
		if err != nil {
			cleanup()
			logger.StorageResult(f.Backend(), "save", total, err)
			return fmt.Errorf("failed to create temp file: %w", err)
		}
		staged[final] = tmp.Name()
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			cleanup()
			logger.StorageResult(f.Backend(), "save", total, err)
			return fmt.Errorf("failed to write slot %s: %w", slot, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("failed to close slot %s: %w", slot, err)
		}
		total += len(data)
	}

	for final, tmp := range staged {
		if err := os.Rename(tmp, final); err != nil {
			cleanup()
			logger.StorageResult(f.Backend(), "save", total, err)
			return fmt.Errorf("failed to commit slot file: %w", err)
		}
		delete(staged, final)
	}

	logger.StorageResult(f.Backend(), "save", total, nil)
	return nil
}

func (f *FileStorage) Delete(ctx context.Context, slot string) error {
	p, err := f.path(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	return nil
}

func (f *FileStorage) Backend() string {
	return "file"
}

// Dir returns the directory slots are written to
func (f *FileStorage) Dir() string {
	return f.dir
}
