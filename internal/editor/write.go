package editor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteOptions control how a document reaches disk.
type WriteOptions struct {
	// Backup copies the current file to a sibling ".bak" before writing.
	Backup bool
	// Atomic writes to a temp file in the same directory and renames it
	// over the target. The default is a plain overwrite.
	Atomic bool
}

// BackupPath returns the sibling backup name, e.g. game.sii -> game.bak.
func BackupPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".bak"
}

// WriteDocument replaces the file at path with content. Documents are always
// written as plaintext, even when the original was an encrypted container.
func WriteDocument(path, content string, opts WriteOptions) error {
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if opts.Backup {
		if err := backup(path, mode); err != nil {
			return err
		}
	}

	if !opts.Atomic {
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".save-edit-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	_ = os.Chmod(tmpName, mode)

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

func backup(path string, mode fs.FileMode) error {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s for backup: %w", path, err)
	}
	if err := os.WriteFile(BackupPath(path), src, mode); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}
