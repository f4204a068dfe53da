// Package fileutil writes output files with tmp+mv semantics so readers
// never observe a partially written file.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eunmann/catras/pkg/logging"
)

// Exists returns true if the file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteTmpThenMove writes outPath by handing a temporary path next to it to
// writeFunc, syncing the result and renaming it into place. On any error
// the temporary file is removed and outPath is left untouched.
func WriteTmpThenMove(outPath string, writeFunc func(tmpPath string) error) error {
	outDir := filepath.Dir(outPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(outDir, filepath.Base(outPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := writeFunc(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := syncFile(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp to final: %w", err)
	}

	logging.L().Debug().Str("path", outPath).Msg("output file written")
	return nil
}

// WriteFile is WriteTmpThenMove for an in-memory payload.
func WriteFile(outPath string, data []byte) error {
	return WriteTmpThenMove(outPath, func(tmpPath string) error {
		if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", tmpPath, err)
		}
		return nil
	})
}

// syncFile opens, syncs, and closes a file.
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	err = f.Sync()
	f.Close()
	return err
}
