package services

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CreateZip archives a single file into zipPath, keeping only its base
// name inside the archive.
func CreateZip(srcPath, zipPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", zipPath, err)
	}

	zw := zip.NewWriter(out)
	entry, err := zw.Create(filepath.Base(srcPath))
	if err != nil {
		out.Close()
		return fmt.Errorf("zip entry: %w", err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		out.Close()
		return fmt.Errorf("zip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("zip finalize: %w", err)
	}

	return out.Close()
}
