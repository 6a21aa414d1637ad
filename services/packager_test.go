package services

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateZipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mashup.mp3")
	require.NoError(t, os.WriteFile(src, []byte("pretend mp3 data"), 0o644))

	zipPath := filepath.Join(dir, "mashup.zip")
	require.NoError(t, CreateZip(src, zipPath))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 1)
	assert.Equal(t, "mashup.mp3", r.File[0].Name)

	rc, err := r.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("pretend mp3 data"), data)
}

func TestCreateZipMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CreateZip(filepath.Join(dir, "nope.mp3"), filepath.Join(dir, "out.zip"))
	assert.Error(t, err)
}
