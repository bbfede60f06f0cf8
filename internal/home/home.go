package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the pylearn home directory.
	DefaultDirName = ".pylearn"

	// DataDirName is the subdirectory for stored entities.
	DataDirName = "data"

	// CacheDirName is the subdirectory for computed embedding caches.
	CacheDirName = "cache"

	// UploadsDirName is the subdirectory for uploaded study PDFs.
	UploadsDirName = "uploads"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// TemplatesFileName is the exercise template source file.
	TemplatesFileName = "exercise_templates.json"

	// EmbeddingCacheFileName is the persisted template embedding index.
	EmbeddingCacheFileName = "template_embeddings.json"
)

// Dir represents the pylearn home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.pylearn).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// CachePath returns the path to the cache directory.
func (d *Dir) CachePath() string {
	return filepath.Join(d.path, CacheDirName)
}

// UploadsPath returns the path to the uploaded PDFs directory.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// TemplatesPath returns the path to the exercise template source file.
func (d *Dir) TemplatesPath() string {
	return filepath.Join(d.path, TemplatesFileName)
}

// EmbeddingCachePath returns the path to the persisted embedding index.
func (d *Dir) EmbeddingCachePath() string {
	return filepath.Join(d.CachePath(), EmbeddingCacheFileName)
}

// ExercisesDir returns the directory holding one JSON file per exercise.
func (d *Dir) ExercisesDir() string {
	return filepath.Join(d.DataPath(), "exercises")
}

// ProgressDir returns the directory holding one JSON file per progress record.
func (d *Dir) ProgressDir() string {
	return filepath.Join(d.DataPath(), "progress")
}

// UsersDir returns the directory holding one JSON file per user.
func (d *Dir) UsersDir() string {
	return filepath.Join(d.DataPath(), "users")
}

// DocumentsDir returns the directory holding one JSON metadata file per
// ingested PDF.
func (d *Dir) DocumentsDir() string {
	return filepath.Join(d.DataPath(), "documents")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{
		d.ExercisesDir(),
		d.ProgressDir(),
		d.UsersDir(),
		d.DocumentsDir(),
		d.CachePath(),
		d.UploadsPath(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// TemplatesExist returns true if the exercise template source file exists.
func (d *Dir) TemplatesExist() bool {
	_, err := os.Stat(d.TemplatesPath())
	return err == nil
}
