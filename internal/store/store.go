// Package store persists exercises, per-user progress, ingested
// documents, preferences, and user records as flat JSON files under the
// application home directory. Single-user scale: no database, no
// locking beyond atomic replace-on-write.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/home"
	"github.com/taanya/pylearn/internal/ingest"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store reads and writes all persisted application state.
type Store struct {
	home   *home.Dir
	logger *slog.Logger
}

// New creates a store rooted at the home directory.
func New(h *home.Dir, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{home: h, logger: logger}
}

// SaveExercise persists a generated exercise so submissions can be
// validated against it later.
func (s *Store) SaveExercise(ex *exercise.GeneratedExercise) error {
	return writeJSONFile(s.exercisePath(ex.ID), ex)
}

// GetExercise loads an exercise by id. Returns ErrNotFound if no
// exercise with that id was ever saved.
func (s *Store) GetExercise(id string) (*exercise.GeneratedExercise, error) {
	var ex exercise.GeneratedExercise
	if err := readJSONFile(s.exercisePath(id), &ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

// ListExercises returns all saved exercises, newest first.
func (s *Store) ListExercises() ([]*exercise.GeneratedExercise, error) {
	paths, err := filepath.Glob(filepath.Join(s.home.ExercisesDir(), "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}

	exercises := make([]*exercise.GeneratedExercise, 0, len(paths))
	for _, path := range paths {
		var ex exercise.GeneratedExercise
		if err := readJSONFile(path, &ex); err != nil {
			s.logger.Warn("skipping unreadable exercise file", "path", path, "error", err)
			continue
		}
		exercises = append(exercises, &ex)
	}

	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].CreatedAt.After(exercises[j].CreatedAt)
	})
	return exercises, nil
}

// DeleteExercise removes a saved exercise. Returns ErrNotFound if no
// exercise with that id exists.
func (s *Store) DeleteExercise(id string) error {
	err := os.Remove(s.exercisePath(id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// Attempt is one submission against an exercise.
type Attempt struct {
	ExerciseID  string    `json:"exercise_id"`
	Code        string    `json:"code"`
	IsCorrect   bool      `json:"is_correct"`
	Feedback    string    `json:"feedback"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Progress is a user's accumulated attempt history.
type Progress struct {
	Username  string          `json:"username"`
	Attempts  []Attempt       `json:"attempts"`
	Completed map[string]bool `json:"completed"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GetProgress loads a user's progress, returning an empty record when
// none has been saved yet.
func (s *Store) GetProgress(username string) (*Progress, error) {
	var p Progress
	err := readJSONFile(s.progressPath(username), &p)
	if errors.Is(err, ErrNotFound) {
		return &Progress{Username: username, Completed: make(map[string]bool)}, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Completed == nil {
		p.Completed = make(map[string]bool)
	}
	return &p, nil
}

// RecordAttempt appends an attempt to the user's progress and marks the
// exercise completed if the attempt was correct.
func (s *Store) RecordAttempt(username string, a Attempt) (*Progress, error) {
	p, err := s.GetProgress(username)
	if err != nil {
		return nil, err
	}

	p.Attempts = append(p.Attempts, a)
	if a.IsCorrect {
		p.Completed[a.ExerciseID] = true
	}
	p.UpdatedAt = time.Now().UTC()

	if err := writeJSONFile(s.progressPath(username), p); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveDocument persists metadata for an ingested PDF.
func (s *Store) SaveDocument(doc *ingest.Result) error {
	return writeJSONFile(s.documentPath(doc.ID), doc)
}

// ListDocuments returns all ingested document records, newest first.
func (s *Store) ListDocuments() ([]*ingest.Result, error) {
	paths, err := filepath.Glob(filepath.Join(s.home.DocumentsDir(), "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*ingest.Result, 0, len(paths))
	for _, path := range paths {
		var doc ingest.Result
		if err := readJSONFile(path, &doc); err != nil {
			s.logger.Warn("skipping unreadable document file", "path", path, "error", err)
			continue
		}
		docs = append(docs, &doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// DeleteDocument removes an ingested document record and its stored
// PDF. Returns ErrNotFound if no document with that id exists.
func (s *Store) DeleteDocument(id string) error {
	doc, err := s.GetDocument(id)
	if err != nil {
		return err
	}

	if doc.StoredPath != "" {
		if err := os.Remove(doc.StoredPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove stored PDF", "path", doc.StoredPath, "error", err)
		}
	}
	return os.Remove(s.documentPath(id))
}

// GetDocument loads a single document record by id.
func (s *Store) GetDocument(id string) (*ingest.Result, error) {
	var doc ingest.Result
	if err := readJSONFile(s.documentPath(id), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Preferences holds the user's editor and UI settings. Unset records
// read back as DefaultPreferences.
type Preferences struct {
	Theme         string `json:"theme"`
	SidebarOpen   bool   `json:"sidebar_open"`
	CodeFont      string `json:"code_font"`
	FontSize      int    `json:"font_size"`
	AutoComplete  bool   `json:"auto_complete"`
	Notifications bool   `json:"notifications"`
}

// DefaultPreferences returns the settings a fresh installation starts with.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Theme:         "dark",
		SidebarOpen:   true,
		CodeFont:      "JetBrains Mono",
		FontSize:      14,
		AutoComplete:  true,
		Notifications: true,
	}
}

// GetPreferences loads the stored preferences, returning defaults when
// none have been saved yet.
func (s *Store) GetPreferences() (*Preferences, error) {
	var p Preferences
	err := readJSONFile(s.preferencesPath(), &p)
	if errors.Is(err, ErrNotFound) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePreferences persists the preferences record.
func (s *Store) SavePreferences(p *Preferences) error {
	return writeJSONFile(s.preferencesPath(), p)
}

// UserRecord is a stored account. Single-user deployments hold exactly
// one of these.
type UserRecord struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveUser persists a user record.
func (s *Store) SaveUser(u *UserRecord) error {
	return writeJSONFile(s.userPath(u.Username), u)
}

// GetUser loads a user record. Returns ErrNotFound for unknown usernames.
func (s *Store) GetUser(username string) (*UserRecord, error) {
	var u UserRecord
	if err := readJSONFile(s.userPath(username), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) exercisePath(id string) string {
	return filepath.Join(s.home.ExercisesDir(), sanitize(id)+".json")
}

func (s *Store) progressPath(username string) string {
	return filepath.Join(s.home.ProgressDir(), sanitize(username)+".json")
}

func (s *Store) userPath(username string) string {
	return filepath.Join(s.home.UsersDir(), sanitize(username)+".json")
}

func (s *Store) documentPath(id string) string {
	return filepath.Join(s.home.DocumentsDir(), sanitize(id)+".json")
}

func (s *Store) preferencesPath() string {
	return filepath.Join(s.home.DataPath(), "preferences.json")
}

// sanitize keeps record ids from escaping the storage directory.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSONFile persists with atomic replace-on-write, matching the
// embedding cache's durability guarantee.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
