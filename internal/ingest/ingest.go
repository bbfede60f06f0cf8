// Package ingest handles learning-material ingestion from PDF files:
// validation, storage under the uploads directory, and lightweight
// content analysis (difficulty and topic hints) used to steer exercise
// generation.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/taanya/pylearn/internal/home"
)

// MaxUploadBytes is the default per-file size limit.
const MaxUploadBytes = 10 << 20

// Request contains the parameters for ingesting a PDF.
type Request struct {
	Path     string       // Source PDF path
	Title    string       // Optional, derived from filename if empty
	MaxBytes int64        // Per-file size limit (0 = MaxUploadBytes)
	Logger   *slog.Logger // Optional logger for progress updates
}

// Result describes a successfully ingested document.
type Result struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	PageCount  int       `json:"page_count"`
	Difficulty string    `json:"difficulty"`
	Topics     []string  `json:"topics,omitempty"`
	StoredPath string    `json:"stored_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Ingest validates the PDF, copies it into the uploads directory, and
// analyzes its text for difficulty and topic hints.
func Ingest(ctx context.Context, homeDir *home.Dir, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	maxBytes := req.MaxBytes
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	if err := checkUpload(req.Path, maxBytes); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(req.Path, conf); err != nil {
		return nil, fmt.Errorf("invalid PDF %s: %w", filepath.Base(req.Path), err)
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	title := req.Title
	if title == "" {
		title = deriveTitle(req.Path)
	}

	id := uuid.New().String()
	storedName := id + ".pdf"
	storedPath := filepath.Join(homeDir.UploadsPath(), storedName)
	if err := copyFile(req.Path, storedPath); err != nil {
		return nil, fmt.Errorf("failed to store PDF: %w", err)
	}

	// Text extraction is best effort: without poppler installed the
	// analysis falls back to the title.
	text, err := extractText(ctx, storedPath)
	if err != nil {
		log.Debug("text extraction unavailable, analyzing title only", "error", err)
		text = title
	}

	res := &Result{
		ID:         id,
		Title:      title,
		Filename:   filepath.Base(req.Path),
		PageCount:  pageCount,
		Difficulty: InferDifficulty(text),
		Topics:     DetectTopics(text),
		StoredPath: storedPath,
		UploadedAt: time.Now().UTC(),
	}

	log.Info("ingested PDF",
		"id", res.ID,
		"title", res.Title,
		"pages", res.PageCount,
		"difficulty", res.Difficulty,
	)
	return res, nil
}

// checkUpload rejects files that are missing, not PDFs, or oversized.
func checkUpload(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("PDF not found: %s", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("not a PDF file: %s", filepath.Base(path))
	}
	if info.Size() > maxBytes {
		return fmt.Errorf("file too large: %s is %d bytes (limit %d)", filepath.Base(path), info.Size(), maxBytes)
	}
	return nil
}

// extractText extracts plain text using pdftotext (poppler-utils).
func extractText(ctx context.Context, pdfPath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pylearn-text-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "content.txt")
	cmd := exec.CommandContext(ctx, "pdftotext", pdfPath, outPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}
	return string(data), nil
}

// Difficulty indicator terms. Advanced wins over beginner when both
// appear; a document mentioning decorators is not beginner material
// just because it also mentions variables.
var (
	beginnerTerms = []string{
		"variable", "print", "basic", "introduction", "getting started",
		"first program", "hello world", "if statement", "simple",
	}
	advancedTerms = []string{
		"decorator", "generator", "metaclass", "async", "coroutine",
		"concurrency", "threading", "multiprocessing", "descriptor",
		"memoization", "performance",
	}
)

// InferDifficulty classifies text into beginner, intermediate, or
// advanced by counting indicator terms. Intermediate is the default when
// nothing dominates.
func InferDifficulty(text string) string {
	lower := strings.ToLower(text)

	beginner, advanced := 0, 0
	for _, term := range beginnerTerms {
		beginner += strings.Count(lower, term)
	}
	for _, term := range advancedTerms {
		advanced += strings.Count(lower, term)
	}

	switch {
	case advanced > 0 && advanced >= beginner:
		return "advanced"
	case beginner > advanced:
		return "beginner"
	default:
		return "intermediate"
	}
}

// topicTerms maps exercise topics to the terms that indicate them.
var topicTerms = map[string][]string{
	"variables":      {"variable", "assignment"},
	"loops":          {"for loop", "while loop", "iteration", "range("},
	"functions":      {"def ", "function", "return value", "parameter"},
	"classes":        {"class ", "object", "method", "inheritance"},
	"strings":        {"string", "f-string", "format"},
	"lists":          {"list", "append", "comprehension"},
	"dictionaries":   {"dict", "dictionary", "key-value"},
	"error-handling": {"exception", "try:", "except", "raise"},
}

// DetectTopics returns the exercise topics the text covers, in
// stable order.
func DetectTopics(text string) []string {
	lower := strings.ToLower(text)

	var topics []string
	for _, topic := range []string{
		"variables", "loops", "functions", "classes",
		"strings", "lists", "dictionaries", "error-handling",
	} {
		for _, term := range topicTerms[topic] {
			if strings.Contains(lower, term) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

// deriveTitle extracts a title from a PDF filename: the extension and
// any numeric suffix like "-1" are dropped.
func deriveTitle(pdfPath string) string {
	base := filepath.Base(pdfPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return regexp.MustCompile(`-\d+$`).ReplaceAllString(name, "")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
