package endpoints

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/ingest"
	"github.com/taanya/pylearn/internal/store"
	"github.com/taanya/pylearn/internal/svcctx"
)

// defaultMaxFilesPerUpload mirrors the limits.max_files_per_request
// config default; it applies when no config manager is wired.
const defaultMaxFilesPerUpload = 5

// uploadLimits resolves the per-request file count and per-file byte
// limits from configuration.
func uploadLimits(ctx context.Context) (maxFiles int, maxBytes int64) {
	maxFiles, maxBytes = defaultMaxFilesPerUpload, int64(ingest.MaxUploadBytes)
	if cm := svcctx.ConfigManagerFrom(ctx); cm != nil {
		limits := cm.Get().Limits
		if limits.MaxFilesPerRequest > 0 {
			maxFiles = limits.MaxFilesPerRequest
		}
		if limits.MaxUploadSizeMB > 0 {
			maxBytes = int64(limits.MaxUploadSizeMB) << 20
		}
	}
	return maxFiles, maxBytes
}

// UploadResponse reports the outcome of a multi-file upload.
type UploadResponse struct {
	Documents []*ingest.Result `json:"documents"`
	Errors    []string         `json:"errors,omitempty"`
}

// UploadEndpoint handles POST /pdfs/upload (multipart form, field "files").
type UploadEndpoint struct{}

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/pdfs/upload", e.handler
}

func (e *UploadEndpoint) RequiresAuth() bool { return true }

func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	maxFiles, maxBytes := uploadLimits(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files in upload (use form field 'files')")
		return
	}
	if len(files) > maxFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many files: %d (limit %d)", len(files), maxFiles))
		return
	}
	for _, fh := range files {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("%s: not a PDF file", fh.Filename))
			return
		}
	}

	logger := svcctx.LoggerFrom(r.Context())
	homeDir := svcctx.HomeFrom(r.Context())
	st := svcctx.StoreFrom(r.Context())

	var resp UploadResponse
	for _, fh := range files {
		tmpPath, err := saveTemp(fh)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}

		title := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
		doc, err := ingest.Ingest(r.Context(), homeDir, ingest.Request{
			Path:     tmpPath,
			Title:    title,
			MaxBytes: maxBytes,
			Logger:   logger,
		})
		os.Remove(tmpPath)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		doc.Filename = fh.Filename

		if err := st.SaveDocument(doc); err != nil {
			logger.Warn("failed to persist document record", "id", doc.ID, "error", err)
		}
		resp.Documents = append(resp.Documents, doc)
	}

	if len(resp.Documents) == 0 {
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// saveTemp spools an uploaded file to disk, preserving the .pdf
// extension so the ingest pipeline sees a real path.
func saveTemp(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "pylearn-upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := dst.Name()

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to spool upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return path, nil
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf> [more.pdf ...]",
		Short: "Upload PDF learning material",
		Args:  cobra.RangeArgs(1, defaultMaxFilesPerUpload),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			for _, path := range args {
				var resp UploadResponse
				if err := client.Upload(cmd.Context(), "/pdfs/upload", "files", path, &resp); err != nil {
					return err
				}
				for _, doc := range resp.Documents {
					fmt.Printf("%s  %s (%d pages, %s)\n", doc.ID, doc.Title, doc.PageCount, doc.Difficulty)
				}
				for _, msg := range resp.Errors {
					fmt.Printf("error: %s\n", msg)
				}
			}
			return nil
		},
	}
}

// ListDocumentsResponse is the response for the document list endpoint.
type ListDocumentsResponse struct {
	Documents []*ingest.Result `json:"documents"`
	Count     int              `json:"count"`
}

// ListDocumentsEndpoint handles GET /pdfs.
type ListDocumentsEndpoint struct{}

func (e *ListDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/pdfs", e.handler
}

func (e *ListDocumentsEndpoint) RequiresAuth() bool { return true }

func (e *ListDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docs, err := svcctx.StoreFrom(r.Context()).ListDocuments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, ListDocumentsResponse{Documents: docs, Count: len(docs)})
}

func (e *ListDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded PDFs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListDocumentsResponse
			if err := client.Get(cmd.Context(), "/pdfs", &resp); err != nil {
				return err
			}
			for _, doc := range resp.Documents {
				fmt.Printf("%s  %s (%d pages, %s)\n", doc.ID, doc.Title, doc.PageCount, doc.Difficulty)
			}
			fmt.Printf("\n%d document(s)\n", resp.Count)
			return nil
		},
	}
}

// DeleteDocumentEndpoint handles DELETE /pdfs/{id}. The stored PDF is
// removed along with its record.
type DeleteDocumentEndpoint struct{}

func (e *DeleteDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/pdfs/{id}", e.handler
}

func (e *DeleteDocumentEndpoint) RequiresAuth() bool { return true }

func (e *DeleteDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := svcctx.StoreFrom(r.Context()).DeleteDocument(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("document %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (e *DeleteDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an uploaded PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/pdfs/"+args[0], nil); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
