package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vichambarde/serverroom/internal/auth"
	"github.com/vichambarde/serverroom/internal/stock"
	"github.com/vichambarde/serverroom/pkg/importer"
)

// Invalidator is told when stock levels change.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// ImportsHandler handles Excel restock uploads
type ImportsHandler struct {
	Catalog     stock.Catalog
	Cache       Invalidator
	MaxBytes    int64
	MappingPath string
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(catalog stock.Catalog, cache Invalidator, mappingPath string) *ImportsHandler {
	return &ImportsHandler{
		Catalog:     catalog,
		Cache:       cache,
		MaxBytes:    20 << 20, // 20 MB
		MappingPath: mappingPath,
	}
}

// UploadExcel restocks the catalog from an uploaded .xlsx workbook
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		auth.WriteError(w, "content-type must be multipart/form-data", "INVALID_CONTENT_TYPE", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		auth.WriteError(w, "invalid multipart form: "+err.Error(), "INVALID_FORM", http.StatusBadRequest)
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			auth.WriteError(w, "max_errors must be a positive integer", "INVALID_MAX_ERRORS", http.StatusBadRequest)
			return
		}
		maxErrors = n
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		auth.WriteError(w, "file is required: "+err.Error(), "MISSING_FILE", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		auth.WriteError(w, "only .xlsx files are accepted", "INVALID_FILE_TYPE", http.StatusBadRequest)
		return
	}

	restock := importer.RestockFunc(func(ctx context.Context, name string, qty int) (bool, error) {
		_, created, err := h.Catalog.AddStock(ctx, name, qty)
		return created, err
	})

	sum, impErr := importer.ImportExcel(r.Context(), restock, file, importer.ImportOptions{
		MappingPath: h.MappingPath,
		DryRun:      dryRun,
		MaxErrors:   maxErrors,
	})
	if !dryRun && sum.Created+sum.Restocked > 0 && h.Cache != nil {
		h.Cache.Invalidate(r.Context())
	}
	if impErr != nil {
		if !errors.Is(impErr, importer.ErrTooManyErrors) {
			log.Printf("[Import] %s: %v", header.Filename, impErr)
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "IMPORT_FAILED",
			"details": impErr.Error(),
			"data":    sum, // partial
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"file":      header.Filename,
		},
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
