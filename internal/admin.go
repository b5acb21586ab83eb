package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/vichambarde/serverroom/internal/auth"
	"github.com/vichambarde/serverroom/internal/export"
	"github.com/vichambarde/serverroom/internal/models"
	"github.com/vichambarde/serverroom/pkg/qrcode"
)

// adminLogin exchanges admin credentials for a bearer token. Credentials may
// come from the JSON body or an HTTP Basic header.
func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		auth.WriteError(w, "Invalid request body", "INVALID_BODY", http.StatusBadRequest)
		return
	}
	if req.Username == "" && req.Password == "" {
		if u, p, ok := r.BasicAuth(); ok {
			req.Username, req.Password = u, p
		}
	}

	if !s.Credentials.Verify(req.Username, req.Password) {
		auth.WriteError(w, "Authentication failed", "AUTHENTICATION_FAILED", http.StatusUnauthorized)
		return
	}

	token, err := s.JWTManager.GenerateToken(req.Username, auth.RoleAdmin)
	if err != nil {
		log.Printf("[Admin] token: %v", err)
		auth.WriteError(w, "Failed to issue token", "TOKEN_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Msg: "Login successful", Token: token})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	f, err := parseEntryFilter(r)
	if err != nil {
		auth.WriteError(w, err.Error(), "INVALID_FILTER", http.StatusBadRequest)
		return
	}

	entries, err := s.Store.Ledger().List(r.Context(), f)
	if err != nil {
		log.Printf("[Admin] list entries: %v", err)
		auth.WriteError(w, msgServerError, "STORAGE_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// exportEntries streams the filtered ledger as entries.xlsx.
func (s *Server) exportEntries(w http.ResponseWriter, r *http.Request) {
	f, err := parseEntryFilter(r)
	if err != nil {
		auth.WriteError(w, err.Error(), "INVALID_FILTER", http.StatusBadRequest)
		return
	}

	entries, err := s.Store.Ledger().List(r.Context(), f)
	if err != nil {
		log.Printf("[Admin] export entries: %v", err)
		auth.WriteError(w, msgServerError, "STORAGE_ERROR", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteEntries(&buf, entries, nil); err != nil {
		log.Printf("[Admin] export entries: %v", err)
		auth.WriteError(w, "Failed to build workbook", "EXPORT_ERROR", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[Admin] write export: %v", err)
	}
}

// addStock creates an item or adds to its quantity.
func (s *Server) addStock(w http.ResponseWriter, r *http.Request) {
	var req models.StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, "Invalid request body", "INVALID_BODY", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		auth.WriteError(w, "name is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if err := models.CheckStockQuantity(req.Quantity); err != nil {
		auth.WriteError(w, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	item, created, err := s.Store.Catalog().AddStock(r.Context(), req.Name, req.Quantity)
	if errors.Is(err, models.ErrQuantityOutOfRange) {
		auth.WriteError(w, fmt.Sprintf("%s cannot hold more than %d units", req.Name, models.MaxQuantity),
			"QUANTITY_OUT_OF_RANGE", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("[Admin] add stock %q: %v", req.Name, err)
		auth.WriteError(w, msgServerError, "STORAGE_ERROR", http.StatusInternalServerError)
		return
	}
	s.Cache.Invalidate(r.Context())

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, models.AdminItem{Item: item, LowStock: item.IsLow()})
}

// listAllItems returns the whole catalog with low-stock flags. lowStock=true
// restricts the list to flagged items.
func (s *Server) listAllItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.Catalog().List(r.Context())
	if err != nil {
		log.Printf("[Admin] list items: %v", err)
		auth.WriteError(w, msgServerError, "STORAGE_ERROR", http.StatusInternalServerError)
		return
	}

	onlyLow := r.URL.Query().Get("lowStock") == "true"
	out := make([]models.AdminItem, 0, len(items))
	for _, it := range items {
		if onlyLow && !it.IsLow() {
			continue
		}
		out = append(out, models.AdminItem{Item: it, LowStock: it.IsLow()})
	}
	writeJSON(w, http.StatusOK, out)
}

// formQRCode renders the public form URL as a PNG.
func (s *Server) formQRCode(w http.ResponseWriter, r *http.Request) {
	size := qrcode.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			auth.WriteError(w, "size must be an integer", "INVALID_SIZE", http.StatusBadRequest)
			return
		}
		size = n
	}

	png, err := qrcode.PNG(s.cfg.FormURL, size)
	if err != nil {
		log.Printf("[Admin] qr: %v", err)
		auth.WriteError(w, "Failed to render QR code", "QR_ERROR", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}
