// Package server implements the save-mask backend the editor posts masks to.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"inpaint-masker/internal/logger"

	"github.com/google/uuid"
	"github.com/vincent-petithory/dataurl"
)

var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// SaveMaskRequest is the JSON body of POST /save-mask.
type SaveMaskRequest struct {
	MaskData string `json:"maskData"`
	Filename string `json:"filename"`
}

// SaveMaskResponse is returned once the mask is on disk.
type SaveMaskResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Bytes    int    `json:"bytes"`
	Message  string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler stores posted masks as PNG files in a directory.
type Handler struct {
	maskDir      string
	maxBodyBytes int64
	logger       logger.Logger
}

func NewHandler(maskDir string, maxBodyBytes int64, log logger.Logger) (*Handler, error) {
	if err := os.MkdirAll(maskDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mask dir %s: %w", maskDir, err)
	}
	return &Handler{maskDir: maskDir, maxBodyBytes: maxBodyBytes, logger: log}, nil
}

// Routes returns the backend's request multiplexer.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/save-mask", h.handleSaveMask)
	mux.HandleFunc("/healthz", h.handleHealth)
	return withCORS(mux)
}

func (h *Handler) handleSaveMask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req SaveMaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if !filenamePattern.MatchString(req.Filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	du, err := dataurl.DecodeString(req.MaskData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maskData")
		return
	}
	if du.ContentType() != "image/png" {
		writeError(w, http.StatusBadRequest, "maskData must be image/png")
		return
	}

	path := filepath.Join(h.maskDir, req.Filename+".png")
	if err := os.WriteFile(path, du.Data, 0o644); err != nil {
		h.logger.Error("SaveMaskHandler", "failed to store mask", err, map[string]interface{}{"path": path})
		writeError(w, http.StatusInternalServerError, "failed to store mask")
		return
	}

	rsp := SaveMaskResponse{
		ID:       uuid.New().String(),
		Filename: req.Filename,
		Path:     path,
		Bytes:    len(du.Data),
		Message:  "Mask saved successfully",
	}

	h.logger.Info("SaveMaskHandler", "mask stored", map[string]interface{}{
		"id":          rsp.ID,
		"path":        path,
		"bytes":       rsp.Bytes,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	writeJSON(w, http.StatusOK, rsp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withCORS lets browser-based clients post to the backend as well.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
