package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rowanfalk/schemakg"
)

type handler struct {
	builder schemakg.Builder
}

func newHandler(b schemakg.Builder) *handler {
	return &handler{builder: b}
}

// POST /texts
func (h *handler) handleAddText(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	report, err := h.builder.AddText(ctx, req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, "extraction failed")
		slog.Error("add text error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// POST /ingest
// Accepts multipart file upload or JSON with file path.
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	// Try multipart upload first
	if err := r.ParseMultipartForm(100 << 20); err == nil { // 100MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)

			tmpPath := filepath.Join(os.TempDir(), safeName)
			dst, err := os.Create(tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			if _, err := io.Copy(dst, file); err != nil {
				dst.Close()
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			dst.Close()
			defer os.Remove(tmpPath)

			reports, err := h.builder.IngestFile(ctx, tmpPath)
			if err != nil {
				h.writeIngestError(w, err)
				return
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"filename": safeName,
				"reports":  reports,
			})
			return
		}
	}

	// Try JSON body with path
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path'")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing file")
		return
	}

	reports, err := h.builder.IngestFile(ctx, absPath)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":    absPath,
		"reports": reports,
	})
}

func (h *handler) writeIngestError(w http.ResponseWriter, err error) {
	if errors.Is(err, schemakg.ErrUnsupportedFormat) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported document format")
		return
	}
	writeError(w, http.StatusInternalServerError, "ingestion failed")
	slog.Error("ingest error", "error", err)
}

// POST /query
func (h *handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.builder.Query(ctx, req.Question)
	if err != nil {
		writeError(w, http.StatusBadGateway, "query failed")
		slog.Error("query error", "question", req.Question, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// GET /entities
func (h *handler) handleListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"entities": h.builder.Entities(),
	})
}

// GET /entities/{name}
func (h *handler) handleFindEntity(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var (
		e  any
		ok bool
	)
	if entityType := r.URL.Query().Get("type"); entityType != "" {
		e, ok = h.builder.FindEntityByType(name, entityType)
	} else {
		e, ok = h.builder.FindEntity(name)
	}
	if !ok {
		writeError(w, http.StatusNotFound, "entity not found")
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// GET /relations
func (h *handler) handleListRelations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"relations": h.builder.Relations(),
	})
}

// GET /export/jsonld
func (h *handler) handleExportJSONLD(w http.ResponseWriter, r *http.Request) {
	data, err := h.builder.ExportJSONLD()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("jsonld export error", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/ld+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GET /export/turtle
func (h *handler) handleExportTurtle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/turtle")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, h.builder.ExportTurtle())
}

// POST /snapshot
func (h *handler) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.builder.SaveSnapshot(r.Context()); err != nil {
		if errors.Is(err, schemakg.ErrNoSnapshotStore) {
			writeError(w, http.StatusConflict, "snapshot store not configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "snapshot failed")
		slog.Error("snapshot error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// GET /stats
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.builder.Stats())
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
