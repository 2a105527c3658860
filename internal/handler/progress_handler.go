package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"

	"roster/internal/service"
)

type ProgressHandler struct {
	uploadService *service.UploadService
}

func NewProgressHandler(uploadService *service.UploadService) *ProgressHandler {
	return &ProgressHandler{uploadService: uploadService}
}

// GetFileProgress returns the progress for a specific file
func (h *ProgressHandler) GetFileProgress(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		http.Error(w, "fileName parameter is required", http.StatusBadRequest)
		return
	}

	progress := h.uploadService.GetFileProgress(filepath.Base(fileName))
	if progress == nil {
		http.Error(w, "File not found or not being processed", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// GetAllProgress returns the progress for all files being processed
func (h *ProgressHandler) GetAllProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.uploadService.GetAllFileProgress())
}

// SSEProgress streams progress updates to the client using Server-Sent Events (SSE)
func (h *ProgressHandler) SSEProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	progressChan := make(chan *service.ProgressInfo, 16)
	h.uploadService.RegisterProgressListener(progressChan)
	defer h.uploadService.UnregisterProgressListener(progressChan)

	// Current state first so late subscribers see finished imports.
	for _, progress := range h.uploadService.GetAllFileProgress() {
		if !writeEvent(w, progress) {
			return
		}
	}
	flusher.Flush()

	for {
		select {
		case progress := <-progressChan:
			if !writeEvent(w, progress) {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, progress *service.ProgressInfo) bool {
	data, err := json.Marshal(progress)
	if err != nil {
		log.Println("Error marshaling progress:", err)
		return true
	}
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		log.Println("Error writing SSE data:", err)
		return false
	}
	return true
}
