package handler

import (
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"roster/internal/service"
)

type UploadHandler struct {
	uploadService *service.UploadService
	uploadDir     string
	wg            sync.WaitGroup
}

func NewUploadHandler(uploadService *service.UploadService, uploadDir string) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, uploadDir: uploadDir}
}

// UploadCSV stores each uploaded file and imports it in the background.
func (h *UploadHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	// Ensure uploads directory exists
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		http.Error(w, "Failed to create uploads directory", http.StatusInternalServerError)
		return
	}

	err := r.ParseMultipartForm(100 << 20) // 100MB
	if err != nil {
		http.Error(w, "File too large or bad request", http.StatusRequestEntityTooLarge)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	fileNames := make([]string, 0, len(files))
	for _, header := range files {
		name := filepath.Base(header.Filename)
		savePath := filepath.Join(h.uploadDir, name)
		if err := saveUpload(header, savePath); err != nil {
			log.Printf("Error saving upload %s: %v", name, err)
			continue
		}
		fileNames = append(fileNames, name)

		h.wg.Add(1)
		go func(filePath string) {
			defer h.wg.Done()
			if err := h.uploadService.ProcessCSV(filePath); err != nil {
				log.Printf("Error processing file %s: %v", filePath, err)
			}
		}(savePath)
	}

	// Return a response with the file names that are being processed
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	response := map[string]interface{}{
		"message": "Files uploaded successfully and processing started",
		"files":   fileNames,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Println("Error encoding response:", err)
	}
}

// Wait blocks until every background import has finished.
func (h *UploadHandler) Wait() {
	h.wg.Wait()
}

func saveUpload(header *multipart.FileHeader, savePath string) error {
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	outFile, err := os.Create(savePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(outFile, file); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}
