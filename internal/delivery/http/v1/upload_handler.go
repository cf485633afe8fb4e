package v1

import (
	"context"
	"net/http"
	"path/filepath"
	"product-service/pkg/logger"
	"product-service/pkg/utils"
	"strings"
)

var (
	allowedMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
	allowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

// ImageStorage stores processed product images and returns their public URL.
type ImageStorage interface {
	UploadBuffer(ctx context.Context, data []byte, contentType string) (string, error)
}

type UploadHandler struct {
	storage       ImageStorage
	maxUploadSize int64
}

func NewUploadHandler(s ImageStorage, maxUploadSizeMB int64) *UploadHandler {
	return &UploadHandler{
		storage:       s,
		maxUploadSize: maxUploadSizeMB << 20, // Convert MB to bytes
	}
}

func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Warn().Err(err).Msg("upload: parse multipart form")
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Warn().Err(err).Msg("upload: missing file field")
		utils.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedMimeTypes[contentType] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file extension")
		return
	}

	// Resize + WebP
	processed, newContentType, err := utils.ProcessImage(file)
	if err != nil {
		log.Warn().Err(err).Str("filename", header.Filename).Msg("upload: process image")
		utils.WriteError(w, http.StatusBadRequest, "Failed to process image")
		return
	}

	url, err := h.storage.UploadBuffer(r.Context(), processed, newContentType)
	if err != nil {
		log.Error().Err(err).Msg("upload: store image")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	log.Info().
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Str("url", url).
		Msg("product image uploaded")

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"url": url,
	})
}
