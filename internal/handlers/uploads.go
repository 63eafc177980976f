// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cognitio/internal/storage"
)

// ImageStore uploads post images.
type ImageStore interface {
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

// Uploads handles image uploads for posts.
type Uploads struct {
	images ImageStore
}

// NewUploads creates the upload handler. A nil store disables uploads.
func NewUploads(images ImageStore) *Uploads {
	return &Uploads{images: images}
}

// Image accepts a multipart "image" field and returns the stored URL for
// use as post.image.
func (h *Uploads) Image(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "Image uploads are not configured. Use an image URL instead.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image is too large (max 5 MB).")
			return
		}
		writeError(w, http.StatusBadRequest, "Attach the image in the \"image\" form field.")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Image is too large (max 5 MB).")
		return
	}

	// Trust the bytes, not the client's header.
	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	contentType := http.DetectContentType(sniff[:n])
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusUnprocessableEntity, "Only image files can be uploaded.")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		slog.Error("rewind upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not read the upload.")
		return
	}

	url, err := h.images.UploadImage(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		slog.Error("image upload failed", "error", err)
		writeError(w, http.StatusBadGateway, "Could not store the image. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
