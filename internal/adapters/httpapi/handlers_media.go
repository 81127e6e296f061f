package httpapi

import (
	"errors"
	"net/http"

	"github.com/tanc-norcal/membership-api/internal/ports/out/mediastore"
)

// handleUploadMedia accepts a single image as multipart form data under the
// "file" field. The optional "kind" field selects the destination folder and
// cropping: "headshot" gets a face-aware square crop, "greenbook" is stored
// as-is.
func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, mediastore.MaxUploadBytes)
	if err := r.ParseMultipartForm(mediastore.MaxUploadBytes); err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "image must be 5MB or smaller", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing file field", nil)
		return
	}
	defer file.Close()

	if header.Size > mediastore.MaxUploadBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "image must be 5MB or smaller", nil)
		return
	}

	sniff := make([]byte, 512)
	n, _ := file.Read(sniff)
	switch ct := http.DetectContentType(sniff[:n]); ct {
	case "image/jpeg", "image/png":
	default:
		writeError(w, r, http.StatusUnprocessableEntity, "UNSUPPORTED_MEDIA_TYPE", "only JPEG and PNG images are accepted", nil)
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var opts mediastore.UploadOptions
	switch kind := r.FormValue("kind"); kind {
	case "", "headshot":
		opts = mediastore.UploadOptions{Folder: "headshots", FaceCrop: true}
	case "greenbook":
		opts = mediastore.UploadOptions{Folder: "greenbooks"}
	default:
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown media kind", map[string]any{"kind": kind})
		return
	}

	up, err := s.Media.Upload(r.Context(), file, opts)
	if err != nil {
		if errors.Is(err, mediastore.ErrUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "image storage is not available", nil)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"url":      up.URL,
		"publicId": up.PublicID,
	})
}
