package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"reda-store/internal/apperr"
	"reda-store/internal/blob"
	"reda-store/internal/middleware"
)

const (
	maxUploadFiles = 5
	maxImageBytes  = 5 << 20
)

type ImageHandler struct {
	store blob.Store
}

func NewImageHandler(store blob.Store) *ImageHandler {
	return &ImageHandler{store: store}
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > maxImageBytes {
		return nil, "", apperr.Validation("File too large: " + fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", apperr.Validation("Could not read " + fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, "", apperr.Validation("Could not read " + fh.Filename)
	}
	if len(data) > maxImageBytes {
		return nil, "", apperr.Validation("File too large: " + fh.Filename)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", apperr.Validation("Only image files are allowed")
	}
	return data, contentType, nil
}

// UploadImages stores 1 to 5 multipart "files". POST /api/images/upload
func (h *ImageHandler) UploadImages(c *gin.Context) {
	span := startSpan(c, "UploadImages")
	defer span.End()

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, span, apperr.Validation("No files provided"))
		return
	}
	files := form.File["files"]
	switch {
	case len(files) == 0:
		respondError(c, span, apperr.Validation("No files provided"))
		return
	case len(files) > maxUploadFiles:
		respondError(c, span, apperr.Validation("Maximum 5 files allowed"))
		return
	}

	ids := make([]string, 0, len(files))
	for _, fh := range files {
		data, contentType, err := readUpload(fh)
		if err != nil {
			respondError(c, span, err)
			return
		}
		id, err := h.store.Put(c.Request.Context(), fh.Filename, contentType, data, middleware.AdminID(c))
		if err != nil {
			respondError(c, span, err)
			return
		}
		ids = append(ids, id)
	}
	span.SetAttributes(attribute.Int("image.count", len(ids)))
	c.JSON(http.StatusOK, gin.H{"fileIds": ids})
}

// GetImage streams a stored image with a long cache lifetime. Ids never
// change content. GET /api/images/:fileId
func (h *ImageHandler) GetImage(c *gin.Context) {
	span := startSpan(c, "GetImage")
	defer span.End()

	obj, err := h.store.Get(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("Content-Length", strconv.Itoa(len(obj.Data)))
	c.Data(http.StatusOK, contentType, obj.Data)
}
