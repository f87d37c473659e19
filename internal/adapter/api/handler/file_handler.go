package handler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"campuslink/internal/adapter/api/middleware"
	"campuslink/internal/infrastructure/storage"
	"campuslink/pkg/errors"
	"campuslink/pkg/logger"
	"campuslink/pkg/response"
)

// Content types accepted as chat attachments, matched on the sniffed type
// rather than the client-supplied header.
var allowedAttachmentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"text/plain",
}

type FileHandler struct {
	uploader    storage.Uploader
	maxFileSize int64
}

var fileHandler *FileHandler

func NewFileHandler(uploader storage.Uploader, maxFileSize int64) *FileHandler {
	return &FileHandler{
		uploader:    uploader,
		maxFileSize: maxFileSize,
	}
}

func SetupFileHandler(uploader storage.Uploader, maxFileSize int64) {
	fileHandler = NewFileHandler(uploader, maxFileSize)
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

// UploadAttachment stores a multipart "file" and returns the URL to send as a
// message attachment.
func (h *FileHandler) UploadAttachment(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		logger.Warn("File too large: %d bytes (max: %d)", file.Size, h.maxFileSize)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read uploaded file", err))
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read uploaded file", err))
	}
	if int64(len(data)) > h.maxFileSize {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType, ok := attachmentType(data)
	if !ok {
		logger.Warn("Rejected attachment %q of type %s", file.Filename, mimetype.Detect(data).String())
		return response.Error(c, errors.BadRequest("File type not supported", nil))
	}

	url, err := h.uploader.Upload(c.Request().Context(), bytes.NewReader(data), contentType, storage.AttachmentFolder)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to upload file", err))
	}

	logger.Info("User %s uploaded attachment %s (%s, %d bytes)", middleware.IdentityFrom(c).ID, url, contentType, len(data))
	return response.Created(c, map[string]interface{}{
		"url":          url,
		"content_type": contentType,
		"size":         len(data),
	})
}

func attachmentType(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for _, allowed := range allowedAttachmentTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}
