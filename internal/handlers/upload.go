// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/services/storage"
)

// UploadHandlers serves file uploads to object storage.
type UploadHandlers struct {
	storage *storage.Service
}

func NewUpload(storageService *storage.Service) *UploadHandlers {
	return &UploadHandlers{storage: storageService}
}

// Upload stores a multipart file and returns its public URL.
func (h *UploadHandlers) Upload(c echo.Context) error {
	if h.storage == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "uploads are not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	url, err := h.storage.Upload(c.Request().Context(),
		fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType), file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "upload failed")
	}
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}
