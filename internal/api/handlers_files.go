// handlers_files.go - Converted file handlers
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/storage"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// FilesHandlerImpl implements the FilesHandler interface
type FilesHandlerImpl struct {
	store       storage.Store
	allowDelete bool
}

// NewFilesHandler creates a new files handler instance
func NewFilesHandler(store storage.Store, allowDelete bool) FilesHandler {
	return &FilesHandlerImpl{
		store:       store,
		allowDelete: allowDelete,
	}
}

// HandleGetRecentFiles returns recently converted PDFs, newest first
func (h *FilesHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	limit := queryLimit(c, defaultRecentLimit, maxRecentLimit)

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}

	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file
func (h *FilesHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")

	info, err := h.store.Get(id)
	if err != nil {
		return storeError(err, id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDownloadFile streams a stored PDF as an attachment
func (h *FilesHandlerImpl) HandleDownloadFile(c echo.Context) error {
	id := c.Param("id")

	rc, info, err := h.store.Open(id)
	if err != nil {
		return storeError(err, id)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, attachment(info.Name))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	c.Response().Header().Set(echo.HeaderContentType, mimePDF)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), rc)
	return err
}

// HandleDeleteFile deletes a stored PDF
func (h *FilesHandlerImpl) HandleDeleteFile(c echo.Context) error {
	if !h.allowDelete {
		return NewForbiddenError("file deletion is disabled")
	}

	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return storeError(err, id)
	}

	return c.NoContent(http.StatusNoContent)
}

func storeError(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("file", id)
	}
	return NewInternalError("failed to read file", err)
}

// queryLimit reads ?limit=, falling back to def and capping at max.
func queryLimit(c echo.Context, def, max int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
