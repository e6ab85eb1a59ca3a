package handlers

import (
	"fmt"
	"mime"
	"path/filepath"

	"github.com/Destcable/API-cloud-storage/internal/middleware"
	"github.com/Destcable/API-cloud-storage/internal/services"
	"github.com/Destcable/API-cloud-storage/pkg/logger"
	"github.com/Destcable/API-cloud-storage/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type FilesHandler struct {
	Registry *services.FileRegistry
}

func NewFilesHandler(registry *services.FileRegistry) *FilesHandler {
	return &FilesHandler{Registry: registry}
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("files")
	if err != nil {
		return utils.ValidationFailed(c, map[string][]string{
			"files": {"files is required"},
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	file, err := h.Registry.Create(c.Context(), currentUser.ID, fileHeader.Filename, fileHeader.Size, contentType, stream)
	if err != nil {
		return respondServiceError(c, err, "failed uploading file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_uploaded", map[string]interface{}{
		"file_key":     file.FileKey,
		"file_name":    file.Name,
		"file_size":    file.Size,
		"mime_type":    file.MimeType,
		"storage_path": file.StoragePath,
	})

	return utils.Success(c, fiber.StatusCreated, file)
}

type renameFileRequest struct {
	Name string `json:"name"`
}

func (h *FilesHandler) Rename(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req renameFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := h.Registry.Rename(c.Context(), c.Params("file_key"), currentUser.ID, req.Name)
	if err != nil {
		return respondServiceError(c, err, "failed renaming file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_renamed", map[string]interface{}{
		"file_key": file.FileKey,
		"new_name": file.Name,
	})

	return utils.Success(c, fiber.StatusOK, file)
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileKey := c.Params("file_key")
	if err := h.Registry.Delete(c.Context(), fileKey, currentUser.ID); err != nil {
		return respondServiceError(c, err, "failed deleting file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_deleted", map[string]interface{}{
		"file_key": fileKey,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "file deleted"})
}

func (h *FilesHandler) Download(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	file, reader, size, err := h.Registry.Download(c.Context(), c.Params("file_key"), currentUser.ID)
	if err != nil {
		return respondServiceError(c, err, "failed downloading file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_downloaded", map[string]interface{}{
		"file_key":  file.FileKey,
		"file_name": file.Name,
		"file_size": file.Size,
	})

	c.Set("Content-Type", file.MimeType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.SendStream(reader, int(size))
}

func (h *FilesHandler) ListDisk(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	files, err := h.Registry.ListForUser(c.Context(), currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}

	return utils.Success(c, fiber.StatusOK, files)
}
