package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Destcable/API-cloud-storage/internal/config"
	"github.com/Destcable/API-cloud-storage/internal/models"
	"github.com/Destcable/API-cloud-storage/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"gorm.io/gorm"
)

// BlobStore is the byte-storage backend addressed by a generated storage key.
// *storage.MinIOClient satisfies it in production.
type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}

// FileRegistry owns File rows and their backing blobs. Every mutation takes
// the caller id explicitly; nothing here reads ambient request state.
type FileRegistry struct {
	DB     *gorm.DB
	Blobs  BlobStore
	Ledger *AccessLedger
	Upload config.UploadConfig
}

func NewFileRegistry(db *gorm.DB, blobs BlobStore, ledger *AccessLedger, upload config.UploadConfig) *FileRegistry {
	return &FileRegistry{DB: db, Blobs: blobs, Ledger: ledger, Upload: upload}
}

// Create validates the upload, writes the blob, then inserts the File row and
// its author access row in one transaction. The blob write comes first so a
// failed transaction can only ever leave an unreferenced blob, which the
// compensating delete removes; a File row without a backing blob is impossible.
func (r *FileRegistry) Create(ctx context.Context, ownerID uuid.UUID, filename string, size int64, contentType string, reader io.Reader) (*models.File, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, &ValidationError{Field: "files", Message: "invalid filename"}
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !r.extensionAllowed(extension) {
		return nil, &ValidationError{Field: "files", Message: fmt.Sprintf("file extension %q is not allowed", extension)}
	}

	if size > r.Upload.MaxSizeBytes {
		return nil, &ValidationError{Field: "files", Message: fmt.Sprintf("file size exceeds %d bytes", r.Upload.MaxSizeBytes)}
	}

	fileKey := xid.New().String()
	storagePath := fmt.Sprintf("%s/%s/%s", ownerID.String(), fileKey, filename)

	if err := r.Blobs.Put(ctx, storagePath, reader, size, contentType); err != nil {
		return nil, &StorageError{Op: "put", Err: err}
	}

	file := models.File{
		FileKey:     fileKey,
		Name:        filename,
		MimeType:    contentType,
		Size:        size,
		StoragePath: storagePath,
		OwnerID:     ownerID,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&file).Error; err != nil {
			return err
		}
		author := models.FileAccess{
			FileKey: fileKey,
			UserID:  ownerID,
			Role:    models.AccessRoleAuthor,
		}
		return tx.Create(&author).Error
	})
	if err != nil {
		if delErr := r.Blobs.Delete(ctx, storagePath); delErr != nil {
			logger.Error("orphaned_blob_cleanup_failed", delErr, map[string]interface{}{
				"storage_path": storagePath,
			})
		}
		return nil, err
	}

	return &file, nil
}

// Rename updates the display name. Owner only.
func (r *FileRegistry) Rename(ctx context.Context, fileKey string, callerID uuid.UUID, newName string) (*models.File, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}

	file, err := r.findByKey(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != callerID {
		return nil, ErrForbidden
	}

	if err := r.DB.WithContext(ctx).Model(&models.File{}).Where("file_key = ?", fileKey).Update("name", newName).Error; err != nil {
		return nil, err
	}

	file.Name = newName
	return file, nil
}

// Delete removes the blob, every access row and the File row. The blob goes
// first; the rows go together in one transaction so no reader can observe an
// access row for a deleted file or a File row pointing at missing bytes.
func (r *FileRegistry) Delete(ctx context.Context, fileKey string, callerID uuid.UUID) error {
	file, err := r.findByKey(ctx, fileKey)
	if err != nil {
		return err
	}
	if file.OwnerID != callerID {
		return ErrForbidden
	}

	if err := r.Blobs.Delete(ctx, file.StoragePath); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_key = ?", file.FileKey).Delete(&models.FileAccess{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.File{}, "file_key = ?", file.FileKey).Error
	})
}

// Download returns the file metadata and a reader over its bytes. The caller
// must hold any access role on the file, author or co-author.
func (r *FileRegistry) Download(ctx context.Context, fileKey string, callerID uuid.UUID) (*models.File, io.ReadCloser, int64, error) {
	file, err := r.findByKey(ctx, fileKey)
	if err != nil {
		return nil, nil, 0, err
	}

	if !r.Ledger.HasAccess(ctx, file.FileKey, callerID) {
		return nil, nil, 0, ErrForbidden
	}

	reader, size, err := r.Blobs.Get(ctx, file.StoragePath)
	if err != nil {
		return nil, nil, 0, &StorageError{Op: "get", Err: err}
	}

	return file, reader, size, nil
}

// ListForUser returns every file the user holds an access row for, own
// uploads and co-authored files alike, newest first.
func (r *FileRegistry) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := r.DB.WithContext(ctx).
		Joins("JOIN file_accesses ON file_accesses.file_key = files.file_key AND file_accesses.user_id = ?", userID).
		Order("files.created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *FileRegistry) findByKey(ctx context.Context, fileKey string) (*models.File, error) {
	var file models.File
	if err := r.DB.WithContext(ctx).First(&file, "file_key = ?", fileKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileKey, ErrNotFound)
		}
		return nil, err
	}
	return &file, nil
}

func (r *FileRegistry) extensionAllowed(extension string) bool {
	for _, allowed := range r.Upload.AllowedExtensions {
		if strings.EqualFold(extension, allowed) {
			return true
		}
	}
	return false
}
