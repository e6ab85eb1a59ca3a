package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Destcable/API-cloud-storage/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessLedger owns FileAccess rows. Grants are keyed by email at the API
// surface but resolved to a stable user id here, exactly once; rows never
// store emails. All mutations are owner-only and the single author row per
// file is out of reach of this API entirely.
type AccessLedger struct {
	DB *gorm.DB
}

func NewAccessLedger(db *gorm.DB) *AccessLedger {
	return &AccessLedger{DB: db}
}

// Grant gives targetEmail's user co-author access to fileKey. Granting an
// already-granted user is a no-op; both return the full access list in
// insertion order.
func (l *AccessLedger) Grant(ctx context.Context, fileKey string, callerID uuid.UUID, targetEmail string) ([]models.FileAccess, error) {
	var file models.File
	if err := l.DB.WithContext(ctx).First(&file, "file_key = ?", fileKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileKey, ErrNotFound)
		}
		return nil, err
	}

	if file.OwnerID != callerID {
		return nil, ErrForbidden
	}

	var target models.User
	if err := l.DB.WithContext(ctx).First(&target, "email = ?", targetEmail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", targetEmail, ErrNotFound)
		}
		return nil, err
	}

	access := models.FileAccess{
		FileKey: file.FileKey,
		UserID:  target.ID,
		Role:    models.AccessRoleCoAuthor,
	}
	if err := l.DB.WithContext(ctx).Create(&access).Error; err != nil {
		// The unique index on (file_key, user_id) means the grant already
		// exists, whether from an earlier call or a concurrent one. Either
		// way the desired row is there.
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}

	return l.ListAccess(ctx, file.FileKey)
}

// Revoke removes targetEmail's co-author access to fileKey. An owner may
// never revoke their own authorship here; that only happens via file deletion.
func (l *AccessLedger) Revoke(ctx context.Context, fileKey string, callerID uuid.UUID, targetEmail string) ([]models.FileAccess, error) {
	var file models.File
	if err := l.DB.WithContext(ctx).First(&file, "file_key = ?", fileKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileKey, ErrNotFound)
		}
		return nil, err
	}

	if file.OwnerID != callerID {
		return nil, ErrForbidden
	}

	var caller models.User
	if err := l.DB.WithContext(ctx).First(&caller, "id = ?", callerID).Error; err != nil {
		return nil, err
	}
	if targetEmail == caller.Email {
		return nil, ErrSelfRevocation
	}

	var target models.User
	if err := l.DB.WithContext(ctx).First(&target, "email = ?", targetEmail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", targetEmail, ErrNotFound)
		}
		return nil, err
	}

	result := l.DB.WithContext(ctx).
		Where("file_key = ? AND user_id = ?", file.FileKey, target.ID).
		Delete(&models.FileAccess{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("access for %s: %w", targetEmail, ErrNotFound)
	}

	return l.ListAccess(ctx, file.FileKey)
}

// ListAccess returns every access row for fileKey in insertion order, author
// first since it is created with the file itself.
func (l *AccessLedger) ListAccess(ctx context.Context, fileKey string) ([]models.FileAccess, error) {
	var accesses []models.FileAccess
	err := l.DB.WithContext(ctx).
		Preload("User").
		Where("file_key = ?", fileKey).
		Order("created_at ASC").
		Find(&accesses).Error
	if err != nil {
		return nil, err
	}
	return accesses, nil
}

// HasAccess reports whether userID holds any role on fileKey.
func (l *AccessLedger) HasAccess(ctx context.Context, fileKey string, userID uuid.UUID) bool {
	var count int64
	err := l.DB.WithContext(ctx).
		Model(&models.FileAccess{}).
		Where("file_key = ? AND user_id = ?", fileKey, userID).
		Count(&count).Error
	return err == nil && count > 0
}
