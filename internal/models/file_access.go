package models

import "github.com/google/uuid"

type AccessRole string

const (
	AccessRoleAuthor   AccessRole = "author"
	AccessRoleCoAuthor AccessRole = "co-author"
)

// FileAccess records that UserID may access FileKey with Role. At most one row
// exists per (file_key, user_id); the composite unique index backs the
// idempotent grant path under concurrent requests. The single author row is
// created in the same transaction as the File and only ever removed by the
// file-deletion cascade.
type FileAccess struct {
	BaseModel
	FileKey string     `json:"fileKey" gorm:"type:varchar(40);not null;uniqueIndex:idx_file_accesses_file_user"`
	UserID  uuid.UUID  `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_file_accesses_file_user"`
	Role    AccessRole `json:"role" gorm:"type:varchar(20);not null;default:'co-author'"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (FileAccess) TableName() string {
	return "file_accesses"
}
