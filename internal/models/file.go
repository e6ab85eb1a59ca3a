package models

import "github.com/google/uuid"

// File is the metadata record for one uploaded blob. FileKey is the public
// identifier handed to clients; it is generated at upload time and is not the
// database row id. OwnerID is set once at creation and never changes.
type File struct {
	BaseModel
	FileKey     string    `json:"fileKey" gorm:"type:varchar(40);uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	MimeType    string    `json:"mimeType" gorm:"type:varchar(255);not null"`
	Size        int64     `json:"size" gorm:"not null;default:0"`
	StoragePath string    `json:"-" gorm:"type:text;not null"`
	OwnerID     uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;index"`

	Owner    User         `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Accesses []FileAccess `json:"-" gorm:"foreignKey:FileKey;references:FileKey"`
}
