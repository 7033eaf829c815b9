// internal/model/asset.go
package model

import "time"

// Asset file types
const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
	FileTypeAudio = "audio"
	FileTypeOther = "other"
)

type AssetLibrary struct {
	ID     int    `db:"id" json:"id"`
	UserID int    `db:"user_id" json:"user_id"`
	Name   string `db:"name" json:"name"`
}

type Asset struct {
	ID         int        `db:"id" json:"id"`
	LibraryID  int        `db:"library_id" json:"library_id"`
	Name       string     `db:"name" json:"name"`
	FileType   string     `db:"file_type" json:"file_type"`
	FilePath   string     `db:"file_path" json:"file_path"`
	IsUsedByAI bool       `db:"is_used_by_ai" json:"is_used_by_ai"`
	UsedAt     *time.Time `db:"used_at" json:"used_at,omitempty"`
	UsageCount int        `db:"usage_count" json:"usage_count"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
