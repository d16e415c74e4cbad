package models

import "time"

// FileMetadata records an uploaded document (lease agreements, receipts).
// The object body lives in S3; only the metadata row is owned here.
type FileMetadata struct {
	ID        string
	FileName  string
	FileSize  int64
	FileType  string
	S3Key     string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
