package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chioma-app/api/internal/database"
	"github.com/chioma-app/api/internal/models"
)

const fileMetadataColumns = `id, file_name, file_size, file_type, s3_key, owner_id, created_at, updated_at`

type FileMetadataRepository struct {
	db database.Querier
}

func NewFileMetadataRepository(db database.Querier) *FileMetadataRepository {
	return &FileMetadataRepository{db: db}
}

func scanFileMetadataRow(scanner rowScanner) (*models.FileMetadata, error) {
	var f models.FileMetadata

	err := scanner.Scan(
		&f.ID, &f.FileName, &f.FileSize, &f.FileType, &f.S3Key, &f.OwnerID,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &f, nil
}

func (r *FileMetadataRepository) GetByID(ctx context.Context, id string) (*models.FileMetadata, error) {
	query := `SELECT ` + fileMetadataColumns + ` FROM file_metadata WHERE id = $1`
	return scanFileMetadataRow(r.db.QueryRow(ctx, query, id))
}

func (r *FileMetadataRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.FileMetadata, error) {
	query := `SELECT ` + fileMetadataColumns + ` FROM file_metadata
		WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query file metadata: %w", err)
	}
	defer rows.Close()

	files := make([]*models.FileMetadata, 0)
	for rows.Next() {
		file, err := scanFileMetadataRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file metadata: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file metadata: %w", err)
	}

	return files, nil
}

func (r *FileMetadataRepository) Create(ctx context.Context, file *models.FileMetadata) (*models.FileMetadata, error) {
	file.ID = uuid.New().String()

	now := time.Now()
	file.CreatedAt = now
	file.UpdatedAt = now

	query := `
		INSERT INTO file_metadata (id, file_name, file_size, file_type, s3_key, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + fileMetadataColumns

	return scanFileMetadataRow(r.db.QueryRow(ctx, query,
		file.ID, file.FileName, file.FileSize, file.FileType, file.S3Key,
		file.OwnerID, file.CreatedAt, file.UpdatedAt,
	))
}

func (r *FileMetadataRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM file_metadata WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
