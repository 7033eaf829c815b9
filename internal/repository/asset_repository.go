package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/model"
)

type AssetRepositoryInterface interface {
	CreateLibrary(lib *model.AssetLibrary) error
	Create(a *model.Asset) error
	GetByID(id int) (*model.Asset, error)
	ListByLibrary(libraryID int) ([]*model.Asset, error)
	ListUnusedByLibrary(libraryID int) ([]*model.Asset, error)
	CountUnusedByLibrary(libraryID int) (int, error)
	MarkUsed(assetID int) error
	ResetUsage(assetID int) error
	ListUsedByCampaign(campaignID int) ([]int, error)
	UsageStats(libraryID int) (map[string]int, error)
}

type AssetRepository struct {
	DB *sql.DB
}

func (r *AssetRepository) CreateLibrary(lib *model.AssetLibrary) error {
	query := `INSERT INTO asset_libraries (user_id, name) VALUES ($1, $2) RETURNING id`
	return r.DB.QueryRow(query, lib.UserID, lib.Name).Scan(&lib.ID)
}

func (r *AssetRepository) Create(a *model.Asset) error {
	a.CreatedAt = time.Now()
	query := `
        INSERT INTO assets (library_id, name, file_type, file_path, is_used_by_ai, usage_count, created_at)
        VALUES ($1, $2, $3, $4, false, 0, $5)
        RETURNING id
    `
	return r.DB.QueryRow(query, a.LibraryID, a.Name, a.FileType, a.FilePath, a.CreatedAt).Scan(&a.ID)
}

const assetColumns = `id, library_id, name, file_type, file_path, is_used_by_ai, used_at, usage_count, created_at`

func (r *AssetRepository) GetByID(id int) (*model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id=$1`
	var a model.Asset
	err := r.DB.QueryRow(query, id).Scan(&a.ID, &a.LibraryID, &a.Name, &a.FileType, &a.FilePath,
		&a.IsUsedByAI, &a.UsedAt, &a.UsageCount, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewAssetNotFound(id)
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepository) ListByLibrary(libraryID int) ([]*model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE library_id=$1 ORDER BY id`
	return r.list(query, libraryID)
}

// ListUnusedByLibrary returns assets not yet consumed by generation.
// Assets without a file are never candidates.
func (r *AssetRepository) ListUnusedByLibrary(libraryID int) ([]*model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets
        WHERE library_id=$1 AND is_used_by_ai=false AND file_path <> '' ORDER BY id`
	return r.list(query, libraryID)
}

func (r *AssetRepository) list(query string, args ...interface{}) ([]*model.Asset, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := []*model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.LibraryID, &a.Name, &a.FileType, &a.FilePath,
			&a.IsUsedByAI, &a.UsedAt, &a.UsageCount, &a.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *AssetRepository) CountUnusedByLibrary(libraryID int) (int, error) {
	query := `SELECT COUNT(*) FROM assets WHERE library_id=$1 AND is_used_by_ai=false AND file_path <> ''`
	var count int
	err := r.DB.QueryRow(query, libraryID).Scan(&count)
	return count, err
}

// MarkUsed flags the asset consumed and bumps usage_count. Safe to call on an
// already-used asset; the count just increments further.
func (r *AssetRepository) MarkUsed(assetID int) error {
	query := `UPDATE assets SET is_used_by_ai=true, used_at=NOW(), usage_count=usage_count+1 WHERE id=$1`
	res, err := r.DB.Exec(query, assetID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewAssetNotFound(assetID)
	}
	return nil
}

func (r *AssetRepository) ResetUsage(assetID int) error {
	query := `UPDATE assets SET is_used_by_ai=false, used_at=NULL, usage_count=0 WHERE id=$1`
	res, err := r.DB.Exec(query, assetID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewAssetNotFound(assetID)
	}
	return nil
}

// ListUsedByCampaign returns the IDs of assets linked to any post of the
// campaign, for bulk usage resets.
func (r *AssetRepository) ListUsedByCampaign(campaignID int) ([]int, error) {
	query := `SELECT pa.asset_id FROM post_assets pa WHERE pa.campaign_id=$1`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AssetRepository) UsageStats(libraryID int) (map[string]int, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE is_used_by_ai),
               COALESCE(SUM(usage_count), 0)
        FROM assets WHERE library_id=$1
    `
	var total, used, totalUsage int
	if err := r.DB.QueryRow(query, libraryID).Scan(&total, &used, &totalUsage); err != nil {
		return nil, err
	}

	return map[string]int{
		"total_assets":      total,
		"used_assets":       used,
		"unused_assets":     total - used,
		"total_usage_count": totalUsage,
	}, nil
}

var _ AssetRepositoryInterface = (*AssetRepository)(nil)
