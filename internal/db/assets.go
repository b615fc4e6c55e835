package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/models"
)

const assetColumns = `id, asset_type, serial_number, brand, model, holder, domain_account,
	location, department, section, status, pair_id, version, created_at, updated_at`

// AssetFilter narrows ListAssets. Empty fields match everything.
type AssetFilter struct {
	Type   models.AssetType
	Status models.AssetStatus
	Serial string
}

// CreateAsset inserts a new asset record. A duplicate serial number yields an
// already-exists error.
func (d *DB) CreateAsset(ctx context.Context, a *models.Asset) error {
	if a.Version == 0 {
		a.Version = 1
	}
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Type, a.SerialNumber, a.Brand, a.Model, a.Holder, a.DomainAccount,
		a.Location, a.Department, a.Section, a.Status, a.PairID, a.Version,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	return conflict(err, "asset with serial number %q already exists", a.SerialNumber)
}

// GetAsset returns the asset with the given ID.
func (d *DB) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	return a, notFound(err, "asset")
}

// GetAssetBySerial returns the asset with the given serial number.
func (d *DB) GetAssetBySerial(ctx context.Context, serial string) (*models.Asset, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE serial_number = ?`, serial)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "asset "+serial+" not found", err)
	}
	return a, err
}

// ListAssets returns assets matching f, newest first.
func (d *DB) ListAssets(ctx context.Context, f AssetFilter) ([]*models.Asset, error) {
	var (
		conds []string
		args  []any
	)
	if f.Type != "" {
		conds = append(conds, "asset_type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Serial != "" {
		conds = append(conds, "serial_number LIKE ?")
		args = append(args, "%"+f.Serial+"%")
	}

	rows, err := d.q.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets`+where(conds)+` ORDER BY created_at DESC, rowid DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// UpdateAsset replaces all mutable fields for the asset with a.ID, provided
// the stored version still equals a.Version. On success a.Version is bumped.
// A stale version yields a conflict error.
func (d *DB) UpdateAsset(ctx context.Context, a *models.Asset) error {
	res, err := d.q.ExecContext(ctx, `
		UPDATE assets
		SET asset_type=?, serial_number=?, brand=?, model=?, holder=?, domain_account=?,
			location=?, department=?, section=?, status=?, pair_id=?, version=version+1, updated_at=?
		WHERE id=? AND version=?`,
		a.Type, a.SerialNumber, a.Brand, a.Model, a.Holder, a.DomainAccount,
		a.Location, a.Department, a.Section, a.Status, a.PairID,
		formatTime(a.UpdatedAt),
		a.ID, a.Version,
	)
	if err != nil {
		return conflict(err, "asset with serial number %q already exists", a.SerialNumber)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := d.GetAsset(ctx, a.ID); err != nil {
			return err
		}
		return apperrors.Newf(apperrors.CodeConflict,
			"asset %s was modified concurrently; reload and retry", a.SerialNumber)
	}
	a.Version++
	return nil
}

// DeleteAsset removes the asset with the given ID.
func (d *DB) DeleteAsset(ctx context.Context, id string) error {
	res, err := d.q.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, "asset")
}

// CountAssetsByStatus returns the number of assets in each status.
func (d *DB) CountAssetsByStatus(ctx context.Context) (map[models.AssetStatus]int, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM assets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.AssetStatus]int)
	for rows.Next() {
		var status models.AssetStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountAssetsByType returns the number of assets of each type.
func (d *DB) CountAssetsByType(ctx context.Context) (map[models.AssetType]int, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT asset_type, COUNT(*) FROM assets GROUP BY asset_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.AssetType]int)
	for rows.Next() {
		var typ models.AssetType
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

func scanAsset(s scanner) (*models.Asset, error) {
	var a models.Asset
	var createdAt, updatedAt string
	if err := s.Scan(
		&a.ID, &a.Type, &a.SerialNumber, &a.Brand, &a.Model, &a.Holder, &a.DomainAccount,
		&a.Location, &a.Department, &a.Section, &a.Status, &a.PairID, &a.Version,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
