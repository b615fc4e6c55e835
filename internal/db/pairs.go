package db

import (
	"context"

	"github.com/tphummel/ict_assets/internal/models"
)

const pairColumns = `id, primary_asset_id, secondary_asset_id, pair_type, is_deployed,
	current_holder, current_domain_account, current_location, current_department, current_section,
	created_at, updated_at`

// CreatePair inserts a new asset pair. An asset already used by another pair
// yields an already-exists error.
func (d *DB) CreatePair(ctx context.Context, p *models.AssetPair) error {
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO asset_pairs (`+pairColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PrimaryAssetID, p.SecondaryAssetID, p.PairType, boolInt(p.IsDeployed),
		p.CurrentHolder, p.CurrentAccount, p.CurrentLocation, p.CurrentDepartment, p.CurrentSection,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	return conflict(err, "an asset in pair %s already belongs to another pair", p.ID)
}

// GetPair returns the pair with the given ID.
func (d *DB) GetPair(ctx context.Context, id string) (*models.AssetPair, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+pairColumns+` FROM asset_pairs WHERE id = ?`, id)
	p, err := scanPair(row)
	return p, notFound(err, "pair")
}

// ListPairs returns all pairs, newest first.
func (d *DB) ListPairs(ctx context.Context) ([]*models.AssetPair, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT `+pairColumns+` FROM asset_pairs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []*models.AssetPair
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// UpdatePair replaces the members, deployed flag and snapshot of p.ID.
func (d *DB) UpdatePair(ctx context.Context, p *models.AssetPair) error {
	res, err := d.q.ExecContext(ctx, `
		UPDATE asset_pairs
		SET primary_asset_id=?, secondary_asset_id=?, pair_type=?, is_deployed=?,
			current_holder=?, current_domain_account=?, current_location=?, current_department=?, current_section=?,
			updated_at=?
		WHERE id=?`,
		p.PrimaryAssetID, p.SecondaryAssetID, p.PairType, boolInt(p.IsDeployed),
		p.CurrentHolder, p.CurrentAccount, p.CurrentLocation, p.CurrentDepartment, p.CurrentSection,
		formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return conflict(err, "an asset in pair %s already belongs to another pair", p.ID)
	}
	return mustAffect(res, "pair")
}

// DeletePair removes the pair with the given ID.
func (d *DB) DeletePair(ctx context.Context, id string) error {
	res, err := d.q.ExecContext(ctx, `DELETE FROM asset_pairs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, "pair")
}

// CountPairs returns the total number of pairs and how many are deployed.
func (d *DB) CountPairs(ctx context.Context) (total, deployed int, err error) {
	err = d.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_deployed), 0) FROM asset_pairs`).Scan(&total, &deployed)
	return total, deployed, err
}

func scanPair(s scanner) (*models.AssetPair, error) {
	var p models.AssetPair
	var deployed int
	var createdAt, updatedAt string
	if err := s.Scan(
		&p.ID, &p.PrimaryAssetID, &p.SecondaryAssetID, &p.PairType, &deployed,
		&p.CurrentHolder, &p.CurrentAccount, &p.CurrentLocation, &p.CurrentDepartment, &p.CurrentSection,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	p.IsDeployed = deployed != 0
	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
