package db

import (
	"context"

	"github.com/tphummel/ict_assets/internal/models"
)

const holderColumns = `id, full_name, domain_account, location, department, section, is_active, created_at, updated_at`

// CreateHolder inserts a person assets can be deployed to.
func (d *DB) CreateHolder(ctx context.Context, h *models.Holder) error {
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO holders (`+holderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.FullName, h.DomainAccount, h.Location, h.Department, h.Section,
		boolInt(h.IsActive), formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
	)
	return conflict(err, "a holder with domain account %s already exists", h.DomainAccount)
}

// GetHolderByAccount returns the holder with the given domain account.
func (d *DB) GetHolderByAccount(ctx context.Context, account string) (*models.Holder, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+holderColumns+` FROM holders WHERE domain_account = ?`, account)
	h, err := scanHolder(row)
	return h, notFound(err, "holder")
}

// ListHolders returns active holders ordered by name.
func (d *DB) ListHolders(ctx context.Context) ([]*models.Holder, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT `+holderColumns+` FROM holders WHERE is_active = 1 ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holders []*models.Holder
	for rows.Next() {
		h, err := scanHolder(rows)
		if err != nil {
			return nil, err
		}
		holders = append(holders, h)
	}
	return holders, rows.Err()
}

func scanHolder(s scanner) (*models.Holder, error) {
	var h models.Holder
	var active int
	var createdAt, updatedAt string
	if err := s.Scan(&h.ID, &h.FullName, &h.DomainAccount, &h.Location, &h.Department, &h.Section,
		&active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	h.IsActive = active != 0
	var err error
	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}
