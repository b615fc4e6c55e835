package db

import (
	"context"

	"github.com/tphummel/ict_assets/internal/models"
)

const replacementColumns = `id, original_asset_serial, replacement_asset_serial, maintenance_ticket_id,
	replacement_reason, replacement_date, deployed_to_user, deployed_location, deployed_department,
	status, created_at, updated_at`

// CreateReplacement records that one asset replaced another.
func (d *DB) CreateReplacement(ctx context.Context, r *models.AssetReplacement) error {
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO asset_replacements (`+replacementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OriginalSerial, r.ReplacementSerial, r.TicketID,
		r.Reason, formatTime(r.ReplacementDate), r.DeployedToHolder, r.DeployedLocation, r.DeployedDepartment,
		r.Status, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return conflict(err, "replacement %s already exists", r.ID)
}

// ListReplacements returns replacement records, newest first. A non-empty
// serial matches either side of the replacement.
func (d *DB) ListReplacements(ctx context.Context, serial string) ([]*models.AssetReplacement, error) {
	var (
		conds []string
		args  []any
	)
	if serial != "" {
		conds = append(conds, "(original_asset_serial = ? OR replacement_asset_serial = ?)")
		args = append(args, serial, serial)
	}
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+replacementColumns+` FROM asset_replacements`+where(conds)+` ORDER BY replacement_date DESC, rowid DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AssetReplacement
	for rows.Next() {
		var r models.AssetReplacement
		var date, createdAt, updatedAt string
		if err := rows.Scan(
			&r.ID, &r.OriginalSerial, &r.ReplacementSerial, &r.TicketID,
			&r.Reason, &date, &r.DeployedToHolder, &r.DeployedLocation, &r.DeployedDepartment,
			&r.Status, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		if r.ReplacementDate, err = parseTime("replacement_date", date); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if r.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
