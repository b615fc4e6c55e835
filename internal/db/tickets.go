package db

import (
	"context"
	"database/sql"

	"github.com/tphummel/ict_assets/internal/models"
)

const ticketColumns = `id, asset_id, asset_serial, asset_type, title, description, category, priority,
	status, reported_by, assigned_to, date_received, date_returned, resolution, cost,
	prior_asset_status, is_obsolete, obsolete_reason, obsolete_date,
	requires_replacement, replacement_asset_serial, created_at, updated_at`

// TicketFilter narrows ListTickets. Empty fields match everything.
type TicketFilter struct {
	Status  models.TicketStatus
	AssetID string
}

// CreateTicket inserts a maintenance ticket.
func (d *DB) CreateTicket(ctx context.Context, t *models.MaintenanceTicket) error {
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO maintenance_tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AssetID, t.AssetSerial, t.AssetType, t.Title, t.Description, t.Category, t.Priority,
		t.Status, t.ReportedBy, t.AssignedTo, formatTime(t.DateReceived), nullTime(t.DateReturned),
		t.Resolution, t.Cost,
		t.PriorAssetStatus, boolInt(t.IsObsolete), t.ObsoleteReason, nullTime(t.ObsoleteDate),
		boolInt(t.RequiresReplacement), t.ReplacementSerial,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	return conflict(err, "maintenance ticket %s already exists", t.ID)
}

// GetTicket returns the maintenance ticket with the given ID.
func (d *DB) GetTicket(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM maintenance_tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	return t, notFound(err, "maintenance ticket")
}

// ListTickets returns tickets matching f, newest first.
func (d *DB) ListTickets(ctx context.Context, f TicketFilter) ([]*models.MaintenanceTicket, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.AssetID != "" {
		conds = append(conds, "asset_id = ?")
		args = append(args, f.AssetID)
	}
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM maintenance_tickets`+where(conds)+` ORDER BY date_received DESC, rowid DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.MaintenanceTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateTicket replaces the mutable fields of t.ID.
func (d *DB) UpdateTicket(ctx context.Context, t *models.MaintenanceTicket) error {
	res, err := d.q.ExecContext(ctx, `
		UPDATE maintenance_tickets
		SET title=?, description=?, category=?, priority=?, status=?, assigned_to=?,
			date_returned=?, resolution=?, cost=?, is_obsolete=?, obsolete_reason=?, obsolete_date=?,
			requires_replacement=?, replacement_asset_serial=?, updated_at=?
		WHERE id=?`,
		t.Title, t.Description, t.Category, t.Priority, t.Status, t.AssignedTo,
		nullTime(t.DateReturned), t.Resolution, t.Cost, boolInt(t.IsObsolete), t.ObsoleteReason, nullTime(t.ObsoleteDate),
		boolInt(t.RequiresReplacement), t.ReplacementSerial, formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return err
	}
	return mustAffect(res, "maintenance ticket")
}

// CountOpenTickets returns the number of tickets not yet resolved.
func (d *DB) CountOpenTickets(ctx context.Context) (int, error) {
	var n int
	err := d.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM maintenance_tickets WHERE status IN (?, ?)`,
		models.TicketOpen, models.TicketInProgress).Scan(&n)
	return n, err
}

func scanTicket(s scanner) (*models.MaintenanceTicket, error) {
	var t models.MaintenanceTicket
	var obsolete, replace int
	var received, createdAt, updatedAt string
	var returned, obsoleteDate sql.NullString
	if err := s.Scan(
		&t.ID, &t.AssetID, &t.AssetSerial, &t.AssetType, &t.Title, &t.Description, &t.Category, &t.Priority,
		&t.Status, &t.ReportedBy, &t.AssignedTo, &received, &returned, &t.Resolution, &t.Cost,
		&t.PriorAssetStatus, &obsolete, &t.ObsoleteReason, &obsoleteDate,
		&replace, &t.ReplacementSerial, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	t.IsObsolete = obsolete != 0
	t.RequiresReplacement = replace != 0

	var err error
	if t.DateReceived, err = parseTime("date_received", received); err != nil {
		return nil, err
	}
	if t.DateReturned, err = parseNullTime("date_returned", returned); err != nil {
		return nil, err
	}
	if t.ObsoleteDate, err = parseNullTime("obsolete_date", obsoleteDate); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
