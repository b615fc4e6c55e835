package db

import (
	"context"
	"database/sql"

	"github.com/tphummel/ict_assets/internal/models"
)

const actionColumns = `id, action_type, deployment_type, primary_asset_serial, secondary_asset_serial,
	asset_pair_type, pair_id,
	from_holder, from_domain_account, from_location, from_department, from_section,
	to_holder, to_domain_account, to_location, to_department, to_section,
	requested_by, status, request_date, completion_date, comments, movement_form_path`

// CreateAction inserts a lifecycle action record.
func (d *DB) CreateAction(ctx context.Context, a *models.LifecycleAction) error {
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO lifecycle_actions (`+actionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ActionType, a.DeploymentType, a.PrimarySerial, a.SecondarySerial,
		a.PairType, a.PairID,
		a.From.Holder, a.From.DomainAccount, a.From.Location, a.From.Department, a.From.Section,
		a.To.Holder, a.To.DomainAccount, a.To.Location, a.To.Department, a.To.Section,
		a.RequestedBy, a.Status, formatTime(a.RequestDate), nullTime(a.CompletionDate),
		a.Comments, a.MovementFormPath,
	)
	return conflict(err, "lifecycle action %s already exists", a.ID)
}

// GetAction returns the lifecycle action with the given ID.
func (d *DB) GetAction(ctx context.Context, id string) (*models.LifecycleAction, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM lifecycle_actions WHERE id = ?`, id)
	a, err := scanAction(row)
	return a, notFound(err, "lifecycle action")
}

// ListActions returns lifecycle actions, newest first, optionally filtered by
// status.
func (d *DB) ListActions(ctx context.Context, status models.ActionStatus) ([]*models.LifecycleAction, error) {
	var (
		conds []string
		args  []any
	)
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+actionColumns+` FROM lifecycle_actions`+where(conds)+` ORDER BY request_date DESC, rowid DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*models.LifecycleAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// UpdateAction stores the completion state, snapshots, pair link and
// movement form path of a.ID. The requested fields are immutable.
func (d *DB) UpdateAction(ctx context.Context, a *models.LifecycleAction) error {
	res, err := d.q.ExecContext(ctx, `
		UPDATE lifecycle_actions
		SET pair_id=?,
			from_holder=?, from_domain_account=?, from_location=?, from_department=?, from_section=?,
			to_holder=?, to_domain_account=?, to_location=?, to_department=?, to_section=?,
			status=?, completion_date=?, movement_form_path=?
		WHERE id=?`,
		a.PairID,
		a.From.Holder, a.From.DomainAccount, a.From.Location, a.From.Department, a.From.Section,
		a.To.Holder, a.To.DomainAccount, a.To.Location, a.To.Department, a.To.Section,
		a.Status, nullTime(a.CompletionDate), a.MovementFormPath,
		a.ID,
	)
	if err != nil {
		return err
	}
	return mustAffect(res, "lifecycle action")
}

func scanAction(s scanner) (*models.LifecycleAction, error) {
	var a models.LifecycleAction
	var requested string
	var completed sql.NullString
	if err := s.Scan(
		&a.ID, &a.ActionType, &a.DeploymentType, &a.PrimarySerial, &a.SecondarySerial,
		&a.PairType, &a.PairID,
		&a.From.Holder, &a.From.DomainAccount, &a.From.Location, &a.From.Department, &a.From.Section,
		&a.To.Holder, &a.To.DomainAccount, &a.To.Location, &a.To.Department, &a.To.Section,
		&a.RequestedBy, &a.Status, &requested, &completed, &a.Comments, &a.MovementFormPath,
	); err != nil {
		return nil, err
	}
	var err error
	if a.RequestDate, err = parseTime("request_date", requested); err != nil {
		return nil, err
	}
	if a.CompletionDate, err = parseNullTime("completion_date", completed); err != nil {
		return nil, err
	}
	return &a, nil
}
