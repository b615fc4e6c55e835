package db

import (
	"context"
	"encoding/json"

	"github.com/tphummel/ict_assets/internal/models"
)

// DefaultAuditLimit caps ListAudit when the caller asks for no limit.
const DefaultAuditLimit = 100

// AuditFilter narrows ListAudit.
type AuditFilter struct {
	AssetSerial string
	Limit       int
}

// AppendAudit inserts one audit record. There is no update or delete; the
// table rejects both.
func (d *DB) AppendAudit(ctx context.Context, l *models.AuditLog) error {
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO audit_logs (id, asset_serial, pair_id, action, performed_by, timestamp, details, old_values, new_values)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.AssetSerial, l.PairID, l.Action, l.PerformedBy, formatTime(l.Timestamp), l.Details,
		string(l.OldValues), string(l.NewValues),
	)
	return err
}

// ListAudit returns audit records matching f, newest first.
func (d *DB) ListAudit(ctx context.Context, f AuditFilter) ([]*models.AuditLog, error) {
	var (
		conds []string
		args  []any
	)
	if f.AssetSerial != "" {
		conds = append(conds, "asset_serial = ?")
		args = append(args, f.AssetSerial)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	args = append(args, limit)

	rows, err := d.q.QueryContext(ctx, `
		SELECT id, asset_serial, pair_id, action, performed_by, timestamp, details, old_values, new_values
		FROM audit_logs`+where(conds)+` ORDER BY timestamp DESC, rowid DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		var ts, oldValues, newValues string
		if err := rows.Scan(&l.ID, &l.AssetSerial, &l.PairID, &l.Action, &l.PerformedBy, &ts, &l.Details,
			&oldValues, &newValues); err != nil {
			return nil, err
		}
		if l.Timestamp, err = parseTime("timestamp", ts); err != nil {
			return nil, err
		}
		if oldValues != "" {
			l.OldValues = json.RawMessage(oldValues)
		}
		if newValues != "" {
			l.NewValues = json.RawMessage(newValues)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
