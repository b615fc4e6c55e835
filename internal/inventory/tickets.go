package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/lifecycle"
	"github.com/tphummel/ict_assets/internal/models"
)

// TicketInput opens a maintenance ticket against one asset.
type TicketInput struct {
	AssetSerial string
	Title       string
	Description string
	Category    models.TicketCategory
	Priority    models.TicketPriority
	AssignedTo  string
}

// OpenTicket records a maintenance ticket and puts the asset under
// maintenance.
func (s *Service) OpenTicket(ctx context.Context, actor string, in TicketInput) (*models.MaintenanceTicket, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if in.Category == "" {
		in.Category = models.CategoryHardware
	}
	if !models.ValidCategories[in.Category] {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid category %q", in.Category)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !models.ValidPriorities[in.Priority] {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid priority %q", in.Priority)
	}

	var out *models.MaintenanceTicket
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		a, err := tx.GetAssetBySerial(ctx, strings.TrimSpace(in.AssetSerial))
		if err != nil {
			return err
		}
		now := s.now()
		next, err := lifecycle.OpenTicket(a, now)
		if err != nil {
			return err
		}
		t := &models.MaintenanceTicket{
			ID:               s.ids(),
			AssetID:          a.ID,
			AssetSerial:      a.SerialNumber,
			AssetType:        a.Type,
			Title:            in.Title,
			Description:      strings.TrimSpace(in.Description),
			Category:         in.Category,
			Priority:         in.Priority,
			Status:           models.TicketOpen,
			ReportedBy:       actor,
			AssignedTo:       strings.TrimSpace(in.AssignedTo),
			DateReceived:     now,
			PriorAssetStatus: a.Status,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.UpdateAsset(ctx, next); err != nil {
			return err
		}
		if err := tx.CreateTicket(ctx, t); err != nil {
			return err
		}
		out = t
		return s.audit(ctx, tx, actor, now, models.AuditLog{
			AssetSerial: a.SerialNumber,
			PairID:      a.PairID,
			Action:      lifecycle.AuditMaintenanceOpened,
			Details:     fmt.Sprintf("Maintenance ticket %q opened (%s, %s)", t.Title, t.Category, t.Priority),
			OldValues:   lifecycle.MustJSON(map[string]any{"status": string(a.Status)}),
			NewValues: lifecycle.MustJSON(map[string]any{
				"status":    string(next.Status),
				"ticket_id": t.ID,
				"priority":  string(t.Priority),
			}),
		})
	})
	if err != nil {
		logRejection("open ticket", err, "serial", in.AssetSerial)
		return nil, err
	}
	return out, nil
}

// UpdateTicketStatus moves a ticket Open → In Progress or Resolved → Closed.
func (s *Service) UpdateTicketStatus(ctx context.Context, actor, id string, to models.TicketStatus) (*models.MaintenanceTicket, error) {
	var out *models.MaintenanceTicket
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		t, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckTicketTransition(t.Status, to); err != nil {
			return err
		}
		from := t.Status
		now := s.now()
		t.Status = to
		t.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		out = t
		return s.audit(ctx, tx, actor, now, models.AuditLog{
			AssetSerial: t.AssetSerial,
			Action:      lifecycle.AuditTicketStatus,
			Details:     fmt.Sprintf("Maintenance ticket %q moved from %s to %s", t.Title, from, to),
			OldValues:   lifecycle.MustJSON(map[string]any{"ticket_status": string(from)}),
			NewValues:   lifecycle.MustJSON(map[string]any{"ticket_status": string(to), "ticket_id": t.ID}),
		})
	})
	if err != nil {
		logRejection("ticket status", err, "id", id)
		return nil, err
	}
	return out, nil
}

// ResolveTicket closes out repair work. An obsolete outcome may name a
// replacement asset, which takes over the original's placement.
func (s *Service) ResolveTicket(ctx context.Context, actor, id string, in lifecycle.Resolution) (*models.MaintenanceTicket, error) {
	var out *models.MaintenanceTicket
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		st, err := s.loadResolution(ctx, tx, id, strings.TrimSpace(in.ReplacementSerial))
		if err != nil {
			return err
		}
		now := s.now()
		plan, err := lifecycle.Resolve(in, st, now)
		if err != nil {
			return err
		}

		if plan.DissolvePair {
			if err := tx.DeletePair(ctx, st.Pair.ID); err != nil {
				return err
			}
			if plan.Partner != nil {
				if err := tx.UpdateAsset(ctx, plan.Partner); err != nil {
					return err
				}
			}
		}
		if plan.Pair != nil {
			if err := tx.UpdatePair(ctx, plan.Pair); err != nil {
				return err
			}
		}
		if err := tx.UpdateAsset(ctx, plan.Asset); err != nil {
			return err
		}
		if plan.Replacement != nil {
			if err := tx.UpdateAsset(ctx, plan.Replacement); err != nil {
				return err
			}
		}
		if plan.Record != nil {
			plan.Record.ID = s.ids()
			if err := tx.CreateReplacement(ctx, plan.Record); err != nil {
				return err
			}
		}
		if err := tx.UpdateTicket(ctx, plan.Ticket); err != nil {
			return err
		}
		for _, entry := range plan.Audit {
			if err := s.audit(ctx, tx, actor, now, entry); err != nil {
				return err
			}
		}
		out = plan.Ticket
		return nil
	})
	if err != nil {
		logRejection("resolve ticket", err, "id", id)
		return nil, err
	}
	return out, nil
}

func (s *Service) loadResolution(ctx context.Context, tx *db.DB, id, replacementSerial string) (lifecycle.ResolutionState, error) {
	var st lifecycle.ResolutionState
	t, err := tx.GetTicket(ctx, id)
	if err != nil {
		return st, err
	}
	st.Ticket = t
	if st.Asset, err = tx.GetAsset(ctx, t.AssetID); err != nil {
		return st, fmt.Errorf("load ticket asset: %w", err)
	}
	if pairID := st.Asset.PairID; pairID != "" {
		if st.Pair, err = tx.GetPair(ctx, pairID); err != nil {
			return st, err
		}
		partnerID := st.Pair.PrimaryAssetID
		if partnerID == st.Asset.ID {
			partnerID = st.Pair.SecondaryAssetID
		}
		if st.Partner, err = tx.GetAsset(ctx, partnerID); err != nil {
			return st, fmt.Errorf("load pair member %s: %w", partnerID, err)
		}
	}
	if replacementSerial != "" {
		r, err := tx.GetAssetBySerial(ctx, replacementSerial)
		if err != nil && apperrors.CodeOf(err) != apperrors.CodeNotFound {
			return st, err
		}
		st.Replacement = r
	}
	return st, nil
}
