package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/lifecycle"
	"github.com/tphummel/ict_assets/internal/models"
)

// ActionInput is a lifecycle action request.
type ActionInput struct {
	Action          models.ActionType
	Deployment      models.DeploymentType
	PairType        models.PairType
	PrimarySerial   string
	SecondarySerial string
	To              models.Snapshot
	Comments        string
	// Pending records the request after validation without applying it.
	Pending bool
}

// SubmitAction validates a lifecycle action and, unless in.Pending is set,
// applies it. The stored action is returned.
func (s *Service) SubmitAction(ctx context.Context, actor string, in ActionInput) (*models.LifecycleAction, error) {
	in.PrimarySerial = strings.TrimSpace(in.PrimarySerial)
	in.SecondarySerial = strings.TrimSpace(in.SecondarySerial)
	if in.PrimarySerial == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "primary_asset_serial is required")
	}

	var out *models.LifecycleAction
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		req, st, err := s.loadState(ctx, tx, in)
		if err != nil {
			return err
		}
		now := s.now()
		plan, err := lifecycle.Compute(req, st, now)
		if err != nil {
			return err
		}

		action := &models.LifecycleAction{
			ID:              s.ids(),
			ActionType:      req.Action,
			DeploymentType:  req.Deployment,
			PrimarySerial:   plan.Assets[0].SerialNumber,
			SecondarySerial: secondarySerial(plan),
			PairType:        req.PairType,
			From:            plan.From,
			To:              plan.To,
			RequestedBy:     actor,
			Comments:        strings.TrimSpace(in.Comments),
			RequestDate:     now,
		}
		if st.Pair != nil {
			action.PairID = st.Pair.ID
		}

		if in.Pending {
			action.Status = models.ActionPending
			if err := tx.CreateAction(ctx, action); err != nil {
				return err
			}
			out = action
			return s.audit(ctx, tx, actor, now, models.AuditLog{
				AssetSerial: action.PrimarySerial,
				PairID:      action.PairID,
				Action:      lifecycle.AuditActionRequested,
				Details:     fmt.Sprintf("%s requested for %s", action.ActionType, action.PrimarySerial),
				NewValues: lifecycle.MustJSON(map[string]any{
					"action_id":   action.ID,
					"action_type": string(action.ActionType),
					"status":      string(action.Status),
				}),
			})
		}

		if err := s.apply(ctx, tx, actor, plan, now); err != nil {
			return err
		}
		action.Status = models.ActionCompleted
		action.CompletionDate = &now
		if plan.Pair != nil {
			action.PairID = plan.Pair.ID
		}
		if err := tx.CreateAction(ctx, action); err != nil {
			return err
		}
		out = action
		return nil
	})
	if err != nil {
		logRejection("lifecycle action", err, "action", in.Action, "serial", in.PrimarySerial)
		return nil, err
	}
	return out, nil
}

// CompleteAction re-validates a pending action against current state and
// applies it.
func (s *Service) CompleteAction(ctx context.Context, actor, id string) (*models.LifecycleAction, error) {
	var out *models.LifecycleAction
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		action, err := tx.GetAction(ctx, id)
		if err != nil {
			return err
		}
		if action.Status != models.ActionPending {
			return apperrors.Newf(apperrors.CodeInvalidTransition, "lifecycle action %s is already %s", id, action.Status)
		}

		to := action.To
		if action.ActionType == models.ActionSurrender || action.ActionType == models.ActionExit {
			to = models.Snapshot{}
		}
		req, st, err := s.loadState(ctx, tx, ActionInput{
			Action:          action.ActionType,
			Deployment:      action.DeploymentType,
			PairType:        action.PairType,
			PrimarySerial:   action.PrimarySerial,
			SecondarySerial: action.SecondarySerial,
			To:              to,
		})
		if err != nil {
			return err
		}
		now := s.now()
		plan, err := lifecycle.Compute(req, st, now)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, tx, actor, plan, now); err != nil {
			return err
		}

		action.Status = models.ActionCompleted
		action.CompletionDate = &now
		action.From = plan.From
		action.To = plan.To
		if plan.Pair != nil {
			action.PairID = plan.Pair.ID
		}
		if err := tx.UpdateAction(ctx, action); err != nil {
			return err
		}
		out = action
		return nil
	})
	if err != nil {
		logRejection("complete lifecycle action", err, "id", id)
		return nil, err
	}
	return out, nil
}

// AttachMovementForm records the stored movement form path on an action.
func (s *Service) AttachMovementForm(ctx context.Context, actor, id, path string) (*models.LifecycleAction, error) {
	var out *models.LifecycleAction
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		action, err := tx.GetAction(ctx, id)
		if err != nil {
			return err
		}
		old := action.MovementFormPath
		action.MovementFormPath = path
		if err := tx.UpdateAction(ctx, action); err != nil {
			return err
		}
		out = action
		return s.audit(ctx, tx, actor, s.now(), models.AuditLog{
			AssetSerial: action.PrimarySerial,
			PairID:      action.PairID,
			Action:      lifecycle.AuditMovementFormStored,
			Details:     fmt.Sprintf("Movement form attached to %s of %s", action.ActionType, action.PrimarySerial),
			OldValues:   lifecycle.MustJSON(map[string]any{"movement_form_path": old}),
			NewValues:   lifecycle.MustJSON(map[string]any{"movement_form_path": path, "action_id": action.ID}),
		})
	})
	if err != nil {
		logRejection("attach movement form", err, "id", id)
		return nil, err
	}
	return out, nil
}

// apply writes plan: the pair first, then each member, then the audit entry.
func (s *Service) apply(ctx context.Context, tx *db.DB, actor string, plan *lifecycle.Plan, now time.Time) error {
	if plan.Pair != nil {
		if plan.CreatePair {
			plan.AssignPairID(s.ids())
			if err := tx.CreatePair(ctx, plan.Pair); err != nil {
				return err
			}
		} else if err := tx.UpdatePair(ctx, plan.Pair); err != nil {
			return err
		}
	}
	for _, a := range plan.Assets {
		if err := tx.UpdateAsset(ctx, a); err != nil {
			return err
		}
	}
	return s.audit(ctx, tx, actor, now, plan.Audit)
}

// loadState reads the assets and pair a request names. For pair actions
// other than deployments the secondary serial may be omitted; it is taken
// from the primary's pair.
func (s *Service) loadState(ctx context.Context, tx *db.DB, in ActionInput) (lifecycle.Request, lifecycle.State, error) {
	req := lifecycle.Request{
		Action:     in.Action,
		Deployment: in.Deployment,
		PairType:   in.PairType,
		To:         in.To,
	}
	var st lifecycle.State

	primary, err := tx.GetAssetBySerial(ctx, in.PrimarySerial)
	if err != nil {
		return req, st, err
	}
	st.Primary = primary
	if in.Deployment != models.DeploymentPair {
		return req, st, nil
	}

	if in.SecondarySerial == "" {
		if primary.PairID == "" {
			return req, st, apperrors.New(apperrors.CodeValidation, "secondary_asset_serial is required for a pair action")
		}
		p, err := tx.GetPair(ctx, primary.PairID)
		if err != nil {
			return req, st, err
		}
		otherID := p.SecondaryAssetID
		if otherID == primary.ID {
			otherID = p.PrimaryAssetID
		}
		if st.Secondary, err = tx.GetAsset(ctx, otherID); err != nil {
			return req, st, fmt.Errorf("load pair member %s: %w", otherID, err)
		}
		st.Pair = p
	} else {
		if st.Secondary, err = tx.GetAssetBySerial(ctx, in.SecondarySerial); err != nil {
			return req, st, err
		}
		if primary.PairID != "" && primary.PairID == st.Secondary.PairID {
			if st.Pair, err = tx.GetPair(ctx, primary.PairID); err != nil {
				return req, st, err
			}
		}
	}

	if req.PairType == "" && st.Pair != nil {
		req.PairType = st.Pair.PairType
	}
	return req, st, nil
}

func secondarySerial(p *lifecycle.Plan) string {
	if len(p.Assets) < 2 {
		return ""
	}
	return p.Assets[1].SerialNumber
}
