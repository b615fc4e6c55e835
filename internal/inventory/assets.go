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

// NewAsset is the input for registering an asset.
type NewAsset struct {
	Type         models.AssetType
	SerialNumber string
	Brand        string
	Model        string
}

// CreateAsset registers an asset in ICT custody.
func (s *Service) CreateAsset(ctx context.Context, actor string, in NewAsset) (*models.Asset, error) {
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if in.SerialNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "serial_number is required")
	}
	if !models.ValidAssetTypes[in.Type] {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid asset_type %q", in.Type)
	}

	now := s.now()
	a := &models.Asset{
		ID:           s.ids(),
		Type:         in.Type,
		SerialNumber: in.SerialNumber,
		Brand:        strings.TrimSpace(in.Brand),
		Model:        strings.TrimSpace(in.Model),
		Status:       models.StatusInStore,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	custody := models.CustodianSnapshot()
	a.Holder, a.Location, a.Department = custody.Holder, custody.Location, custody.Department

	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		if err := tx.CreateAsset(ctx, a); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, now, models.AuditLog{
			AssetSerial: a.SerialNumber,
			Action:      lifecycle.AuditAssetCreated,
			Details:     fmt.Sprintf("%s %s registered in ICT custody", a.Type, a.SerialNumber),
			NewValues: lifecycle.MustJSON(map[string]any{
				"asset_type": string(a.Type),
				"brand":      a.Brand,
				"model":      a.Model,
				"status":     string(a.Status),
				"holder":     a.Holder,
			}),
		})
	})
	if err != nil {
		logRejection("create asset", err, "serial", in.SerialNumber)
		return nil, err
	}
	return a, nil
}

// AssetUpdate holds the descriptive fields an operator may edit directly.
// Placement and status only change through lifecycle and maintenance
// operations.
type AssetUpdate struct {
	Type         models.AssetType
	SerialNumber string
	Brand        string
	Model        string
	Version      int64
}

// UpdateAsset edits the descriptive fields of an asset. Version must match
// the stored version.
func (s *Service) UpdateAsset(ctx context.Context, actor, id string, in AssetUpdate) (*models.Asset, error) {
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if in.SerialNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "serial_number is required")
	}
	if !models.ValidAssetTypes[in.Type] {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid asset_type %q", in.Type)
	}

	var out *models.Asset
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		a, err := tx.GetAsset(ctx, id)
		if err != nil {
			return err
		}
		if in.Version != 0 && in.Version != a.Version {
			return apperrors.Newf(apperrors.CodeConflict,
				"asset %s is at version %d, not %d; reload and retry", a.SerialNumber, a.Version, in.Version)
		}
		if a.PairID != "" && in.Type != a.Type {
			return apperrors.Newf(apperrors.CodeNotEligible,
				"asset %s belongs to pair %s; its type cannot change", a.SerialNumber, a.PairID)
		}

		old := map[string]any{
			"asset_type":    string(a.Type),
			"serial_number": a.SerialNumber,
			"brand":         a.Brand,
			"model":         a.Model,
		}
		now := s.now()
		a.Type = in.Type
		a.SerialNumber = in.SerialNumber
		a.Brand = strings.TrimSpace(in.Brand)
		a.Model = strings.TrimSpace(in.Model)
		a.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, a); err != nil {
			return err
		}
		out = a
		return s.audit(ctx, tx, actor, now, models.AuditLog{
			AssetSerial: a.SerialNumber,
			PairID:      a.PairID,
			Action:      lifecycle.AuditAssetUpdated,
			Details:     fmt.Sprintf("Asset %s details updated", a.SerialNumber),
			OldValues:   lifecycle.MustJSON(old),
			NewValues: lifecycle.MustJSON(map[string]any{
				"asset_type":    string(a.Type),
				"serial_number": a.SerialNumber,
				"brand":         a.Brand,
				"model":         a.Model,
			}),
		})
	})
	if err != nil {
		logRejection("update asset", err, "id", id)
		return nil, err
	}
	return out, nil
}

// DeleteAsset hard-deletes an asset that is not part of a pair.
func (s *Service) DeleteAsset(ctx context.Context, actor, id string) error {
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		a, err := tx.GetAsset(ctx, id)
		if err != nil {
			return err
		}
		if a.PairID != "" {
			return apperrors.Newf(apperrors.CodeNotEligible,
				"asset %s belongs to pair %s; dissolve the pair first", a.SerialNumber, a.PairID)
		}
		if a.Status == models.StatusUnderMaintenance {
			return apperrors.Newf(apperrors.CodeNotEligible, "asset %s is under maintenance", a.SerialNumber)
		}
		if err := tx.DeleteAsset(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, s.now(), models.AuditLog{
			AssetSerial: a.SerialNumber,
			Action:      lifecycle.AuditAssetDeleted,
			Details:     fmt.Sprintf("%s %s deleted", a.Type, a.SerialNumber),
			OldValues:   lifecycle.MustJSON(map[string]any{"status": string(a.Status), "holder": a.Holder}),
		})
	})
	if err != nil {
		logRejection("delete asset", err, "id", id)
	}
	return err
}

// DisposeAsset moves an obsolete asset to Disposed.
func (s *Service) DisposeAsset(ctx context.Context, actor, id string) (*models.Asset, error) {
	var out *models.Asset
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		a, err := tx.GetAsset(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		next, err := lifecycle.Dispose(a, now)
		if err != nil {
			return err
		}
		if err := tx.UpdateAsset(ctx, next); err != nil {
			return err
		}
		out = next
		return s.audit(ctx, tx, actor, now, models.AuditLog{
			AssetSerial: a.SerialNumber,
			Action:      lifecycle.AuditAssetDisposed,
			Details:     fmt.Sprintf("Asset %s disposed", a.SerialNumber),
			OldValues:   lifecycle.MustJSON(map[string]any{"status": string(a.Status)}),
			NewValues:   lifecycle.MustJSON(map[string]any{"status": string(next.Status)}),
		})
	})
	if err != nil {
		logRejection("dispose asset", err, "id", id)
		return nil, err
	}
	return out, nil
}

// DissolvePair deletes an undeployed pair and frees both members.
func (s *Service) DissolvePair(ctx context.Context, actor, id string) error {
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		p, err := tx.GetPair(ctx, id)
		if err != nil {
			return err
		}
		if p.IsDeployed {
			return apperrors.Newf(apperrors.CodeNotEligible, "pair %s is deployed; surrender it first", p.ID)
		}
		now := s.now()
		var serials []string
		for _, assetID := range []string{p.PrimaryAssetID, p.SecondaryAssetID} {
			a, err := tx.GetAsset(ctx, assetID)
			if err != nil {
				return fmt.Errorf("load pair member %s: %w", assetID, err)
			}
			a.PairID = ""
			a.UpdatedAt = now
			if err := tx.UpdateAsset(ctx, a); err != nil {
				return err
			}
			serials = append(serials, a.SerialNumber)
		}
		if err := tx.DeletePair(ctx, p.ID); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, now, models.AuditLog{
			AssetSerial: serials[0],
			PairID:      p.ID,
			Action:      lifecycle.AuditPairDissolved,
			Details:     fmt.Sprintf("%s pair %s dissolved", p.PairType, strings.Join(serials, " + ")),
			OldValues:   lifecycle.MustJSON(map[string]any{"pair_id": p.ID, "serials": serials}),
		})
	})
	if err != nil {
		logRejection("dissolve pair", err, "pair_id", id)
	}
	return err
}
