package lifecycle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/models"
)

// Audit action labels for events outside the lifecycle action types.
const (
	AuditAssetCreated       = "Asset Created"
	AuditAssetUpdated       = "Asset Updated"
	AuditAssetDeleted       = "Asset Deleted"
	AuditAssetDisposed      = "Asset Disposed"
	AuditPairDissolved      = "Pair Dissolved"
	AuditMaintenanceOpened  = "Maintenance Opened"
	AuditTicketStatus       = "Ticket Status Changed"
	AuditMaintenanceDone    = "Maintenance Resolved"
	AuditDeclaredObsolete   = "Asset Declared Obsolete"
	AuditReplacementDeploy  = "Asset Replacement Deployed"
	AuditActionRequested    = "Lifecycle Action Requested"
	AuditMovementFormStored = "Movement Form Uploaded"
)

// MustJSON encodes v for an audit value column. v is always a map of
// strings, so encoding cannot fail.
func MustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("lifecycle: encode audit values: %v", err))
	}
	return b
}

// OpenTicket returns a copy of a placed under maintenance. Only Active and
// In Store assets can be sent for repair.
func OpenTicket(a *models.Asset, now time.Time) (*models.Asset, error) {
	switch a.Status {
	case models.StatusActive, models.StatusInStore:
	case models.StatusUnderMaintenance:
		return nil, apperrors.Newf(apperrors.CodeNotEligible, "asset %s is already under maintenance", a.SerialNumber)
	default:
		return nil, apperrors.Newf(apperrors.CodeNotEligible,
			"asset %s is %s and cannot be sent for maintenance", a.SerialNumber, a.Status)
	}
	next := *a
	next.Status = models.StatusUnderMaintenance
	next.UpdatedAt = now
	return &next, nil
}

// CheckTicketTransition reports whether a ticket may move from one status to
// another outside of resolution. Resolution has its own path.
func CheckTicketTransition(from, to models.TicketStatus) error {
	if !models.ValidTicketStatuses[to] {
		return apperrors.Newf(apperrors.CodeValidation, "invalid ticket status %q", to)
	}
	switch {
	case from == models.TicketOpen && to == models.TicketInProgress:
		return nil
	case from == models.TicketResolved && to == models.TicketClosed:
		return nil
	case to == models.TicketResolved:
		return apperrors.New(apperrors.CodeInvalidTransition, "tickets are resolved through the resolve operation")
	}
	return apperrors.Newf(apperrors.CodeInvalidTransition, "ticket cannot move from %s to %s", from, to)
}

// Resolution is the operator's outcome for a maintenance ticket.
type Resolution struct {
	Resolution        string
	Cost              float64
	IsObsolete        bool
	ObsoleteReason    string
	ReplacementSerial string
}

// ResolutionState is the stored view of the rows a resolution touches.
type ResolutionState struct {
	Ticket      *models.MaintenanceTicket
	Asset       *models.Asset
	Pair        *models.AssetPair // Asset's pair, if any
	Partner     *models.Asset     // the other member of Pair
	Replacement *models.Asset     // loaded when ReplacementSerial is set
}

// ResolutionPlan is the outcome of resolving a ticket.
type ResolutionPlan struct {
	Ticket *models.MaintenanceTicket
	Asset  *models.Asset

	Replacement *models.Asset
	Record      *models.AssetReplacement

	// Pair is the updated pair when the replacement takes the original's
	// slot. DissolvePair is set when an obsolete member leaves its pair
	// without a replacement; Partner then has its pair id cleared.
	Pair         *models.AssetPair
	DissolvePair bool
	Partner      *models.Asset

	Audit []models.AuditLog
}

// Resolve applies a resolution to a ticket under repair.
func Resolve(in Resolution, st ResolutionState, now time.Time) (*ResolutionPlan, error) {
	t, a := st.Ticket, st.Asset
	if t == nil || a == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "ticket not found")
	}
	if t.Status != models.TicketOpen && t.Status != models.TicketInProgress {
		return nil, apperrors.Newf(apperrors.CodeInvalidTransition, "ticket is already %s", t.Status)
	}
	if a.Status != models.StatusUnderMaintenance {
		return nil, apperrors.Newf(apperrors.CodeNotEligible,
			"asset %s is %s, not under maintenance", a.SerialNumber, a.Status)
	}
	in.Resolution = strings.TrimSpace(in.Resolution)
	in.ObsoleteReason = strings.TrimSpace(in.ObsoleteReason)
	in.ReplacementSerial = strings.TrimSpace(in.ReplacementSerial)
	if in.Resolution == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "resolution is required")
	}
	if in.Cost < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cost cannot be negative")
	}
	if in.IsObsolete && in.ObsoleteReason == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "obsolete reason is required")
	}
	if in.ReplacementSerial != "" && !in.IsObsolete {
		return nil, apperrors.New(apperrors.CodeValidation, "only an obsolete asset can be replaced")
	}

	ticket := *t
	ticket.Status = models.TicketResolved
	ticket.Resolution = in.Resolution
	ticket.Cost = in.Cost
	ticket.DateReturned = &now
	ticket.UpdatedAt = now

	asset := *a
	asset.UpdatedAt = now
	plan := &ResolutionPlan{Ticket: &ticket, Asset: &asset}

	if !in.IsObsolete {
		asset.Status = t.PriorAssetStatus
		if asset.Status == "" {
			asset.Status = models.StatusActive
		}
		plan.Audit = append(plan.Audit, models.AuditLog{
			AssetSerial: a.SerialNumber,
			PairID:      a.PairID,
			Action:      AuditMaintenanceDone,
			Details:     fmt.Sprintf("Maintenance ticket %q resolved: %s", t.Title, in.Resolution),
			OldValues:   MustJSON(map[string]any{"status": string(a.Status), "ticket_status": string(t.Status)}),
			NewValues:   MustJSON(map[string]any{"status": string(asset.Status), "ticket_status": string(ticket.Status)}),
		})
		return plan, nil
	}

	ticket.IsObsolete = true
	ticket.ObsoleteReason = in.ObsoleteReason
	ticket.ObsoleteDate = &now

	// The obsolete asset goes back to ICT custody; its former placement is
	// handed to the replacement, if any.
	former := models.SnapshotOf(a)
	asset.Status = models.StatusObsolete
	applySnapshot(&asset, models.CustodianSnapshot())

	if in.ReplacementSerial != "" {
		if err := planReplacement(plan, in, st, former, now); err != nil {
			return nil, err
		}
	} else if st.Pair != nil {
		plan.DissolvePair = true
		asset.PairID = ""
		if st.Partner != nil {
			partner := *st.Partner
			partner.PairID = ""
			partner.UpdatedAt = now
			plan.Partner = &partner
		}
	}

	obsolete := models.AuditLog{
		AssetSerial: a.SerialNumber,
		PairID:      a.PairID,
		Action:      AuditDeclaredObsolete,
		Details:     fmt.Sprintf("Asset %s declared obsolete: %s", a.SerialNumber, in.ObsoleteReason),
		OldValues:   MustJSON(snapshotValues(former, a.Status)),
		NewValues: MustJSON(map[string]any{
			"status":          string(models.StatusObsolete),
			"obsolete_reason": in.ObsoleteReason,
			"ticket_status":   string(ticket.Status),
		}),
	}
	plan.Audit = append([]models.AuditLog{obsolete}, plan.Audit...)
	return plan, nil
}

func planReplacement(plan *ResolutionPlan, in Resolution, st ResolutionState, former models.Snapshot, now time.Time) error {
	orig, r := st.Asset, st.Replacement
	if r == nil {
		return apperrors.Newf(apperrors.CodeNotFound, "replacement asset %s not found", in.ReplacementSerial)
	}
	if r.ID == orig.ID {
		return apperrors.New(apperrors.CodeValidation, "an asset cannot replace itself")
	}
	if r.Type != orig.Type {
		return apperrors.Newf(apperrors.CodeTypeMismatch,
			"replacement %s is a %s; %s is a %s", r.SerialNumber, r.Type, orig.SerialNumber, orig.Type)
	}
	switch r.Status {
	case models.StatusInStore:
	case models.StatusActive:
		return apperrors.Newf(apperrors.CodeAlreadyInUse, "replacement %s is already in use", r.SerialNumber)
	default:
		return apperrors.Newf(apperrors.CodeNotEligible,
			"replacement %s is %s; only In Store assets can be deployed", r.SerialNumber, r.Status)
	}
	if r.PairID != "" {
		return apperrors.Newf(apperrors.CodeNotEligible,
			"replacement %s already belongs to pair %s", r.SerialNumber, r.PairID)
	}

	next := *r
	applySnapshot(&next, former)
	next.Status = models.StatusActive
	next.UpdatedAt = now
	plan.Replacement = &next

	if st.Pair != nil {
		p := *st.Pair
		switch orig.ID {
		case p.PrimaryAssetID:
			p.PrimaryAssetID = r.ID
		case p.SecondaryAssetID:
			p.SecondaryAssetID = r.ID
		}
		p.UpdatedAt = now
		plan.Pair = &p
		next.PairID = p.ID
		plan.Asset.PairID = ""
	}

	plan.Ticket.RequiresReplacement = true
	plan.Ticket.ReplacementSerial = r.SerialNumber
	plan.Record = &models.AssetReplacement{
		OriginalSerial:     orig.SerialNumber,
		ReplacementSerial:  r.SerialNumber,
		TicketID:           plan.Ticket.ID,
		Reason:             in.ObsoleteReason,
		ReplacementDate:    now,
		DeployedToHolder:   former.Holder,
		DeployedLocation:   former.Location,
		DeployedDepartment: former.Department,
		Status:             models.ReplacementDeployed,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	plan.Audit = append(plan.Audit, models.AuditLog{
		AssetSerial: r.SerialNumber,
		PairID:      next.PairID,
		Action:      AuditReplacementDeploy,
		Details: fmt.Sprintf("%s replaces obsolete %s for %s (%s, %s)",
			r.SerialNumber, orig.SerialNumber, former.Holder, former.Location, former.Department),
		OldValues: MustJSON(snapshotValues(models.SnapshotOf(r), r.Status)),
		NewValues: MustJSON(map[string]any{
			"status":          string(next.Status),
			"holder":          former.Holder,
			"location":        former.Location,
			"department":      former.Department,
			"original_serial": orig.SerialNumber,
		}),
	})
	return nil
}

// Dispose returns a copy of a marked Disposed. Only obsolete assets can be
// disposed of.
func Dispose(a *models.Asset, now time.Time) (*models.Asset, error) {
	if a.Status != models.StatusObsolete {
		return nil, apperrors.Newf(apperrors.CodeNotEligible,
			"asset %s is %s; only Obsolete assets can be disposed", a.SerialNumber, a.Status)
	}
	if a.PairID != "" {
		return nil, apperrors.Newf(apperrors.CodeNotEligible,
			"asset %s still belongs to pair %s", a.SerialNumber, a.PairID)
	}
	next := *a
	next.Status = models.StatusDisposed
	next.UpdatedAt = now
	return &next, nil
}
