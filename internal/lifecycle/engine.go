// Package lifecycle holds the ownership transition rules for assets and
// asset pairs. Everything here is pure: callers load the current rows, ask
// for a Plan, and persist the plan together with its audit entry in one
// transaction.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/models"
)

// Request is a validated-at-the-edge description of a lifecycle action.
type Request struct {
	Action     models.ActionType
	Deployment models.DeploymentType
	PairType   models.PairType
	To         models.Snapshot
}

// State is the stored view of the rows a request touches.
type State struct {
	Primary   *models.Asset
	Secondary *models.Asset     // nil for individual actions
	Pair      *models.AssetPair // pair linking Primary and Secondary, if any
}

// Plan is the outcome of a lifecycle action.
type Plan struct {
	Action     models.ActionType
	From       models.Snapshot
	To         models.Snapshot
	FromStatus models.AssetStatus
	ToStatus   models.AssetStatus

	// Assets are updated copies, primary first.
	Assets []*models.Asset
	// Pair is the updated or new pair; nil for individual actions.
	Pair *models.AssetPair
	// CreatePair is set when Pair has no stored row yet.
	CreatePair bool

	Audit models.AuditLog
}

// AssignPairID gives a newly created pair its identifier and links the
// member assets to it.
func (p *Plan) AssignPairID(id string) {
	if p.Pair == nil {
		return
	}
	p.Pair.ID = id
	for _, a := range p.Assets {
		a.PairID = id
	}
	p.Audit.PairID = id
}

// Compute validates req against st and returns the resulting plan. It never
// mutates st.
func Compute(req Request, st State, now time.Time) (*Plan, error) {
	if !models.ValidActionTypes[req.Action] {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid action type %q", req.Action)
	}
	if st.Primary == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "asset not found")
	}

	pair := req.Deployment == models.DeploymentPair
	if pair {
		if st.Secondary == nil {
			return nil, apperrors.New(apperrors.CodeNotFound, "secondary asset not found")
		}
		if st.Primary.ID == st.Secondary.ID {
			return nil, apperrors.New(apperrors.CodeValidation, "a pair needs two different assets")
		}
		if !models.ValidPairTypes[req.PairType] {
			return nil, apperrors.Newf(apperrors.CodeValidation, "invalid pair type %q", req.PairType)
		}
	} else if req.Deployment != models.DeploymentIndividual {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid deployment type %q", req.Deployment)
	}

	members := []*models.Asset{st.Primary}
	if pair {
		primary, secondary, err := orderPair(req.PairType, st.Primary, st.Secondary)
		if err != nil {
			return nil, err
		}
		members = []*models.Asset{primary, secondary}
		if err := checkPairMembership(members, st.Pair); err != nil {
			return nil, err
		}
	} else if st.Primary.PairID != "" {
		return nil, apperrors.Newf(apperrors.CodeNotEligible,
			"asset %s belongs to pair %s; use a pair action", st.Primary.SerialNumber, st.Primary.PairID)
	}

	from := models.SnapshotOf(members[0])
	var (
		to       models.Snapshot
		toStatus models.AssetStatus
		err      error
	)
	switch req.Action {
	case models.ActionNewDeployment, models.ActionRedeployment:
		err = checkDeployable(members, st.Pair, pair)
		if err == nil {
			to, err = deploymentTarget(req.To)
		}
		toStatus = models.StatusActive
	case models.ActionRelocation:
		err = checkDeployed(members, st.Pair, pair)
		if err == nil {
			to, err = relocationTarget(req.To, from)
		}
		toStatus = models.StatusActive
	case models.ActionChangeOfOwnership:
		err = checkDeployed(members, st.Pair, pair)
		if err == nil {
			to, err = ownershipTarget(req.To, from)
		}
		toStatus = models.StatusActive
	case models.ActionSurrender, models.ActionExit:
		// Exit is handled exactly like Surrender: the asset returns to ICT
		// custody rather than leaving the inventory.
		err = checkDeployed(members, st.Pair, pair)
		to = models.CustodianSnapshot()
		toStatus = models.StatusInStore
	}
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Action:     req.Action,
		From:       from,
		To:         to,
		FromStatus: members[0].Status,
		ToStatus:   toStatus,
	}
	for _, m := range members {
		next := *m
		applySnapshot(&next, to)
		next.Status = toStatus
		next.UpdatedAt = now
		plan.Assets = append(plan.Assets, &next)
	}

	if pair {
		var p models.AssetPair
		if st.Pair != nil {
			p = *st.Pair
		} else {
			plan.CreatePair = true
			p = models.AssetPair{
				PrimaryAssetID:   members[0].ID,
				SecondaryAssetID: members[1].ID,
				PairType:         req.PairType,
				CreatedAt:        now,
			}
		}
		p.IsDeployed = toStatus == models.StatusActive
		mirror(&p, to)
		p.UpdatedAt = now
		plan.Pair = &p
	}

	plan.Audit = auditFor(plan, req, members)
	return plan, nil
}

// orderPair returns the members as (primary, secondary) for pairType,
// accepting them in either order.
func orderPair(pairType models.PairType, a, b *models.Asset) (*models.Asset, *models.Asset, error) {
	want := pairType.PrimaryType()
	switch {
	case a.Type == want && b.Type == models.TypeMonitor:
		return a, b, nil
	case b.Type == want && a.Type == models.TypeMonitor:
		return b, a, nil
	}
	return nil, nil, apperrors.Newf(apperrors.CodeTypeMismatch,
		"a %s pair needs one %s and one %s; got %s (%s) and %s (%s)",
		pairType, want, models.TypeMonitor, a.SerialNumber, a.Type, b.SerialNumber, b.Type)
}

// checkPairMembership rejects members that already belong to some other pair.
func checkPairMembership(members []*models.Asset, p *models.AssetPair) error {
	for _, m := range members {
		if m.PairID == "" {
			continue
		}
		if p == nil || m.PairID != p.ID {
			return apperrors.Newf(apperrors.CodeNotEligible,
				"asset %s already belongs to pair %s; dissolve it first", m.SerialNumber, m.PairID)
		}
	}
	if p != nil {
		ids := map[string]bool{p.PrimaryAssetID: true, p.SecondaryAssetID: true}
		if !ids[members[0].ID] || !ids[members[1].ID] {
			return apperrors.Newf(apperrors.CodeNotEligible, "pair %s does not link %s and %s",
				p.ID, members[0].SerialNumber, members[1].SerialNumber)
		}
	}
	return nil
}

func checkDeployable(members []*models.Asset, p *models.AssetPair, pair bool) error {
	if pair && p != nil && p.IsDeployed {
		return apperrors.Newf(apperrors.CodeAlreadyInUse, "pair %s is already deployed", p.ID)
	}
	for _, m := range members {
		switch m.Status {
		case models.StatusInStore:
		case models.StatusActive:
			return apperrors.Newf(apperrors.CodeAlreadyInUse, "asset %s is already in use", m.SerialNumber)
		default:
			return apperrors.Newf(apperrors.CodeNotEligible,
				"asset %s is %s; only In Store assets can be deployed", m.SerialNumber, m.Status)
		}
	}
	return nil
}

func checkDeployed(members []*models.Asset, p *models.AssetPair, pair bool) error {
	if pair && (p == nil || !p.IsDeployed) {
		return apperrors.Newf(apperrors.CodeNotEligible, "pair %s + %s is not deployed",
			members[0].SerialNumber, members[1].SerialNumber)
	}
	for _, m := range members {
		if m.Status != models.StatusActive {
			return apperrors.Newf(apperrors.CodeNotEligible,
				"asset %s is %s; only Active assets can be moved", m.SerialNumber, m.Status)
		}
	}
	return nil
}

func deploymentTarget(to models.Snapshot) (models.Snapshot, error) {
	to = trimSnapshot(to)
	if to.Holder == "" || to.Location == "" || to.Department == "" {
		return models.Snapshot{}, apperrors.New(apperrors.CodeValidation,
			"holder, location, and department are required")
	}
	return withAccount(to)
}

func relocationTarget(to, from models.Snapshot) (models.Snapshot, error) {
	to = trimSnapshot(to)
	if to.Location == "" || to.Department == "" {
		return models.Snapshot{}, apperrors.New(apperrors.CodeValidation,
			"location and department are required")
	}
	if to.Holder == "" {
		to.Holder = from.Holder
		if to.DomainAccount == "" {
			to.DomainAccount = from.DomainAccount
		}
	}
	return withAccount(to)
}

func ownershipTarget(to, from models.Snapshot) (models.Snapshot, error) {
	to = trimSnapshot(to)
	if to.Holder == "" {
		return models.Snapshot{}, apperrors.New(apperrors.CodeValidation, "holder is required")
	}
	if to.Location == "" {
		to.Location = from.Location
	}
	if to.Department == "" {
		to.Department = from.Department
	}
	return withAccount(to)
}

func withAccount(to models.Snapshot) (models.Snapshot, error) {
	if to.DomainAccount == "" {
		return to, nil
	}
	acct, err := models.NormalizeDomainAccount(to.DomainAccount)
	if err != nil {
		return models.Snapshot{}, apperrors.Wrap(apperrors.CodeInvalidDomainAccount,
			fmt.Sprintf("domain account %q is invalid", to.DomainAccount), err)
	}
	to.DomainAccount = acct
	return to, nil
}

func trimSnapshot(s models.Snapshot) models.Snapshot {
	return models.Snapshot{
		Holder:        strings.TrimSpace(s.Holder),
		DomainAccount: strings.TrimSpace(s.DomainAccount),
		Location:      strings.TrimSpace(s.Location),
		Department:    strings.TrimSpace(s.Department),
		Section:       strings.TrimSpace(s.Section),
	}
}

func applySnapshot(a *models.Asset, s models.Snapshot) {
	a.Holder = s.Holder
	a.DomainAccount = s.DomainAccount
	a.Location = s.Location
	a.Department = s.Department
	a.Section = s.Section
}

func mirror(p *models.AssetPair, s models.Snapshot) {
	p.CurrentHolder = s.Holder
	p.CurrentAccount = s.DomainAccount
	p.CurrentLocation = s.Location
	p.CurrentDepartment = s.Department
	p.CurrentSection = s.Section
}

func auditFor(p *Plan, req Request, members []*models.Asset) models.AuditLog {
	serials := make([]string, len(members))
	for i, m := range members {
		serials[i] = m.SerialNumber
	}
	subject := "asset " + serials[0]
	if len(members) == 2 {
		subject = fmt.Sprintf("%s pair %s", req.PairType, strings.Join(serials, " + "))
	}

	old := snapshotValues(p.From, p.FromStatus)
	next := snapshotValues(p.To, p.ToStatus)
	next["action_type"] = string(p.Action)
	if len(serials) == 2 {
		old["serials"] = serials
		next["serials"] = serials
	}

	entry := models.AuditLog{
		AssetSerial: serials[0],
		Action:      string(p.Action),
		Details: fmt.Sprintf("%s of %s to %s (%s, %s)",
			p.Action, subject, p.To.Holder, p.To.Location, p.To.Department),
		OldValues: MustJSON(old),
		NewValues: MustJSON(next),
	}
	if p.Pair != nil {
		entry.PairID = p.Pair.ID
	}
	return entry
}

func snapshotValues(s models.Snapshot, status models.AssetStatus) map[string]any {
	v := map[string]any{
		"status":     string(status),
		"holder":     s.Holder,
		"location":   s.Location,
		"department": s.Department,
	}
	if s.Section != "" {
		v["section"] = s.Section
	}
	if s.DomainAccount != "" {
		v["domain_account"] = s.DomainAccount
	}
	return v
}
