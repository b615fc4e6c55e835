package inventory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/inventory"
	"github.com/tphummel/ict_assets/internal/lifecycle"
	"github.com/tphummel/ict_assets/internal/models"
)

const actor = "K00000001"

func newService(t *testing.T, opts ...inventory.Option) (*inventory.Service, *db.DB) {
	t.Helper()
	d, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]inventory.Option{inventory.WithClock(func() time.Time { return clock })}, opts...)
	return inventory.New(d, opts...), d
}

// collidingIDs hands out fresh ids until reuse is set, then returns reuse for
// every call. Reusing an existing audit id makes the audit insert fail.
type collidingIDs struct {
	reuse string
}

func (c *collidingIDs) next() string {
	if c.reuse != "" {
		return c.reuse
	}
	return uuid.NewString()
}

func mustCreate(t *testing.T, s *inventory.Service, serial string, typ models.AssetType) *models.Asset {
	t.Helper()
	a, err := s.CreateAsset(context.Background(), actor, inventory.NewAsset{Type: typ, SerialNumber: serial, Brand: "HP"})
	require.NoError(t, err)
	return a
}

func auditFor(t *testing.T, d *db.DB, serial string) []*models.AuditLog {
	t.Helper()
	logs, err := d.ListAudit(context.Background(), db.AuditFilter{AssetSerial: serial})
	require.NoError(t, err)
	return logs
}

func TestCreateAsset_ForcedCustody(t *testing.T) {
	s, d := newService(t)
	a := mustCreate(t, s, "LAP-001", models.TypeLaptop)

	got, err := d.GetAsset(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInStore, got.Status)
	assert.Equal(t, "ICT Manager", got.Holder)
	assert.Equal(t, "ICT Store", got.Location)
	assert.Equal(t, "ICT", got.Department)

	logs := auditFor(t, d, "LAP-001")
	require.Len(t, logs, 1)
	assert.Equal(t, lifecycle.AuditAssetCreated, logs[0].Action)
	assert.Equal(t, actor, logs[0].PerformedBy)
}

func TestCreateAsset_DuplicateSerial(t *testing.T) {
	s, d := newService(t)
	mustCreate(t, s, "LAP-001", models.TypeLaptop)

	_, err := s.CreateAsset(context.Background(), actor, inventory.NewAsset{Type: models.TypeLaptop, SerialNumber: "LAP-001"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	assets, err := d.ListAssets(context.Background(), db.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, assets, 1)
	assert.Len(t, auditFor(t, d, "LAP-001"), 1)
}

func TestCreateAsset_Validation(t *testing.T) {
	s, _ := newService(t)
	_, err := s.CreateAsset(context.Background(), actor, inventory.NewAsset{Type: models.TypeLaptop})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = s.CreateAsset(context.Background(), actor, inventory.NewAsset{Type: "Tablet", SerialNumber: "T-1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSubmitAction_PCPairDeployment(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	cpu := mustCreate(t, s, "CPU-001", models.TypeCPU)
	mon := mustCreate(t, s, "MON-001", models.TypeMonitor)

	action, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:          models.ActionNewDeployment,
		Deployment:      models.DeploymentPair,
		PairType:        models.PairPC,
		PrimarySerial:   "CPU-001",
		SecondarySerial: "MON-001",
		To:              models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActionCompleted, action.Status)
	require.NotNil(t, action.CompletionDate)
	require.NotEmpty(t, action.PairID)

	for _, id := range []string{cpu.ID, mon.ID} {
		a, err := d.GetAsset(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, a.Status)
		assert.Equal(t, "Jane Doe", a.Holder)
		assert.Equal(t, "HQ", a.Location)
		assert.Equal(t, "Finance", a.Department)
		assert.Equal(t, action.PairID, a.PairID)
		assert.Equal(t, int64(2), a.Version)
	}

	p, err := d.GetPair(ctx, action.PairID)
	require.NoError(t, err)
	assert.True(t, p.IsDeployed)
	assert.Equal(t, cpu.ID, p.PrimaryAssetID)
	assert.Equal(t, mon.ID, p.SecondaryAssetID)
	assert.Equal(t, "Jane Doe", p.CurrentHolder)
	assert.Equal(t, "HQ", p.CurrentLocation)
	assert.Equal(t, "Finance", p.CurrentDepartment)

	logs := auditFor(t, d, "CPU-001")
	require.Len(t, logs, 2)
	assert.Equal(t, string(models.ActionNewDeployment), logs[0].Action)
	assert.Equal(t, action.PairID, logs[0].PairID)

	stored, err := d.GetAction(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, "MON-001", stored.SecondarySerial)
	assert.Equal(t, models.CustodianHolder, stored.From.Holder)
}

func TestSubmitAction_ActiveAssetRejected(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "LAP-001", models.TypeLaptop)

	deploy := inventory.ActionInput{
		Action:        models.ActionNewDeployment,
		Deployment:    models.DeploymentIndividual,
		PrimarySerial: "LAP-001",
		To:            models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
	}
	_, err := s.SubmitAction(ctx, actor, deploy)
	require.NoError(t, err)
	before, err := d.GetAssetBySerial(ctx, "LAP-001")
	require.NoError(t, err)

	for _, action := range []models.ActionType{models.ActionNewDeployment, models.ActionRedeployment} {
		deploy.Action = action
		deploy.To.Holder = "Someone Else"
		_, err = s.SubmitAction(ctx, actor, deploy)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyInUse)
	}

	after, err := d.GetAssetBySerial(ctx, "LAP-001")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, auditFor(t, d, "LAP-001"), 2)
}

func TestSubmitAction_PairTypeMismatchChangesNothing(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "CPU-001", models.TypeCPU)
	mustCreate(t, s, "LAP-001", models.TypeLaptop)

	_, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:          models.ActionNewDeployment,
		Deployment:      models.DeploymentPair,
		PairType:        models.PairPC,
		PrimarySerial:   "CPU-001",
		SecondarySerial: "LAP-001",
		To:              models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
	})
	assert.ErrorIs(t, err, apperrors.ErrTypeMismatch)

	pairs, err := d.ListPairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs)
	actions, err := d.ListActions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestSurrender_RoundTrip(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "CPU-001", models.TypeCPU)
	mustCreate(t, s, "MON-001", models.TypeMonitor)

	deployed, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:          models.ActionNewDeployment,
		Deployment:      models.DeploymentPair,
		PairType:        models.PairPC,
		PrimarySerial:   "MON-001",
		SecondarySerial: "CPU-001",
		To:              models.Snapshot{Holder: "Jane Doe", DomainAccount: "k12345678", Location: "HQ", Department: "Finance", Section: "Payroll"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CPU-001", deployed.PrimarySerial)
	assert.Equal(t, "K12345678", deployed.To.DomainAccount)

	// secondary serial is taken from the pair
	_, err = s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:        models.ActionSurrender,
		Deployment:    models.DeploymentPair,
		PrimarySerial: "CPU-001",
	})
	require.NoError(t, err)

	for _, serial := range []string{"CPU-001", "MON-001"} {
		a, err := d.GetAssetBySerial(ctx, serial)
		require.NoError(t, err)
		assert.Equal(t, "ICT Manager", a.Holder)
		assert.Equal(t, "ICT Store", a.Location)
		assert.Equal(t, "ICT", a.Department)
		assert.Equal(t, models.StatusInStore, a.Status)
		assert.Empty(t, a.DomainAccount)
		assert.Empty(t, a.Section)
	}
	p, err := d.GetPair(ctx, deployed.PairID)
	require.NoError(t, err)
	assert.False(t, p.IsDeployed)

	// redeploying reuses the pair
	again, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:          models.ActionRedeployment,
		Deployment:      models.DeploymentPair,
		PrimarySerial:   "CPU-001",
		SecondarySerial: "MON-001",
		To:              models.Snapshot{Holder: "Sam Roe", Location: "Annex", Department: "Audit"},
	})
	require.NoError(t, err)
	assert.Equal(t, deployed.PairID, again.PairID)
	assert.Equal(t, models.PairPC, again.PairType)
}

func TestPendingAction_Complete(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "LAP-001", models.TypeLaptop)

	pending, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:        models.ActionNewDeployment,
		Deployment:    models.DeploymentIndividual,
		PrimarySerial: "LAP-001",
		To:            models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
		Pending:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActionPending, pending.Status)

	a, err := d.GetAssetBySerial(ctx, "LAP-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInStore, a.Status)

	done, err := s.CompleteAction(ctx, actor, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionCompleted, done.Status)
	require.NotNil(t, done.CompletionDate)

	a, err = d.GetAssetBySerial(ctx, "LAP-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, a.Status)
	assert.Equal(t, "Jane Doe", a.Holder)

	_, err = s.CompleteAction(ctx, actor, pending.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = s.CompleteAction(ctx, actor, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDissolvePair(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "CPU-001", models.TypeCPU)
	mustCreate(t, s, "MON-001", models.TypeMonitor)

	action, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:          models.ActionNewDeployment,
		Deployment:      models.DeploymentPair,
		PairType:        models.PairPC,
		PrimarySerial:   "CPU-001",
		SecondarySerial: "MON-001",
		To:              models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
	})
	require.NoError(t, err)

	err = s.DissolvePair(ctx, actor, action.PairID)
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)

	_, err = s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action: models.ActionSurrender, Deployment: models.DeploymentPair, PrimarySerial: "MON-001",
	})
	require.NoError(t, err)
	require.NoError(t, s.DissolvePair(ctx, actor, action.PairID))

	for _, serial := range []string{"CPU-001", "MON-001"} {
		a, err := d.GetAssetBySerial(ctx, serial)
		require.NoError(t, err)
		assert.Empty(t, a.PairID)
	}
	_, err = d.GetPair(ctx, action.PairID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// members can now be deployed individually
	_, err = s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:        models.ActionNewDeployment,
		Deployment:    models.DeploymentIndividual,
		PrimarySerial: "MON-001",
		To:            models.Snapshot{Holder: "Sam Roe", Location: "HQ", Department: "Audit"},
	})
	require.NoError(t, err)
}

func TestDeleteAsset(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	a := mustCreate(t, s, "LAP-001", models.TypeLaptop)

	require.NoError(t, s.DeleteAsset(ctx, actor, a.ID))
	_, err := d.GetAsset(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	logs := auditFor(t, d, "LAP-001")
	require.Len(t, logs, 2)
	assert.Equal(t, lifecycle.AuditAssetDeleted, logs[0].Action)
}

func TestUpdateAsset_StaleVersion(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := mustCreate(t, s, "LAP-001", models.TypeLaptop)

	updated, err := s.UpdateAsset(ctx, actor, a.ID, inventory.AssetUpdate{
		Type: models.TypeLaptop, SerialNumber: "LAP-001", Brand: "Lenovo", Model: "T14", Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lenovo", updated.Brand)
	assert.Equal(t, int64(2), updated.Version)

	_, err = s.UpdateAsset(ctx, actor, a.ID, inventory.AssetUpdate{
		Type: models.TypeLaptop, SerialNumber: "LAP-001", Brand: "Dell", Version: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMaintenance_ObsoleteWithReplacement(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "LAP-099", models.TypeLaptop)
	mustCreate(t, s, "LAP-150", models.TypeLaptop)

	_, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:        models.ActionNewDeployment,
		Deployment:    models.DeploymentIndividual,
		PrimarySerial: "LAP-099",
		To:            models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
	})
	require.NoError(t, err)

	ticket, err := s.OpenTicket(ctx, actor, inventory.TicketInput{
		AssetSerial: "LAP-099", Title: "Will not boot", Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, ticket.PriorAssetStatus)

	a, err := d.GetAssetBySerial(ctx, "LAP-099")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderMaintenance, a.Status)

	before := len(auditFor(t, d, "LAP-099")) + len(auditFor(t, d, "LAP-150"))

	resolved, err := s.ResolveTicket(ctx, actor, ticket.ID, lifecycle.Resolution{
		Resolution:        "Motherboard failure",
		IsObsolete:        true,
		ObsoleteReason:    "Beyond economic repair",
		ReplacementSerial: "LAP-150",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TicketResolved, resolved.Status)
	assert.Equal(t, "LAP-150", resolved.ReplacementSerial)

	orig, err := d.GetAssetBySerial(ctx, "LAP-099")
	require.NoError(t, err)
	assert.Equal(t, models.StatusObsolete, orig.Status)

	repl, err := d.GetAssetBySerial(ctx, "LAP-150")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, repl.Status)
	assert.Equal(t, "Jane Doe", repl.Holder)
	assert.Equal(t, "HQ", repl.Location)
	assert.Equal(t, "Finance", repl.Department)

	records, err := d.ListReplacements(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "LAP-099", records[0].OriginalSerial)
	assert.Equal(t, "LAP-150", records[0].ReplacementSerial)
	assert.Equal(t, ticket.ID, records[0].TicketID)

	after := len(auditFor(t, d, "LAP-099")) + len(auditFor(t, d, "LAP-150"))
	assert.Equal(t, 2, after-before)

	stored, err := d.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsObsolete)
	assert.True(t, stored.RequiresReplacement)

	disposed, err := s.DisposeAsset(ctx, actor, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisposed, disposed.Status)
}

func TestMaintenance_ReplacementOfStoredAssetBecomesActive(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "LAP-099", models.TypeLaptop)
	mustCreate(t, s, "LAP-150", models.TypeLaptop)

	ticket, err := s.OpenTicket(ctx, actor, inventory.TicketInput{
		AssetSerial: "LAP-099", Title: "Cracked hinge", Priority: models.PriorityLow,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInStore, ticket.PriorAssetStatus)

	_, err = s.ResolveTicket(ctx, actor, ticket.ID, lifecycle.Resolution{
		Resolution:        "Chassis broken",
		IsObsolete:        true,
		ObsoleteReason:    "Beyond economic repair",
		ReplacementSerial: "LAP-150",
	})
	require.NoError(t, err)

	repl, err := d.GetAssetBySerial(ctx, "LAP-150")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, repl.Status)
	assert.Equal(t, models.CustodianHolder, repl.Holder)

	records, err := d.ListReplacements(ctx, "LAP-150")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ReplacementDeployed, records[0].Status)
}

func TestSubmitAction_AuditFailureRollsBackEverything(t *testing.T) {
	ids := &collidingIDs{}
	s, d := newService(t, inventory.WithIDs(ids.next))
	ctx := context.Background()
	mustCreate(t, s, "CPU-001", models.TypeCPU)
	mustCreate(t, s, "MON-001", models.TypeMonitor)
	ids.reuse = auditFor(t, d, "CPU-001")[0].ID

	_, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:          models.ActionNewDeployment,
		Deployment:      models.DeploymentPair,
		PairType:        models.PairPC,
		PrimarySerial:   "CPU-001",
		SecondarySerial: "MON-001",
		To:              models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
	})
	require.Error(t, err)

	for _, serial := range []string{"CPU-001", "MON-001"} {
		a, err := d.GetAssetBySerial(ctx, serial)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInStore, a.Status, serial)
		assert.Equal(t, models.CustodianHolder, a.Holder, serial)
		assert.Empty(t, a.PairID, serial)
		assert.Equal(t, int64(1), a.Version, serial)
		assert.Len(t, auditFor(t, d, serial), 1, serial)
	}
	pairs, err := d.ListPairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs)
	actions, err := d.ListActions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestResolveTicket_AuditFailureRollsBackEverything(t *testing.T) {
	ids := &collidingIDs{}
	s, d := newService(t, inventory.WithIDs(ids.next))
	ctx := context.Background()
	mustCreate(t, s, "LAP-099", models.TypeLaptop)
	mustCreate(t, s, "LAP-150", models.TypeLaptop)

	ticket, err := s.OpenTicket(ctx, actor, inventory.TicketInput{
		AssetSerial: "LAP-099", Title: "Will not boot", Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	ids.reuse = auditFor(t, d, "LAP-099")[0].ID
	before := len(auditFor(t, d, "LAP-099"))

	_, err = s.ResolveTicket(ctx, actor, ticket.ID, lifecycle.Resolution{
		Resolution:        "Motherboard failure",
		IsObsolete:        true,
		ObsoleteReason:    "Beyond economic repair",
		ReplacementSerial: "LAP-150",
	})
	require.Error(t, err)

	orig, err := d.GetAssetBySerial(ctx, "LAP-099")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderMaintenance, orig.Status)
	repl, err := d.GetAssetBySerial(ctx, "LAP-150")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInStore, repl.Status)
	assert.Equal(t, models.CustodianHolder, repl.Holder)

	stored, err := d.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketOpen, stored.Status)
	assert.False(t, stored.IsObsolete)
	assert.Empty(t, stored.ReplacementSerial)

	records, err := d.ListReplacements(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, auditFor(t, d, "LAP-099"), before)
	assert.Len(t, auditFor(t, d, "LAP-150"), 1)
}

func TestMaintenance_ResolveRestoresStatus(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "PRN-001", models.TypePrinter)

	ticket, err := s.OpenTicket(ctx, actor, inventory.TicketInput{AssetSerial: "PRN-001", Title: "Paper jam"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHardware, ticket.Category)
	assert.Equal(t, models.PriorityMedium, ticket.Priority)

	_, err = s.OpenTicket(ctx, actor, inventory.TicketInput{AssetSerial: "PRN-001", Title: "Again"})
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)

	_, err = s.UpdateTicketStatus(ctx, actor, ticket.ID, models.TicketInProgress)
	require.NoError(t, err)
	_, err = s.UpdateTicketStatus(ctx, actor, ticket.ID, models.TicketClosed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = s.ResolveTicket(ctx, actor, ticket.ID, lifecycle.Resolution{Resolution: "Cleared rollers", Cost: 15})
	require.NoError(t, err)

	a, err := d.GetAssetBySerial(ctx, "PRN-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInStore, a.Status)

	closed, err := s.UpdateTicketStatus(ctx, actor, ticket.ID, models.TicketClosed)
	require.NoError(t, err)
	assert.Equal(t, models.TicketClosed, closed.Status)
}

func TestMaintenance_ObsoletePairMemberDissolvesPair(t *testing.T) {
	s, d := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "CPU-001", models.TypeCPU)
	mustCreate(t, s, "MON-001", models.TypeMonitor)
	action, err := s.SubmitAction(ctx, actor, inventory.ActionInput{
		Action:          models.ActionNewDeployment,
		Deployment:      models.DeploymentPair,
		PairType:        models.PairPC,
		PrimarySerial:   "CPU-001",
		SecondarySerial: "MON-001",
		To:              models.Snapshot{Holder: "Jane Doe", Location: "HQ", Department: "Finance"},
	})
	require.NoError(t, err)

	ticket, err := s.OpenTicket(ctx, actor, inventory.TicketInput{AssetSerial: "MON-001", Title: "Cracked"})
	require.NoError(t, err)
	_, err = s.ResolveTicket(ctx, actor, ticket.ID, lifecycle.Resolution{
		Resolution: "Panel cracked", IsObsolete: true, ObsoleteReason: "Cracked panel",
	})
	require.NoError(t, err)

	_, err = d.GetPair(ctx, action.PairID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	cpu, err := d.GetAssetBySerial(ctx, "CPU-001")
	require.NoError(t, err)
	assert.Empty(t, cpu.PairID)
	assert.Equal(t, models.StatusActive, cpu.Status)
}

func TestLoginAndUsers(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	created, err := s.BootstrapAdmin(ctx, "", "k00000001", "secret1")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.BootstrapAdmin(ctx, "", "K00000002", "secret1")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := s.Login(ctx, "k00000001", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	require.NotNil(t, u.LastLogin)

	_, err = s.Login(ctx, "K00000001", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = s.Login(ctx, "K99999999", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = s.Login(ctx, "X00000001", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = s.Login(ctx, "K00000001", "short")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	off := false
	_, err = s.UpdateUser(ctx, u.ID, inventory.UserInput{IsActive: &off})
	require.NoError(t, err)
	_, err = s.Login(ctx, "K00000001", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCreateHolder(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	h, err := s.CreateHolder(ctx, inventory.HolderInput{FullName: "Jane Doe", DomainAccount: "t12345678"})
	require.NoError(t, err)
	assert.Equal(t, "T12345678", h.DomainAccount)

	_, err = s.CreateHolder(ctx, inventory.HolderInput{FullName: "Jane Doe", DomainAccount: "T12345678"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	_, err = s.CreateHolder(ctx, inventory.HolderInput{FullName: "Bad", DomainAccount: "A12345678"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDomainAccount)
}

func TestDashboard(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	mustCreate(t, s, "PC-001", models.TypePC)
	mustCreate(t, s, "VDI-001", models.TypeVDI)
	mustCreate(t, s, "LAP-001", models.TypeLaptop)
	_, err := s.OpenTicket(ctx, actor, inventory.TicketInput{AssetSerial: "LAP-001", Title: "Battery"})
	require.NoError(t, err)

	stats, err := s.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAssets)
	assert.Equal(t, 2, stats.InStore)
	assert.Equal(t, 1, stats.InMaintenance)
	assert.Equal(t, 1, stats.PCAssets)
	assert.Equal(t, 1, stats.VDIAssets)
	assert.Equal(t, 1, stats.OpenTickets)
	assert.Len(t, stats.RecentActivities, 4)

	var values map[string]any
	require.NoError(t, json.Unmarshal(stats.RecentActivities[0].NewValues, &values))
	assert.Equal(t, "Under Maintenance", values["status"])
}
