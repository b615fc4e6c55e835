package inventory

import (
	"context"

	"github.com/samber/lo"

	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/models"
)

// RecentActivityLimit is the number of audit entries on the dashboard.
const RecentActivityLimit = 10

// Dashboard summarises the inventory.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	byStatus, err := s.db.CountAssetsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.db.CountAssetsByType(ctx)
	if err != nil {
		return nil, err
	}
	totalPairs, deployedPairs, err := s.db.CountPairs(ctx)
	if err != nil {
		return nil, err
	}
	openTickets, err := s.db.CountOpenTickets(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.db.ListAudit(ctx, db.AuditFilter{Limit: RecentActivityLimit})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*models.AuditLog{}
	}

	return &models.DashboardStats{
		TotalAssets:      lo.Sum(lo.Values(byStatus)),
		ActiveAssets:     byStatus[models.StatusActive],
		InStore:          byStatus[models.StatusInStore],
		InMaintenance:    byStatus[models.StatusUnderMaintenance],
		ObsoleteAssets:   byStatus[models.StatusObsolete],
		DisposedAssets:   byStatus[models.StatusDisposed],
		PCAssets:         byType[models.TypePC],
		VDIAssets:        byType[models.TypeVDI],
		TotalPairs:       totalPairs,
		DeployedPairs:    deployedPairs,
		OpenTickets:      openTickets,
		RecentActivities: recent,
	}, nil
}
