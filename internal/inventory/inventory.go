// Package inventory runs every state-changing operation: it loads the rows an
// operation touches, asks the lifecycle engine for a plan, and writes the
// plan together with its audit entries in one transaction.
package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/db"
	"github.com/tphummel/ict_assets/internal/models"
)

// Service orchestrates lifecycle, maintenance and asset operations.
type Service struct {
	db  *db.DB
	now func() time.Time
	ids func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides the identifier generator.
func WithIDs(ids func() string) Option {
	return func(s *Service) { s.ids = ids }
}

// New returns a Service backed by store.
func New(store *db.DB, opts ...Option) *Service {
	s := &Service{
		db:  store,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		ids: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying store for read-only queries.
func (s *Service) DB() *db.DB {
	return s.db
}

// audit fills in identity and time and appends entry inside tx.
func (s *Service) audit(ctx context.Context, tx *db.DB, actor string, now time.Time, entry models.AuditLog) error {
	entry.ID = s.ids()
	entry.PerformedBy = actor
	entry.Timestamp = now
	return tx.AppendAudit(ctx, &entry)
}

// logRejection records an engine rejection at Info; anything else is a
// backend failure.
func logRejection(op string, err error, attrs ...any) {
	if apperrors.CodeOf(err) != "" {
		slog.Info(op+" rejected", append(attrs, "code", apperrors.CodeOf(err), "reason", apperrors.MessageOf(err))...)
		return
	}
	slog.Error(op+" failed", append(attrs, "error", err)...)
}
