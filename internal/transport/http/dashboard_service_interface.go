package http

import (
	"context"
	"io"

	"policydash/internal/session"
	"policydash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the HTTP layer
// depends on.
type DashboardServiceInterface interface {
	Upload(ctx context.Context, sessionID, filename, format string, r io.Reader) (*session.Session, error)
	Options(ctx context.Context, sessionID string) (domain.FilterOptions, error)
	Dashboard(ctx context.Context, sessionID string, criteria domain.FilterCriteria, page, pageSize int) (*domain.Dashboard, error)
	Chart(ctx context.Context, sessionID, chartID string, scope domain.ScopeName, criteria domain.FilterCriteria) (*domain.Artifact, error)
	Export(ctx context.Context, sessionID string, format domain.ExportFormat, criteria domain.FilterCriteria) (*domain.Artifact, error)
	Report(ctx context.Context, sessionID string, criteria domain.FilterCriteria) (*domain.Artifact, error)
	DeleteSession(ctx context.Context, sessionID string) bool
}
