package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/repositories"
)

// BuildInfo identifies the running binary on health endpoints.
type BuildInfo struct {
	Version     string
	Environment string
	StartedAt   time.Time
}

// SystemServiceDeps configures readiness reporting. Required lists the dependency checks orders
// cannot be written without; any other failing dependency only degrades the report.
type SystemServiceDeps struct {
	Health   repositories.HealthRepository
	Required []string
	Build    BuildInfo
	Clock    func() time.Time
}

type systemService struct {
	health   repositories.HealthRepository
	required []string
	build    BuildInfo
	clock    func() time.Time
}

var _ SystemService = (*systemService)(nil)

// NewSystemService builds the readiness reporter behind /readyz.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	var required []string
	for _, name := range deps.Required {
		name = strings.TrimSpace(name)
		if name != "" && !slices.Contains(required, name) {
			required = append(required, name)
		}
	}

	build := deps.Build
	if build.StartedAt.IsZero() {
		build.StartedAt = clock()
	}
	return &systemService{
		health:   deps.Health,
		required: required,
		build:    build,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	report, err := s.health.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, fmt.Errorf("system service: collect health: %w", err)
	}

	now := s.clock()
	if report.Checks == nil {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	for _, name := range s.required {
		if _, ok := report.Checks[name]; !ok {
			report.Checks[name] = domain.SystemHealthCheck{
				Status:    domain.HealthStatusError,
				Detail:    "not reported",
				CheckedAt: now,
			}
		}
	}
	report.Status = s.readiness(report.Checks)
	report.Version = s.build.Version
	report.Environment = s.build.Environment
	report.Uptime = now.Sub(s.build.StartedAt)
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = now
	}
	return report, nil
}

// readiness is error when a required dependency fails and degraded when only optional ones do.
func (s *systemService) readiness(checks map[string]domain.SystemHealthCheck) string {
	status := domain.HealthStatusOK
	for name, check := range checks {
		if check.Status == domain.HealthStatusOK || check.Status == "" {
			continue
		}
		if slices.Contains(s.required, name) {
			return domain.HealthStatusError
		}
		status = domain.HealthStatusDegraded
	}
	return status
}
