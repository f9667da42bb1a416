package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/bookshelf-ua/api/internal/domain"
)

type stubHealthRepository struct {
	report domain.SystemHealthReport
	err    error
}

func (s *stubHealthRepository) Collect(context.Context) (domain.SystemHealthReport, error) {
	checks := make(map[string]domain.SystemHealthCheck, len(s.report.Checks))
	for name, check := range s.report.Checks {
		checks[name] = check
	}
	report := s.report
	report.Checks = checks
	return report, s.err
}

func newTestSystemService(t *testing.T, repo *stubHealthRepository, required ...string) SystemService {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewSystemService(SystemServiceDeps{
		Health:   repo,
		Required: required,
		Build:    BuildInfo{Version: "1.4.0", Environment: "prod", StartedAt: start},
		Clock:    func() time.Time { return start.Add(5 * time.Minute) },
	})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}
	return svc
}

func TestSystemServiceHealthReportStampsBuild(t *testing.T) {
	repo := &stubHealthRepository{report: domain.SystemHealthReport{
		Checks: map[string]domain.SystemHealthCheck{"postgres": {Status: domain.HealthStatusOK}},
	}}
	report, err := newTestSystemService(t, repo, "postgres").HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status != domain.HealthStatusOK || report.Version != "1.4.0" || report.Environment != "prod" {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Uptime != 5*time.Minute || report.GeneratedAt.IsZero() {
		t.Fatalf("expected uptime 5m and generatedAt, got %s %s", report.Uptime, report.GeneratedAt)
	}
}

func TestSystemServiceReadinessByDependencyRole(t *testing.T) {
	cases := []struct {
		name   string
		checks map[string]domain.SystemHealthCheck
		want   string
	}{
		{
			name: "optional dependency failing degrades",
			checks: map[string]domain.SystemHealthCheck{
				"firestore": {Status: domain.HealthStatusOK},
				"pubsub":    {Status: domain.HealthStatusError, Detail: "timeout"},
			},
			want: domain.HealthStatusDegraded,
		},
		{
			name: "store failing is an error",
			checks: map[string]domain.SystemHealthCheck{
				"firestore": {Status: domain.HealthStatusDegraded},
				"pubsub":    {Status: domain.HealthStatusOK},
			},
			want: domain.HealthStatusError,
		},
		{
			name: "store missing from report is an error",
			checks: map[string]domain.SystemHealthCheck{
				"pubsub": {Status: domain.HealthStatusOK},
			},
			want: domain.HealthStatusError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubHealthRepository{report: domain.SystemHealthReport{Status: domain.HealthStatusOK, Checks: tc.checks}}
			report, err := newTestSystemService(t, repo, " firestore ", "firestore").HealthReport(context.Background())
			if err != nil {
				t.Fatalf("HealthReport: %v", err)
			}
			if report.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, report.Status)
			}
			if _, ok := report.Checks["firestore"]; !ok {
				t.Fatalf("expected firestore check in report, got %+v", report.Checks)
			}
		})
	}
}

func TestSystemServiceHealthReportErrors(t *testing.T) {
	expected := errors.New("collect failed")
	_, err := newTestSystemService(t, &stubHealthRepository{err: expected}).HealthReport(context.Background())
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestNewSystemServiceRequiresRepository(t *testing.T) {
	if _, err := NewSystemService(SystemServiceDeps{}); err == nil {
		t.Fatalf("expected error when repository missing")
	}
}
