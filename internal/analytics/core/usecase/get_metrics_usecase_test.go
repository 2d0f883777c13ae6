package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketing-analytics-service/internal/analytics/core/ports"
	"marketing-analytics-service/internal/analytics/core/usecase"
)

func TestGetMetrics_ComposesSummaryAndSeries(t *testing.T) {
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	reader := &fakeMetricsReader{
		ContentStatusFn: func(userID string, rng ports.DateRange) ([]ports.StatusCount, error) {
			return []ports.StatusCount{
				{Status: "PUBLISHED", Count: 6},
				{Status: "DRAFT", Count: 4},
			}, nil
		},
		CampaignStatusFn: func(orgIDs []string, rng ports.DateRange) ([]ports.StatusCount, error) {
			return []ports.StatusCount{
				{Status: "ACTIVE", Count: 1},
				{Status: "COMPLETED", Count: 2},
			}, nil
		},
		ContentDaysFn: func(userID string, rng ports.DateRange) ([]ports.DayCount, error) {
			return []ports.DayCount{{Day: day, Count: 3}}, nil
		},
	}
	cache := newFakeCache()
	mon := &fakeMonitor{}

	uc := usecase.NewGetMetricsUseCase(reader, cache, mon, fixedClock())

	out, err := uc.Execute(context.Background(), usecase.GetMetricsInput{UserID: "user-1", Timeframe: "7d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Summary.TotalContent != 10 || out.Summary.PublishedContent != 6 {
		t.Fatalf("unexpected content summary: %+v", out.Summary)
	}
	if out.Summary.PublishRate != 60 {
		t.Fatalf("expected publish rate 60, got %v", out.Summary.PublishRate)
	}
	if out.Summary.ActiveCampaigns != 1 || out.Summary.TotalCampaigns != 3 {
		t.Fatalf("unexpected campaign summary: %+v", out.Summary)
	}

	if len(out.TimeSeries) != 7 {
		t.Fatalf("expected 7 series points, got %d", len(out.TimeSeries))
	}
	for _, p := range out.TimeSeries {
		want := int64(0)
		if p.Date == "2025-06-14" {
			want = 3
		}
		if p.Content != want {
			t.Fatalf("day %s: expected content=%d, got %d", p.Date, want, p.Content)
		}
	}

	if len(out.Metrics) != 4 {
		t.Fatalf("expected 4 metric cards, got %d", len(out.Metrics))
	}
	if out.Metrics[2].Value != "60.0%" {
		t.Fatalf("expected publish rate card 60.0%%, got %s", out.Metrics[2].Value)
	}

	if !mon.last().completed || mon.last().cacheHit {
		t.Fatalf("expected completed miss tracking, got %+v", mon.last())
	}
}

func TestGetMetrics_SecondCallServedFromCache(t *testing.T) {
	reader := &fakeMetricsReader{}
	cache := newFakeCache()
	mon := &fakeMonitor{}

	uc := usecase.NewGetMetricsUseCase(reader, cache, mon, fixedClock())
	in := usecase.GetMetricsInput{UserID: "user-1", Timeframe: "7d"}

	if _, err := uc.Execute(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.statusCalls != 1 {
		t.Fatalf("expected one read, got %d", reader.statusCalls)
	}

	if _, err := uc.Execute(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.statusCalls != 1 {
		t.Fatalf("expected cache to absorb second read, got %d reads", reader.statusCalls)
	}
	if !mon.last().cacheHit {
		t.Fatalf("expected second call tracked as cache hit")
	}
}

func TestGetMetrics_OrganizationOverrideSkipsMembershipLookup(t *testing.T) {
	reader := &fakeMetricsReader{
		CampaignStatusFn: func(orgIDs []string, rng ports.DateRange) ([]ports.StatusCount, error) {
			if len(orgIDs) != 1 || orgIDs[0] != "org-override" {
				t.Fatalf("expected override org, got %v", orgIDs)
			}
			return nil, nil
		},
	}
	uc := usecase.NewGetMetricsUseCase(reader, newFakeCache(), &fakeMonitor{}, fixedClock())

	_, err := uc.Execute(context.Background(), usecase.GetMetricsInput{
		UserID:         "user-1",
		OrganizationID: "org-override",
		Timeframe:      "7d",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.orgCalls != 0 {
		t.Fatalf("membership lookup should be skipped with an org override")
	}
}

func TestGetMetrics_InvalidInput(t *testing.T) {
	reader := &fakeMetricsReader{}
	uc := usecase.NewGetMetricsUseCase(reader, newFakeCache(), &fakeMonitor{}, fixedClock())

	if _, err := uc.Execute(context.Background(), usecase.GetMetricsInput{UserID: ""}); !errors.Is(err, usecase.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), usecase.GetMetricsInput{UserID: "u", Timeframe: "14d"}); !errors.Is(err, usecase.ErrInvalidTimeframe) {
		t.Fatalf("expected ErrInvalidTimeframe, got %v", err)
	}
	if reader.statusCalls != 0 {
		t.Fatalf("reader should not be called on invalid input")
	}
}

func TestGetMetrics_ReaderErrorPropagates(t *testing.T) {
	readErr := errors.New("db down")
	reader := &fakeMetricsReader{
		ContentStatusFn: func(userID string, rng ports.DateRange) ([]ports.StatusCount, error) {
			return nil, readErr
		},
	}
	cache := newFakeCache()
	mon := &fakeMonitor{}
	uc := usecase.NewGetMetricsUseCase(reader, cache, mon, fixedClock())

	_, err := uc.Execute(context.Background(), usecase.GetMetricsInput{UserID: "user-1", Timeframe: "7d"})
	if !errors.Is(err, readErr) {
		t.Fatalf("expected reader error, got %v", err)
	}
	if !mon.last().failed || mon.last().errMessage != "db down" {
		t.Fatalf("expected tracked error, got %+v", mon.last())
	}
	if cache.sets != 0 {
		t.Fatalf("nothing should be cached on failure")
	}
}
