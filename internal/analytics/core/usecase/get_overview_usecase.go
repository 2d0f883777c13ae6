package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/ports"
)

const defaultOverviewTimeframe = "7d"

type GetOverviewInput struct {
	UserID    string
	Timeframe string // "" = 7d
}

// GetOverviewUseCase lists per-record analytics rows joined with client and
// campaign names across all of the user's organizations.
type GetOverviewUseCase struct {
	reader  ports.MetricsReaderPort
	cache   ports.CachePort
	monitor ports.MonitorPort
	now     func() time.Time
}

func NewGetOverviewUseCase(reader ports.MetricsReaderPort, cache ports.CachePort, monitor ports.MonitorPort, now func() time.Time) *GetOverviewUseCase {
	if now == nil {
		now = time.Now
	}
	return &GetOverviewUseCase{reader: reader, cache: cache, monitor: monitor, now: now}
}

func (uc *GetOverviewUseCase) Execute(ctx context.Context, in GetOverviewInput) ([]domain.OverviewRow, error) {
	if in.UserID == "" {
		return nil, ErrInvalidUser
	}
	if in.Timeframe == "" {
		in.Timeframe = defaultOverviewTimeframe
	}
	timeframe, rng, err := resolveTimeframe(uc.now(), in.Timeframe)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"user": in.UserID, "timeframe": timeframe}
	tracker := uc.monitor.StartQuery(uuid.NewString(), "overview", "", in.UserID)

	var cached []domain.OverviewRow
	if uc.cache.Get(ctx, "overview", params, &cached) {
		tracker.SetDataMetrics(payloadSize(cached), len(cached))
		tracker.Complete(true)
		return cached, nil
	}

	orgIDs, err := uc.reader.UserOrganizationIDs(ctx, in.UserID)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}

	rows, err := uc.reader.OverviewRows(ctx, orgIDs, rng)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}

	uc.cache.Set(ctx, "overview", params, rows)

	tracker.SetDataMetrics(payloadSize(rows), len(rows))
	tracker.Complete(false)
	return rows, nil
}
