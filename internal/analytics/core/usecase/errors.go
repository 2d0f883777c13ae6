package usecase

import "errors"

var (
	ErrInvalidUser         = errors.New("invalid user id")
	ErrInvalidOrganization = errors.New("invalid organization id")
	ErrInvalidTimeframe    = errors.New("invalid timeframe")
	ErrInvalidMetric       = errors.New("invalid metric name")
	ErrAggregationFailed   = errors.New("aggregation failed")
	ErrQueryTimeout        = errors.New("query timed out")
)
