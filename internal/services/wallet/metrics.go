package wallet

import (
	"time"

	apperrors "civicreward/internal/errors"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)          {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                         {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                        {}
func (n *NoopMetricsCollector) RecordError(string, string)                    {}

func (s *service) observe(operation string, start time.Time, err error) {
	s.metrics.RecordOperationDuration(operation, time.Since(start))
	if err == nil {
		s.metrics.RecordOperationResult(operation, "success")
		return
	}
	s.metrics.RecordOperationResult(operation, "failure")
	errType := "internal"
	if de, ok := apperrors.As(err); ok {
		errType = de.Code
	}
	s.metrics.RecordError(operation, errType)
}
