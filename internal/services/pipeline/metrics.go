package pipeline

import "time"

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordDecision(string)                         {}
func (n *NoopMetricsCollector) RecordCommit(bool)                             {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                         {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                        {}
func (n *NoopMetricsCollector) RecordOnlineUpdateFailure()                    {}
func (n *NoopMetricsCollector) RecordError(string, string)                    {}
