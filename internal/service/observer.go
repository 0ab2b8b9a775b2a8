package service

import "time"

type AggregationObserver interface {
	ObserveAggregation(role, result string, duration time.Duration)
	BranchFailed(stage string)
}

type GradingObserver interface {
	ObserveGrading(result string)
	ObserveEvent(routingKey, result string)
}

type noopObserver struct{}

func (noopObserver) ObserveAggregation(string, string, time.Duration) {}
func (noopObserver) BranchFailed(string)                              {}
func (noopObserver) ObserveGrading(string)                            {}
func (noopObserver) ObserveEvent(string, string)                      {}
