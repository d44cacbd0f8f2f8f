package core

import (
	"context"
	"time"
)

// Metric names emitted by the receive pipeline.
const (
	MetricReceiveTotal         = "lzreceiver.receive.total"
	MetricReceiveDurationMS    = "lzreceiver.receive.duration_ms"
	MetricComposeTotal         = "lzreceiver.compose.total"
	MetricComposeDurationMS    = "lzreceiver.compose.duration_ms"
	MetricComposeJobDurationMS = "lzreceiver.compose_job.duration_ms"

	metricComposeJobPrefix = "lzreceiver.compose_job."
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// ComposeJobMetric names the counter for a compose job lifecycle event.
func ComposeJobMetric(event string) string {
	if event == "" {
		event = "unknown"
	}
	return metricComposeJobPrefix + event
}

// OutcomeTags tags a finished operation with its status and, for receive
// errors, the error code as reason.
func OutcomeTags(err error) map[string]string {
	if err == nil {
		return map[string]string{"status": OutcomeSuccess}
	}
	tags := map[string]string{"status": OutcomeFailure}
	if code := ReceiveErrorCode(err); code != "" {
		tags["reason"] = code
	}
	return tags
}

// RecordOutcome counts one operation under total and observes its elapsed
// milliseconds under duration. A nil recorder is a no-op.
func RecordOutcome(ctx context.Context, recorder MetricsRecorder, total, duration string, elapsed time.Duration, tags map[string]string) {
	if recorder == nil {
		return
	}
	recorder.IncCounter(ctx, total, 1, cloneTags(tags))
	recorder.ObserveHistogram(ctx, duration, float64(elapsed.Milliseconds()), cloneTags(tags))
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
