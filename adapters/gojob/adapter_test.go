package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-lzreceiver/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

func TestComposeJobMessageMappingRoundTrip(t *testing.T) {
	channel := core.ChannelAddress(1)
	original := core.NewComposeJobMessage(JobIDComposeDeliver, core.ComposeJob{
		From:    channel,
		To:      channel,
		GUID:    core.GUID{0x0a, 0x0b},
		Message: []byte{0x01, 0x02, 0x03},
	})

	converted := ToExecutionMessage(original)
	if converted == nil {
		t.Fatalf("expected converted message")
	}
	if string(converted.DedupPolicy) != "drop" {
		t.Fatalf("expected drop dedup policy, got %q", converted.DedupPolicy)
	}
	roundTrip := FromExecutionMessage(converted)
	if roundTrip.JobID != JobIDComposeDeliver {
		t.Fatalf("expected job id %q, got %q", JobIDComposeDeliver, roundTrip.JobID)
	}
	if roundTrip.IdempotencyKey != original.IdempotencyKey {
		t.Fatalf("expected idempotency key %q, got %q", original.IdempotencyKey, roundTrip.IdempotencyKey)
	}

	parsed, err := core.ParseComposeJobMessage(roundTrip)
	if err != nil {
		t.Fatalf("parse compose job: %v", err)
	}
	if parsed.To != channel || parsed.GUID != (core.GUID{0x0a, 0x0b}) || string(parsed.Message) != string([]byte{0x01, 0x02, 0x03}) {
		t.Fatalf("compose job did not survive mapping: %+v", parsed)
	}
}

func TestEnqueueAndDequeueAdapters(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	enqueueAdapter := NewEnqueuerAdapter(enqueuer)

	msg := &core.JobExecutionMessage{
		JobID:          JobIDComposeDeliver,
		ScriptPath:     core.ComposeJobScriptPath,
		Parameters:     map[string]any{"index": "0"},
		IdempotencyKey: "idem-compose",
		DedupPolicy:    "drop",
	}
	if err := enqueueAdapter.Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDComposeDeliver {
		t.Fatalf("expected mapped go-job message")
	}

	dequeuer := &stubQueueDequeuer{delivery: &stubQueueDelivery{msg: enqueuer.last}}
	dequeueAdapter := NewDequeuerAdapter(dequeuer, RetryPolicy{})
	delivery, err := dequeueAdapter.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	got := delivery.Message()
	if got == nil || got.JobID != JobIDComposeDeliver {
		t.Fatalf("expected mapped core message")
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !dequeuer.delivery.(*stubQueueDelivery).acked {
		t.Fatalf("expected ack on underlying delivery")
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{
			JobID:      JobIDComposeDeliver,
			ScriptPath: core.ComposeJobScriptPath,
		},
	}
	adapter := NewDeliveryAdapter(rawDelivery, RetryPolicy{
		MaxAttempts:     3,
		MaxDelay:        10 * time.Second,
		DeadLetterOnMax: true,
	})

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   30 * time.Second,
		Requeue: true,
		Reason:  "transient",
	}, 1); err != nil {
		t.Fatalf("nack attempt 1: %v", err)
	}
	if rawDelivery.nackOpts.Delay != 10*time.Second {
		t.Fatalf("expected delay to be bounded, got %s", rawDelivery.nackOpts.Delay)
	}
	if !rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected message to be requeued before max attempts")
	}

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   time.Second,
		Requeue: true,
		Reason:  "still failing",
	}, 3); err != nil {
		t.Fatalf("nack max attempt: %v", err)
	}
	if rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected no requeue once max attempts is reached")
	}
	if !rawDelivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter on max attempts")
	}
}

func TestWorkerHookAdapterEventMapping(t *testing.T) {
	now := time.Now().UTC().Add(-time.Second)
	coreHook := &capturingHook{}
	adapter := NewWorkerHookAdapter(coreHook)

	evt := worker.Event{
		Message: &job.ExecutionMessage{
			JobID:          JobIDComposeDeliver,
			ScriptPath:     core.ComposeJobScriptPath,
			IdempotencyKey: "idem-compose",
		},
		Attempt:   2,
		Delay:     5 * time.Second,
		Err:       errors.New("retry"),
		StartedAt: now,
		Duration:  250 * time.Millisecond,
	}

	adapter.OnRetry(context.Background(), evt)
	if coreHook.last.Message == nil {
		t.Fatalf("expected worker message mapping")
	}
	if coreHook.last.Message.JobID != JobIDComposeDeliver {
		t.Fatalf("expected job id mapping, got %q", coreHook.last.Message.JobID)
	}
	if coreHook.last.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", coreHook.last.Attempt)
	}
	if coreHook.last.Delay != 5*time.Second {
		t.Fatalf("expected delay 5s, got %s", coreHook.last.Delay)
	}
	if coreHook.last.Duration != 250*time.Millisecond {
		t.Fatalf("expected duration mapping")
	}
	if coreHook.last.StartedAt.IsZero() {
		t.Fatalf("expected started_at mapping")
	}
	if coreHook.last.Err == nil || coreHook.last.Err.Error() != "retry" {
		t.Fatalf("expected error mapping")
	}
}

func TestObservedHook_LogsAndCountsEvents(t *testing.T) {
	metrics := &countingMetrics{counters: map[string]int64{}}
	hook := NewObservedHook(nil, metrics)
	msg := &core.JobExecutionMessage{JobID: JobIDComposeDeliver}

	hook.OnStart(context.Background(), core.JobWorkerEvent{Message: msg, Attempt: 1})
	hook.OnFailure(context.Background(), core.JobWorkerEvent{
		Message:  msg,
		Attempt:  1,
		Duration: 20 * time.Millisecond,
		Err:      core.NewReceiveError(core.ErrorClearFailed, "", nil),
	})

	if metrics.counters["lzreceiver.compose_job.start"] != 1 {
		t.Fatalf("expected start counter, got %#v", metrics.counters)
	}
	if metrics.counters["lzreceiver.compose_job.failure"] != 1 {
		t.Fatalf("expected failure counter, got %#v", metrics.counters)
	}
	if metrics.histograms != 1 {
		t.Fatalf("expected one duration observation, got %d", metrics.histograms)
	}
}

type countingMetrics struct {
	counters   map[string]int64
	histograms int
}

func (m *countingMetrics) IncCounter(_ context.Context, name string, value int64, _ map[string]string) {
	m.counters[name] += value
}

func (m *countingMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {
	m.histograms++
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

type capturingHook struct {
	last core.JobWorkerEvent
}

func (h *capturingHook) OnStart(context.Context, core.JobWorkerEvent)   {}
func (h *capturingHook) OnSuccess(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnFailure(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnRetry(_ context.Context, event core.JobWorkerEvent) {
	h.last = event
}
