package inbound

import (
	"context"
	"testing"

	"github.com/goliatone/go-lzreceiver/core"
)

func receiveComposed(t *testing.T, f fixture, nonce uint64) core.ReceiveParams {
	t.Helper()
	params := receiveParams(testPeer, nonce, swapPayload(t, core.MessageKindComposed, core.ChannelAddress(testChannel)))
	if _, err := f.dispatch.Receive(context.Background(), testChannel, params); err != nil {
		t.Fatalf("receive composed: %v", err)
	}
	return params
}

func TestCompose_CompletesSecondLeg(t *testing.T) {
	f := newFixture(t)
	params := receiveComposed(t, f, 1)
	handler := NewComposeHandler(f.svc)

	result, err := handler.Compose(context.Background(), testChannel, core.ComposeParams{
		From:    core.ChannelAddress(testChannel),
		GUID:    params.GUID,
		Message: params.Message,
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if result.ComposedCount != 1 || result.Command.Kind != core.MessageKindComposed {
		t.Fatalf("unexpected compose result %+v", result)
	}

	_, err = handler.Compose(context.Background(), testChannel, core.ComposeParams{
		From:    core.ChannelAddress(testChannel),
		GUID:    params.GUID,
		Message: params.Message,
	})
	if !core.IsReceiveError(err, core.ErrorClearFailed) {
		t.Fatalf("expected second compose to fail at clear, got %v", err)
	}
	channel, _ := f.svc.GetChannel(context.Background(), testChannel)
	if channel.ComposedCount != 1 || channel.ReceivedCount != 1 {
		t.Fatalf("unexpected counters %+v", channel)
	}
}

func TestCompose_RejectsForeignSender(t *testing.T) {
	f := newFixture(t)
	params := receiveComposed(t, f, 1)
	handler := NewComposeHandler(f.svc)

	_, err := handler.Compose(context.Background(), testChannel, core.ComposeParams{
		From:    testPeer,
		GUID:    params.GUID,
		Message: params.Message,
	})
	if !core.IsReceiveError(err, core.ErrorRemoteAddressMismatch) {
		t.Fatalf("expected remote address mismatch, got %v", err)
	}
}

func TestComposeWorker_DrainsQueuedJobs(t *testing.T) {
	f := newFixture(t)
	queue := core.NewMemoryJobQueue()
	first := receiveComposed(t, f, 1)
	second := receiveComposed(t, f, 2)
	for _, params := range []core.ReceiveParams{first, second} {
		job := core.ComposeJob{
			From:    core.ChannelAddress(testChannel),
			To:      core.ChannelAddress(testChannel),
			GUID:    params.GUID,
			Message: params.Message,
		}
		if err := queue.Enqueue(context.Background(), core.NewComposeJobMessage("", job)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	hook := &countingHook{}
	worker := NewComposeWorker(queue, NewComposeHandler(f.svc), 3)
	worker.Hook = hook
	processed, err := worker.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if processed != 2 || hook.successes != 2 {
		t.Fatalf("expected two successful jobs, processed=%d successes=%d", processed, hook.successes)
	}
	channel, _ := f.svc.GetChannel(context.Background(), testChannel)
	if channel.ComposedCount != 2 {
		t.Fatalf("expected composed count 2, got %d", channel.ComposedCount)
	}
	if queue.Len() != 0 {
		t.Fatalf("expected empty queue")
	}
}

func TestComposeWorker_DeadLettersConsumedFailures(t *testing.T) {
	f := newFixture(t)
	queue := core.NewMemoryJobQueue()
	job := core.ComposeJob{
		From:    core.ChannelAddress(testChannel),
		To:      core.ChannelAddress(testChannel),
		GUID:    core.GUID{0x77},
		Message: []byte{0x01},
	}
	if err := queue.Enqueue(context.Background(), core.NewComposeJobMessage("", job)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	hook := &countingHook{}
	worker := NewComposeWorker(queue, NewComposeHandler(f.svc), 3)
	worker.Hook = hook
	ran, err := worker.RunOnce(context.Background())
	if !ran || !core.IsReceiveError(err, core.ErrorClearFailed) {
		t.Fatalf("expected unrecorded compose to fail at clear, ran=%v err=%v", ran, err)
	}
	if len(queue.DeadLetters()) != 1 || hook.failures != 1 {
		t.Fatalf("expected job to be dead-lettered")
	}
	ran, err = worker.RunOnce(context.Background())
	if ran || err != nil {
		t.Fatalf("expected empty queue, ran=%v err=%v", ran, err)
	}
}

type countingHook struct {
	starts    int
	successes int
	failures  int
	retries   int
}

func (h *countingHook) OnStart(context.Context, core.JobWorkerEvent)   { h.starts++ }
func (h *countingHook) OnSuccess(context.Context, core.JobWorkerEvent) { h.successes++ }
func (h *countingHook) OnFailure(context.Context, core.JobWorkerEvent) { h.failures++ }
func (h *countingHook) OnRetry(context.Context, core.JobWorkerEvent)   { h.retries++ }
