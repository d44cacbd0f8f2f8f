package inbound

import (
	"context"
	"errors"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-lzreceiver/core"
)

const DefaultComposeRetryDelay = 5 * time.Second

type attemptReporter interface {
	Attempt() int
}

type attemptNacker interface {
	NackForAttempt(ctx context.Context, opts core.JobNackOptions, attempt int) error
}

// ComposeWorker drains compose jobs queued by the transport and hands each
// to the ComposeHandler. Consumed failures are dead-lettered; others are
// requeued until MaxAttempts.
type ComposeWorker struct {
	Dequeuer    core.JobDequeuer
	Handler     *ComposeHandler
	MaxAttempts int
	RetryDelay  time.Duration
	Hook        core.JobWorkerHook
	Logger      core.Logger
	Now         func() time.Time
}

func NewComposeWorker(dequeuer core.JobDequeuer, handler *ComposeHandler, maxAttempts int) *ComposeWorker {
	if maxAttempts <= 0 {
		maxAttempts = core.DefaultComposeMaxAttempts
	}
	logger := glog.Nop()
	if handler != nil && handler.Logger != nil {
		logger = handler.Logger
	}
	return &ComposeWorker{
		Dequeuer:    dequeuer,
		Handler:     handler,
		MaxAttempts: maxAttempts,
		RetryDelay:  DefaultComposeRetryDelay,
		Logger:      logger,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RunOnce processes at most one job. It reports false when the queue had
// nothing ready.
func (w *ComposeWorker) RunOnce(ctx context.Context) (bool, error) {
	if w == nil || w.Dequeuer == nil || w.Handler == nil {
		return false, core.NewReceiveError(core.ErrorInternal, "inbound: compose worker is not configured", nil)
	}
	delivery, err := w.Dequeuer.Dequeue(ctx)
	if err != nil {
		if errors.Is(err, core.ErrJobQueueEmpty) {
			return false, nil
		}
		return false, err
	}
	if delivery == nil {
		return false, nil
	}

	attempt := 1
	if reporter, ok := delivery.(attemptReporter); ok && reporter.Attempt() > 0 {
		attempt = reporter.Attempt()
	}
	event := core.JobWorkerEvent{Message: delivery.Message(), Attempt: attempt, StartedAt: w.now()}
	w.hookStart(ctx, event)

	handleErr := w.handle(ctx, delivery.Message())
	event.Duration = w.now().Sub(event.StartedAt)
	if handleErr == nil {
		w.hookSuccess(ctx, event)
		return true, delivery.Ack(ctx)
	}

	event.Err = handleErr
	opts := core.JobNackOptions{Reason: handleErr.Error()}
	switch {
	case core.IsConsumed(handleErr) || isPermanent(handleErr):
		opts.DeadLetter = true
	case attempt >= w.MaxAttempts:
		opts.DeadLetter = true
	default:
		opts.Requeue = true
		opts.Delay = w.RetryDelay
		event.Delay = w.RetryDelay
	}
	if opts.Requeue {
		w.hookRetry(ctx, event)
	} else {
		w.hookFailure(ctx, event)
	}
	core.LogWithLevel(ctx, w.Logger, "warn", "compose job failed", map[string]any{
		"attempt":     attempt,
		"dead_letter": opts.DeadLetter,
		"error":       handleErr.Error(),
	})

	var nackErr error
	if nacker, ok := delivery.(attemptNacker); ok {
		nackErr = nacker.NackForAttempt(ctx, opts, attempt)
	} else {
		nackErr = delivery.Nack(ctx, opts)
	}
	if nackErr != nil {
		return true, nackErr
	}
	return true, handleErr
}

// Drain runs jobs until the queue is empty or ctx is done. Job failures
// are settled on the queue and do not stop the drain.
func (w *ComposeWorker) Drain(ctx context.Context) (int, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		ran, err := w.RunOnce(ctx)
		if !ran {
			return processed, err
		}
		processed++
		if err != nil && core.ReceiveErrorCode(err) == "" {
			return processed, err
		}
	}
}

func (w *ComposeWorker) handle(ctx context.Context, msg *core.JobExecutionMessage) error {
	job, err := core.ParseComposeJobMessage(msg)
	if err != nil {
		return core.WrapReceiveError(err, core.ErrorMessageDecodingFailed, "", map[string]any{core.MetadataKeyConsumed: true})
	}
	channelID, ok := core.ChannelIDFromAddress(job.To)
	if !ok {
		return core.NewReceiveError(core.ErrorChannelNotFound, "inbound: compose target is not a channel", map[string]any{
			"to":                     job.To.String(),
			core.MetadataKeyConsumed: true,
		})
	}
	_, err = w.Handler.Compose(ctx, channelID, core.ComposeParams{
		From:    job.From,
		GUID:    job.GUID,
		Index:   job.Index,
		Message: job.Message,
	})
	return err
}

func isPermanent(err error) bool {
	switch core.ReceiveErrorCode(err) {
	case core.ErrorRemoteAddressMismatch, core.ErrorChannelNotFound, core.ErrorClearFailed:
		return true
	}
	return false
}

func (w *ComposeWorker) hookStart(ctx context.Context, event core.JobWorkerEvent) {
	if w.Hook != nil {
		w.Hook.OnStart(ctx, event)
	}
}

func (w *ComposeWorker) hookSuccess(ctx context.Context, event core.JobWorkerEvent) {
	if w.Hook != nil {
		w.Hook.OnSuccess(ctx, event)
	}
}

func (w *ComposeWorker) hookFailure(ctx context.Context, event core.JobWorkerEvent) {
	if w.Hook != nil {
		w.Hook.OnFailure(ctx, event)
	}
}

func (w *ComposeWorker) hookRetry(ctx context.Context, event core.JobWorkerEvent) {
	if w.Hook != nil {
		w.Hook.OnRetry(ctx, event)
	}
}

func (w *ComposeWorker) now() time.Time {
	if w != nil && w.Now != nil {
		return w.Now()
	}
	return time.Now().UTC()
}
