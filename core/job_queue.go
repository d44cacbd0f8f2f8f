package core

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ComposeJobScriptPath = "lzreceiver.compose"

	composeParamFrom    = "from"
	composeParamTo      = "to"
	composeParamGUID    = "guid"
	composeParamIndex   = "index"
	composeParamMessage = "message"
)

// ComposeJob is the queued second leg of a composed delivery.
type ComposeJob struct {
	From    Address
	To      Address
	GUID    GUID
	Index   uint16
	Message []byte
}

func (j ComposeJob) Key() ComposeKey {
	return ComposeKey{From: j.From, To: j.To, GUID: j.GUID, Index: j.Index}
}

func NewComposeJobMessage(jobID string, job ComposeJob) *JobExecutionMessage {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		jobID = DefaultComposeJobID
	}
	return &JobExecutionMessage{
		JobID:      jobID,
		ScriptPath: ComposeJobScriptPath,
		Parameters: map[string]any{
			composeParamFrom:    job.From.String(),
			composeParamTo:      job.To.String(),
			composeParamGUID:    job.GUID.String(),
			composeParamIndex:   strconv.FormatUint(uint64(job.Index), 10),
			composeParamMessage: hex.EncodeToString(job.Message),
		},
		IdempotencyKey: job.Key().String(),
		DedupPolicy:    "drop",
	}
}

func ParseComposeJobMessage(msg *JobExecutionMessage) (ComposeJob, error) {
	if msg == nil {
		return ComposeJob{}, fmt.Errorf("core: compose job message is required")
	}
	param := func(name string) string {
		return strings.TrimSpace(fmt.Sprint(msg.Parameters[name]))
	}
	from, err := ParseAddress(param(composeParamFrom))
	if err != nil {
		return ComposeJob{}, fmt.Errorf("core: invalid compose job from: %w", err)
	}
	to, err := ParseAddress(param(composeParamTo))
	if err != nil {
		return ComposeJob{}, fmt.Errorf("core: invalid compose job to: %w", err)
	}
	guid, err := ParseGUID(param(composeParamGUID))
	if err != nil {
		return ComposeJob{}, fmt.Errorf("core: invalid compose job guid: %w", err)
	}
	index, err := strconv.ParseUint(param(composeParamIndex), 10, 16)
	if err != nil {
		return ComposeJob{}, fmt.Errorf("core: invalid compose job index: %w", err)
	}
	message, err := hex.DecodeString(strings.TrimPrefix(param(composeParamMessage), "0x"))
	if err != nil {
		return ComposeJob{}, fmt.Errorf("core: invalid compose job message: %w", err)
	}
	return ComposeJob{From: from, To: to, GUID: guid, Index: uint16(index), Message: message}, nil
}

type queuedJob struct {
	message     *JobExecutionMessage
	attempt     int
	availableAt time.Time
}

// MemoryJobQueue is a process-local JobEnqueuer/JobDequeuer. Dequeue never
// blocks; it returns ErrJobQueueEmpty when nothing is ready.
type MemoryJobQueue struct {
	mu         sync.Mutex
	pending    []*queuedJob
	inflight   map[*queuedJob]struct{}
	deadLetter []*JobExecutionMessage
	keys       map[string]struct{}
	Now        func() time.Time
}

func NewMemoryJobQueue() *MemoryJobQueue {
	return &MemoryJobQueue{
		inflight: map[*queuedJob]struct{}{},
		keys:     map[string]struct{}{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (q *MemoryJobQueue) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	if q == nil {
		return fmt.Errorf("core: job queue is not configured")
	}
	if msg == nil {
		return fmt.Errorf("core: execution message is required")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	key := strings.TrimSpace(msg.IdempotencyKey)
	if key != "" {
		if _, ok := q.keys[key]; ok {
			return nil
		}
		q.keys[key] = struct{}{}
	}
	q.pending = append(q.pending, &queuedJob{message: msg, availableAt: q.now()})
	return nil
}

func (q *MemoryJobQueue) Dequeue(_ context.Context) (JobDelivery, error) {
	if q == nil {
		return nil, fmt.Errorf("core: job queue is not configured")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for i, item := range q.pending {
		if item.availableAt.After(now) {
			continue
		}
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		item.attempt++
		q.inflight[item] = struct{}{}
		return &memoryDelivery{queue: q, item: item}, nil
	}
	return nil, ErrJobQueueEmpty
}

func (q *MemoryJobQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *MemoryJobQueue) DeadLetters() []*JobExecutionMessage {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*JobExecutionMessage(nil), q.deadLetter...)
}

func (q *MemoryJobQueue) now() time.Time {
	if q != nil && q.Now != nil {
		return q.Now().UTC()
	}
	return time.Now().UTC()
}

type memoryDelivery struct {
	queue *MemoryJobQueue
	item  *queuedJob
}

func (d *memoryDelivery) Message() *JobExecutionMessage {
	return d.item.message
}

// Attempt reports how many times this job has been handed out.
func (d *memoryDelivery) Attempt() int {
	return d.item.attempt
}

func (d *memoryDelivery) Ack(context.Context) error {
	q := d.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inflight[d.item]; !ok {
		return fmt.Errorf("core: delivery already settled")
	}
	delete(q.inflight, d.item)
	return nil
}

func (d *memoryDelivery) Nack(_ context.Context, opts JobNackOptions) error {
	q := d.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inflight[d.item]; !ok {
		return fmt.Errorf("core: delivery already settled")
	}
	delete(q.inflight, d.item)
	switch {
	case opts.DeadLetter:
		q.deadLetter = append(q.deadLetter, d.item.message)
	case opts.Requeue:
		d.item.availableAt = q.now().Add(opts.Delay)
		q.pending = append(q.pending, d.item)
	}
	return nil
}
