package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TypeNotificationSend is the asynq task type of a queued notification.
const TypeNotificationSend = "notification:send"

const (
	defaultQueue = "notifications"
	maxRetry     = 5
	taskTimeout  = 30 * time.Second
)

// NotificationPayload is the task payload of a queued notification.
type NotificationPayload struct {
	FID   int64  `json:"fid"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Enqueuer is the part of *asynq.Client QueueSink uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands notifications to a Redis-backed task queue. A Worker
// delivers them, with retries, outside the request path.
type QueueSink struct {
	client Enqueuer
	queue  string
}

// NewQueueSink creates a QueueSink. An empty queue uses "notifications".
func NewQueueSink(client Enqueuer, queue string) *QueueSink {
	if queue == "" {
		queue = defaultQueue
	}
	return &QueueSink{client: client, queue: queue}
}

// Notify implements Sink. It succeeds once the task is enqueued.
func (s *QueueSink) Notify(ctx context.Context, fid int64, title, body string) error {
	payload, err := json.Marshal(NotificationPayload{FID: fid, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("failed to encode notification task: %w", err)
	}
	task := asynq.NewTask(TypeNotificationSend, payload)
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(s.queue),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	slog.Debug("Notification enqueued", "fid", fid, "task_id", info.ID, "queue", info.Queue)
	return nil
}

// HandleNotificationTask returns the asynq handler delivering queued
// notifications through deliver.
func HandleNotificationTask(deliver Sink) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p NotificationPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("bad notification payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.FID <= 0 {
			return fmt.Errorf("notification payload has no fid: %w", asynq.SkipRetry)
		}
		if err := deliver.Notify(ctx, p.FID, p.Title, p.Body); err != nil {
			return fmt.Errorf("deliver notification to fid %d: %w", p.FID, err)
		}
		return nil
	}
}

// Worker processes queued notifications.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewWorker creates a Worker consuming queue from the given Redis.
func NewWorker(redisOpt asynq.RedisClientOpt, queue string, deliver Sink) *Worker {
	if queue == "" {
		queue = defaultQueue
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues:      map[string]int{queue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			slog.Warn("Notification task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationSend, HandleNotificationTask(deliver))
	return &Worker{srv: srv, mux: mux}
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
