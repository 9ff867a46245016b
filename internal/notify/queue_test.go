package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: defaultQueue, Type: task.Type()}, nil
}

func TestQueueSink_Enqueues(t *testing.T) {
	q := &fakeEnqueuer{}
	sink := NewQueueSink(q, "")

	require.NoError(t, sink.Notify(context.Background(), 3, "Payment received", "fid 4 paid"))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TypeNotificationSend, q.tasks[0].Type())

	var p NotificationPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &p))
	assert.Equal(t, NotificationPayload{FID: 3, Title: "Payment received", Body: "fid 4 paid"}, p)
}

func TestQueueSink_EnqueueError(t *testing.T) {
	sink := NewQueueSink(&fakeEnqueuer{err: errors.New("redis down")}, "q")
	assert.ErrorContains(t, sink.Notify(context.Background(), 3, "t", "b"), "redis down")
}

func TestHandleNotificationTask(t *testing.T) {
	deliver := new(MockSink)
	deliver.On("Notify", mock.Anything, int64(3), "t", "b").Return(nil).Once()
	handler := HandleNotificationTask(deliver)

	payload, _ := json.Marshal(NotificationPayload{FID: 3, Title: "t", Body: "b"})
	require.NoError(t, handler(context.Background(), asynq.NewTask(TypeNotificationSend, payload)))
	deliver.AssertExpectations(t)

	err := handler(context.Background(), asynq.NewTask(TypeNotificationSend, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = handler(context.Background(), asynq.NewTask(TypeNotificationSend, []byte(`{"title":"t"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleNotificationTask_RetriesDeliveryFailures(t *testing.T) {
	deliver := new(MockSink)
	deliver.On("Notify", mock.Anything, int64(3), "t", "b").Return(ErrRateLimited)

	payload, _ := json.Marshal(NotificationPayload{FID: 3, Title: "t", Body: "b"})
	err := HandleNotificationTask(deliver)(context.Background(), asynq.NewTask(TypeNotificationSend, payload))
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
