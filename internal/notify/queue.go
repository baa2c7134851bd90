package notify

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"jobboard/internal/tasks"
)

// Enqueuer 是 asynq.Client 中用于投递任务的部分。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier 将通知写入 asynq 队列，由 worker 使用 Mailer 投递。
type QueueNotifier struct {
	client Enqueuer
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (q *QueueNotifier) NotifyApproved(ctx context.Context, notice Notice) error {
	task, err := tasks.NewApprovalEmailTask(tasks.ApprovalEmailPayload{
		Kind:  string(notice.Kind),
		Email: notice.Email,
		Name:  notice.Name,
		Title: notice.Title,
	})
	if err != nil {
		return fmt.Errorf("build approval email task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue approval email: %w", err)
	}
	return nil
}

// FromPayload 还原队列中的通知。
func FromPayload(p tasks.ApprovalEmailPayload) Notice {
	return Notice{Kind: Kind(p.Kind), Email: p.Email, Name: p.Name, Title: p.Title}
}
