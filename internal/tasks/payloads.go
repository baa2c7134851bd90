package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeApprovalEmail = "notify:approval_email"
	TypeExpirySweep   = "listing:expiry_sweep"
)

// 队列名称。
const (
	QueueNotify      = "notify"
	QueueMaintenance = "maintenance"
)

// ApprovalEmailPayload 描述一封审核通过邮件。
type ApprovalEmailPayload struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// NewApprovalEmailTask 构造审核通过邮件任务。邮件只尝试投递一次。
func NewApprovalEmailTask(p ApprovalEmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeApprovalEmail, payload, asynq.MaxRetry(0), asynq.Queue(QueueNotify)), nil
}

// NewExpirySweepTask 构造一次过期清理任务。
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TypeExpirySweep, nil, asynq.Queue(QueueMaintenance), asynq.MaxRetry(1))
}
