package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"jobboard/internal/metrics"
	"jobboard/internal/notify"
	"jobboard/internal/tasks"
)

// ApprovalEmailHandler 消费审核通过邮件任务。
// 投递失败不重试，只记录日志与指标。
type ApprovalEmailHandler struct {
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewApprovalEmailHandler(notifier notify.Notifier, logger *slog.Logger) *ApprovalEmailHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalEmailHandler{notifier: notifier, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *ApprovalEmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ApprovalEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("decode approval email payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := h.logger.With(slog.String("kind", payload.Kind))
	if payload.Email == "" {
		logger.Info("approval email skipped: no recipient")
		return nil
	}

	if err := h.notifier.NotifyApproved(ctx, notify.FromPayload(payload)); err != nil {
		logger.Warn("approval email delivery failed", slog.Any("error", err))
		metrics.ObserveNotifyFailure(payload.Kind)
		return fmt.Errorf("deliver approval email: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("approval email delivered")
	return nil
}
