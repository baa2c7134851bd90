package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Expirer 执行一次过期清理，返回被下线的职位数量。
type Expirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// ExpirySweepHandler 由调度器周期触发，下线超过展示期的职位。
type ExpirySweepHandler struct {
	jobs   Expirer
	logger *slog.Logger
}

func NewExpirySweepHandler(jobs Expirer, logger *slog.Logger) *ExpirySweepHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpirySweepHandler{jobs: jobs, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExpirySweepHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	n, err := h.jobs.ExpireStale(ctx)
	if err != nil {
		h.logger.Warn("expiry sweep failed", slog.Any("error", err))
		return fmt.Errorf("expire stale jobs: %w", err)
	}
	h.logger.Info("expiry sweep finished", slog.Int64("expired", n))
	return nil
}
