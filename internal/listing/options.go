package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/errcode"
	"jobboard/internal/events"
	"jobboard/internal/identity"
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
)

const notifyTimeout = 15 * time.Second

// options 是职位与求职者服务共享的依赖。
type options struct {
	now            func() time.Time
	logger         *slog.Logger
	notifier       notify.Notifier
	events         events.Publisher
	gate           *identity.Gate
	rule           ExpiryRule
	strictStatus   bool
	enforcePayment bool
	sweepOnRead    bool
	runSweep       func(func())
}

type Option func(*options)

func defaultOptions() options {
	return options{
		now:      time.Now,
		logger:   slog.Default(),
		notifier: notify.Disabled{},
		events:   events.Nop{},
		rule:     ExpiryRule{Window: DefaultExpiryWindow},
		runSweep: func(fn func()) { go fn() },
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

func WithEvents(p events.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.events = p
		}
	}
}

// WithGate 设置身份检查器；启用付费凭证校验时必须提供。
func WithGate(g *identity.Gate) Option {
	return func(o *options) { o.gate = g }
}

func WithExpiryWindow(window time.Duration) Option {
	return func(o *options) { o.rule = ExpiryRule{Window: window} }
}

// WithStrictStatus 让无法识别的状态过滤值返回错误而不是回落到 approved。
func WithStrictStatus(strict bool) Option {
	return func(o *options) { o.strictStatus = strict }
}

// WithEnforcePaymentProof 在提交时强制要求重复身份提供付费凭证。
func WithEnforcePaymentProof(enforce bool) Option {
	return func(o *options) { o.enforcePayment = enforce }
}

// WithSweepOnRead 控制查询职位后是否顺带触发一次过期清理。
func WithSweepOnRead(enabled bool) Option {
	return func(o *options) { o.sweepOnRead = enabled }
}

// WithSweepRunner 替换后台清理的执行方式，测试中可改为同步执行。
func WithSweepRunner(run func(func())) Option {
	return func(o *options) {
		if run != nil {
			o.runSweep = run
		}
	}
}

func (o *options) clock() time.Time {
	return o.now().UTC()
}

// notifyApproved 尽力发送通知；任何失败（包括 panic）都只记录日志。
func (o *options) notifyApproved(ctx context.Context, notice notify.Notice) {
	if strings.TrimSpace(notice.Email) == "" {
		return
	}
	logger := o.logger.With(slog.String("kind", string(notice.Kind)))
	defer func() {
		if r := recover(); r != nil {
			metrics.ObserveNotifyFailure(string(notice.Kind))
			logger.Warn("approval notification panicked", slog.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := o.notifier.NotifyApproved(ctx, notice); err != nil {
		metrics.ObserveNotifyFailure(string(notice.Kind))
		logger.Warn("approval notification failed", slog.Any("error", err))
	}
}

func (o *options) publish(ctx context.Context, event events.Event) {
	event.At = o.clock()
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("publish moderation event failed",
			slog.String("type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}

// transition 先确认记录存在，再写入字段并重新读取。
func transition[T any](ctx context.Context, db *gorm.DB, id uint, updates map[string]any, notFound string) (*T, error) {
	var record T
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.NotFound(notFound)
		}
		return nil, errcode.Upstream(fmt.Errorf("find %d: %w", id, err), "Failed to update status")
	}
	if err := db.WithContext(ctx).Model(&record).Updates(updates).Error; err != nil {
		return nil, errcode.Upstream(fmt.Errorf("update %d: %w", id, err), "Failed to update status")
	}
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, errcode.Upstream(fmt.Errorf("reload %d: %w", id, err), "Failed to update status")
	}
	return &record, nil
}

// containsPattern 构造忽略大小写的 LIKE 子串模式，转义通配符。
func containsPattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
