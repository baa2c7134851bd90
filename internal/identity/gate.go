package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
)

// DefaultWindow 是重复登记免付费的时间窗口。
const DefaultWindow = 7 * 24 * time.Hour

// Gate 检查身份号码是否已被使用。所有方法均为只读查询。
type Gate struct {
	db     *gorm.DB
	window time.Duration
	now    func() time.Time
}

type Option func(*Gate)

// WithWindow 覆盖免付费窗口。
func WithWindow(window time.Duration) Option {
	return func(g *Gate) {
		if window > 0 {
			g.window = window
		}
	}
}

// WithClock 注入时钟，便于测试。
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(db *gorm.DB, opts ...Option) *Gate {
	g := &Gate{db: db, window: DefaultWindow, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AadhaarResult 是 Aadhaar 号码检查结果。
type AadhaarResult struct {
	Exists bool `json:"exists"`
}

// PhoneResult 是手机号检查结果；只有找到记录时才返回 createdAt 与 status。
type PhoneResult struct {
	Exists       bool       `json:"exists"`
	Expired      bool       `json:"expired"`
	NeedsPayment bool       `json:"needsPayment"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	Status       *string    `json:"status,omitempty"`
}

// CheckAadhaar 判断号码是否出现在任意职位中，不区分状态与时间。
func (g *Gate) CheckAadhaar(ctx context.Context, number string) (AadhaarResult, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return AadhaarResult{}, errcode.BadRequest("Aadhar number is required")
	}

	var count int64
	err := g.db.WithContext(ctx).
		Model(&database.Job{}).
		Where("aadhar_number = ?", number).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return AadhaarResult{}, errcode.Upstream(fmt.Errorf("count jobs by aadhaar: %w", err), "Failed to check Aadhar number")
	}
	return AadhaarResult{Exists: count > 0}, nil
}

// CheckPhone 查找该手机号最近一次登记，超过窗口即视为过期并需要付费。
func (g *Gate) CheckPhone(ctx context.Context, number string) (PhoneResult, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return PhoneResult{}, errcode.BadRequest("Phone number is required")
	}

	var latest database.JobSeeker
	err := g.db.WithContext(ctx).
		Where("contact_number = ?", number).
		Order("created_at DESC").
		Order("id DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PhoneResult{}, nil
	}
	if err != nil {
		return PhoneResult{}, errcode.Upstream(fmt.Errorf("find job seeker by phone: %w", err), "Failed to check phone number")
	}

	expired := g.now().Sub(latest.CreatedAt) > g.window
	createdAt := latest.CreatedAt
	status := latest.Status
	if status == "" {
		status = "pending"
	}
	return PhoneResult{
		Exists:       true,
		Expired:      expired,
		NeedsPayment: expired,
		CreatedAt:    &createdAt,
		Status:       &status,
	}, nil
}
