package listing

import (
	"time"

	"gorm.io/gorm"

	"jobboard/internal/database"
)

// DefaultExpiryWindow 是已审核职位的公开展示期。
const DefaultExpiryWindow = 7 * 24 * time.Hour

// ExpiryRule 判断已审核职位是否仍在展示期内：
// 有 approvedAt 时以其为准，否则退回 createdAt。
// 查询过滤与过期清理共用同一谓词。
type ExpiryRule struct {
	Window time.Duration
}

func (r ExpiryRule) window() time.Duration {
	if r.Window <= 0 {
		return DefaultExpiryWindow
	}
	return r.Window
}

// Cutoff 返回展示期的起点。
func (r ExpiryRule) Cutoff(now time.Time) time.Time {
	return now.Add(-r.window())
}

// Visible 判断单条职位在 now 时刻是否仍在展示期内。
func (r ExpiryRule) Visible(job database.Job, now time.Time) bool {
	cutoff := r.Cutoff(now)
	if job.ApprovedAt != nil {
		return !job.ApprovedAt.Before(cutoff)
	}
	return !job.CreatedAt.Before(cutoff)
}

func (r ExpiryRule) visibleScope(now time.Time) func(*gorm.DB) *gorm.DB {
	cutoff := r.Cutoff(now)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"((approved_at IS NOT NULL AND approved_at >= ?) OR (approved_at IS NULL AND created_at >= ?))",
			cutoff, cutoff,
		)
	}
}

func (r ExpiryRule) expiredScope(now time.Time) func(*gorm.DB) *gorm.DB {
	cutoff := r.Cutoff(now)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"((approved_at IS NOT NULL AND approved_at < ?) OR (approved_at IS NULL AND created_at < ?))",
			cutoff, cutoff,
		)
	}
}
