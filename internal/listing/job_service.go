package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/events"
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
	"jobboard/internal/pagination"
	"jobboard/internal/validation"
)

const sweepTimeout = 30 * time.Second

// JobService 管理职位的提交、审核流转与公开检索。
type JobService struct {
	db *gorm.DB
	options
}

func NewJobService(db *gorm.DB, opts ...Option) *JobService {
	s := &JobService{db: db, options: defaultOptions()}
	for _, opt := range opts {
		opt(&s.options)
	}
	return s
}

// JobSubmission 是发布职位的请求内容。
type JobSubmission struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Company       string `json:"company" validate:"required"`
	AadharNumber  string `json:"aadharNumber" validate:"required"`
	AadharFileURL string `json:"aadharFileUrl" validate:"required"`
	PostedBy      string `json:"postedBy" validate:"required"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	District      string `json:"district"`
	TransactionID string `json:"transactionId"`
	ContactEmail  string `json:"contactEmail"`
}

func (s *JobSubmission) normalize() {
	for _, f := range []*string{
		&s.Title, &s.Description, &s.Company, &s.AadharNumber, &s.AadharFileURL,
		&s.PostedBy, &s.Category, &s.Subcategory, &s.District, &s.TransactionID, &s.ContactEmail,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Submit 校验并保存一条待审核职位。
func (s *JobService) Submit(ctx context.Context, in JobSubmission) (*database.Job, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.requirePaymentProof(ctx, in); err != nil {
		return nil, err
	}

	job := database.Job{
		Title:         in.Title,
		Description:   in.Description,
		Company:       in.Company,
		Category:      in.Category,
		Subcategory:   in.Subcategory,
		District:      in.District,
		AadharNumber:  in.AadharNumber,
		AadharFileURL: in.AadharFileURL,
		TransactionID: in.TransactionID,
		ContactEmail:  in.ContactEmail,
		PostedBy:      in.PostedBy,
		Status:        string(StatusPending),
		CreatedAt:     s.clock(),
	}

	if in.Category != "" {
		id, err := s.resolveCategoryID(ctx, in.Category)
		if err != nil {
			return nil, err
		}
		job.CategoryID = id
	}

	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, errcode.Upstream(fmt.Errorf("create job: %w", err), "Failed to create job")
	}

	s.publish(ctx, events.Event{Type: events.TypeSubmitted, Entity: events.EntityJob, ID: job.ID, Status: job.Status})
	return &job, nil
}

// requirePaymentProof 在启用强制校验时，要求复用的 Aadhaar 号码附带交易号与联系邮箱。
func (s *JobService) requirePaymentProof(ctx context.Context, in JobSubmission) error {
	if !s.enforcePayment || s.gate == nil {
		return nil
	}
	res, err := s.gate.CheckAadhaar(ctx, in.AadharNumber)
	if err != nil {
		return err
	}
	if !res.Exists {
		return nil
	}
	var missing []string
	if in.TransactionID == "" {
		missing = append(missing, "transactionId")
	}
	if in.ContactEmail == "" {
		missing = append(missing, "contactEmail")
	}
	if len(missing) > 0 {
		return errcode.Validation(missing...)
	}
	return nil
}

func (s *JobService) resolveCategoryID(ctx context.Context, name string) (*uint, error) {
	var category database.Category
	err := s.db.WithContext(ctx).Select("id").Where("name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errcode.Upstream(fmt.Errorf("resolve category %q: %w", name, err), "Failed to create job")
	}
	return &category.ID, nil
}

// Approve 将职位置为 approved 并刷新 approvedAt，随后尽力通知联系人。
func (s *JobService) Approve(ctx context.Context, sess auth.Session, id uint, approvedBy string) (*database.Job, error) {
	actor := sess.Actor(approvedBy)
	job, err := transition[database.Job](ctx, s.db, id, map[string]any{
		"status":      string(StatusApproved),
		"approved_by": actor,
		"approved_at": s.clock(),
	}, "Job not found")
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, job, events.TypeApproved, actor)
	s.notifyApproved(ctx, notify.Notice{
		Kind:  notify.KindJob,
		Email: job.ContactEmail,
		Name:  job.PostedBy,
		Title: job.Title,
	})
	return job, nil
}

// Reject 将职位置为 rejected；approvedBy 记录操作人，approvedAt 同样刷新。
func (s *JobService) Reject(ctx context.Context, sess auth.Session, id uint, rejectedBy string) (*database.Job, error) {
	actor := sess.Actor(rejectedBy)
	job, err := transition[database.Job](ctx, s.db, id, map[string]any{
		"status":      string(StatusRejected),
		"approved_by": actor,
		"approved_at": s.clock(),
	}, "Job not found")
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, job, events.TypeRejected, actor)
	return job, nil
}

// Deactivate 将职位置为 inactive，保留原有 approvedAt。
func (s *JobService) Deactivate(ctx context.Context, sess auth.Session, id uint) (*database.Job, error) {
	job, err := transition[database.Job](ctx, s.db, id, map[string]any{
		"status": string(StatusInactive),
	}, "Job not found")
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, job, events.TypeDeactivated, sess.Actor(""))
	return job, nil
}

func (s *JobService) afterTransition(ctx context.Context, job *database.Job, typ events.Type, actor string) {
	metrics.ObserveTransition(events.EntityJob, job.Status)
	s.publish(ctx, events.Event{Type: typ, Entity: events.EntityJob, ID: job.ID, Status: job.Status, Actor: actor})
}

// JobQuery 是职位检索条件，空字符串表示不过滤。
type JobQuery struct {
	Keyword     string
	Category    string
	Subcategory string
	District    string
	Status      string
	Page        pagination.Params
}

// Search 按条件检索职位，approved 视图只包含展示期内的职位。
// 启用 sweep-on-read 时，查询完成后在后台执行一次过期清理，不影响本次结果。
func (s *JobService) Search(ctx context.Context, q JobQuery) (pagination.Result[database.Job], error) {
	status, err := ResolveStatusFilter(q.Status, s.strictStatus)
	if err != nil {
		return pagination.Result[database.Job]{}, err
	}

	now := s.clock()
	scopes := []func(*gorm.DB) *gorm.DB{
		func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", string(status)) },
	}
	if status == StatusApproved {
		scopes = append(scopes, s.rule.visibleScope(now))
	}
	if strings.TrimSpace(q.Keyword) != "" {
		pattern := containsPattern(q.Keyword)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(
				`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern,
			)
		})
	}
	if strings.TrimSpace(q.Category) != "" {
		pattern := containsPattern(q.Category)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`LOWER(category) LIKE ? ESCAPE '\'`, pattern)
		})
	}
	if strings.TrimSpace(q.Subcategory) != "" {
		pattern := containsPattern(q.Subcategory)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`LOWER(subcategory) LIKE ? ESCAPE '\'`, pattern)
		})
	}
	if strings.TrimSpace(q.District) != "" {
		pattern := containsPattern(q.District)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`(LOWER(district) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
		})
	}

	result, err := pagination.Find[database.Job](ctx, s.db, q.Page, scopes...)
	if err != nil {
		return result, errcode.Upstream(fmt.Errorf("search jobs: %w", err), "Failed to fetch jobs")
	}

	if s.sweepOnRead {
		s.sweepInBackground(ctx)
	}
	return result, nil
}

// Pending 返回全部待审核职位，按提交时间倒序。
func (s *JobService) Pending(ctx context.Context) ([]database.Job, error) {
	jobs := []database.Job{}
	err := s.db.WithContext(ctx).
		Where("status = ?", string(StatusPending)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, errcode.Upstream(fmt.Errorf("list pending jobs: %w", err), "Failed to fetch jobs")
	}
	return jobs, nil
}

// ExpireStale 将超过展示期的 approved 职位置为 inactive，返回受影响的数量。
// 重复执行是安全的：已处理的职位不再满足条件。
func (s *JobService) ExpireStale(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&database.Job{}).
		Where("status = ?", string(StatusApproved)).
		Scopes(s.rule.expiredScope(s.clock())).
		Update("status", string(StatusInactive))
	if res.Error != nil {
		return 0, fmt.Errorf("expire stale jobs: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		metrics.ObserveExpired(res.RowsAffected)
		s.publish(ctx, events.Event{
			Type:   events.TypeExpired,
			Entity: events.EntityJob,
			Status: string(StatusInactive),
			Count:  res.RowsAffected,
		})
	}
	return res.RowsAffected, nil
}

func (s *JobService) sweepInBackground(ctx context.Context) {
	parent := context.WithoutCancel(ctx)
	s.runSweep(func() {
		ctx, cancel := context.WithTimeout(parent, sweepTimeout)
		defer cancel()

		n, err := s.ExpireStale(ctx)
		if err != nil {
			s.logger.Warn("expiry sweep failed", slog.Any("error", err))
			return
		}
		if n > 0 {
			s.logger.Info("expired stale jobs", slog.Int64("count", n))
		}
	})
}
