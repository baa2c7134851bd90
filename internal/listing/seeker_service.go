package listing

import (
	"context"
	"fmt"
	"strconv"
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

// SeekerService 管理求职者登记与审核。
// 公开列表只看状态，不做展示期计算；重复登记由身份检查负责。
type SeekerService struct {
	db *gorm.DB
	options
}

func NewSeekerService(db *gorm.DB, opts ...Option) *SeekerService {
	s := &SeekerService{db: db, options: defaultOptions()}
	for _, opt := range opts {
		opt(&s.options)
	}
	return s
}

// SeekerSubmission 是求职者登记请求。experience 同时接受数字与数字字符串。
type SeekerSubmission struct {
	Name                 string `json:"name" validate:"required"`
	DateOfBirth          string `json:"dateOfBirth" validate:"required"`
	Gender               string `json:"gender" validate:"required,oneof=Male Female Other 'Prefer not to say'"`
	ContactNumber        string `json:"contactNumber" validate:"required"`
	Email                string `json:"email" validate:"required"`
	Qualification        string `json:"qualification" validate:"required"`
	PreferredJobType     string `json:"preferredJobType" validate:"required,oneof='Full time' 'Part time' Internship Freelance"`
	Location             string `json:"location" validate:"required"`
	District             string `json:"district" validate:"required"`
	JobTitle             string `json:"jobTitle" validate:"required"`
	PreferredCategory    string `json:"preferredCategory" validate:"required"`
	PreferredSubcategory string `json:"preferredSubcategory" validate:"required"`
	Experience           any    `json:"experience"`
	Skills               string `json:"skills"`
	ResumeURL            string `json:"resumeUrl"`
	ExpectedSalary       string `json:"expectedSalary"`
	Availability         string `json:"availability"`
	LanguageProficiency  string `json:"languageProficiency"`
	TransactionID        string `json:"transactionId"`
}

func (s *SeekerSubmission) normalize() {
	for _, f := range []*string{
		&s.Name, &s.DateOfBirth, &s.Gender, &s.ContactNumber, &s.Email, &s.Qualification,
		&s.PreferredJobType, &s.Location, &s.District, &s.JobTitle, &s.PreferredCategory,
		&s.PreferredSubcategory, &s.Skills, &s.ResumeURL, &s.ExpectedSalary, &s.Availability,
		&s.LanguageProficiency, &s.TransactionID,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Submit 校验并保存一条待审核的求职者登记。
func (s *SeekerService) Submit(ctx context.Context, in SeekerSubmission) (*database.JobSeeker, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return nil, errcode.BadRequest("Invalid value for dateOfBirth")
	}
	var availability *time.Time
	if in.Availability != "" {
		t, err := parseDate(in.Availability)
		if err != nil {
			return nil, errcode.BadRequest("Invalid value for availability")
		}
		availability = &t
	}
	experience, err := parseExperience(in.Experience)
	if err != nil {
		return nil, errcode.BadRequest("Invalid value for experience")
	}

	if err := s.requirePaymentProof(ctx, in); err != nil {
		return nil, err
	}

	seeker := database.JobSeeker{
		Name:                 in.Name,
		DateOfBirth:          dob,
		Gender:               in.Gender,
		ContactNumber:        in.ContactNumber,
		Email:                in.Email,
		Qualification:        in.Qualification,
		PreferredJobType:     in.PreferredJobType,
		PreferredCategory:    in.PreferredCategory,
		PreferredSubcategory: in.PreferredSubcategory,
		Location:             in.Location,
		District:             in.District,
		JobTitle:             in.JobTitle,
		Experience:           experience,
		Skills:               in.Skills,
		ResumeURL:            in.ResumeURL,
		ExpectedSalary:       in.ExpectedSalary,
		Availability:         availability,
		LanguageProficiency:  in.LanguageProficiency,
		TransactionID:        in.TransactionID,
		Status:               string(StatusPending),
		CreatedAt:            s.clock(),
	}
	if err := s.db.WithContext(ctx).Create(&seeker).Error; err != nil {
		return nil, errcode.Upstream(fmt.Errorf("create job seeker: %w", err), "Failed to register job seeker")
	}

	s.publish(ctx, events.Event{Type: events.TypeSubmitted, Entity: events.EntityJobSeeker, ID: seeker.ID, Status: seeker.Status})
	return &seeker, nil
}

// requirePaymentProof 在启用强制校验时，要求过期的重复手机号附带交易号。
func (s *SeekerService) requirePaymentProof(ctx context.Context, in SeekerSubmission) error {
	if !s.enforcePayment || s.gate == nil {
		return nil
	}
	res, err := s.gate.CheckPhone(ctx, in.ContactNumber)
	if err != nil {
		return err
	}
	if res.NeedsPayment && in.TransactionID == "" {
		return errcode.Validation("transactionId")
	}
	return nil
}

// Approve 审核通过并尽力通知求职者。
func (s *SeekerService) Approve(ctx context.Context, sess auth.Session, id uint, approvedBy string) (*database.JobSeeker, error) {
	actor := sess.Actor(approvedBy)
	seeker, err := transition[database.JobSeeker](ctx, s.db, id, map[string]any{
		"status":      string(StatusApproved),
		"approved_by": actor,
		"approved_at": s.clock(),
	}, "Job seeker not found")
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, seeker, events.TypeApproved, actor)
	s.notifyApproved(ctx, notify.Notice{
		Kind:  notify.KindJobSeeker,
		Email: seeker.Email,
		Name:  seeker.Name,
	})
	return seeker, nil
}

func (s *SeekerService) Reject(ctx context.Context, sess auth.Session, id uint, rejectedBy string) (*database.JobSeeker, error) {
	actor := sess.Actor(rejectedBy)
	seeker, err := transition[database.JobSeeker](ctx, s.db, id, map[string]any{
		"status":      string(StatusRejected),
		"approved_by": actor,
		"approved_at": s.clock(),
	}, "Job seeker not found")
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, seeker, events.TypeRejected, actor)
	return seeker, nil
}

func (s *SeekerService) Deactivate(ctx context.Context, sess auth.Session, id uint) (*database.JobSeeker, error) {
	seeker, err := transition[database.JobSeeker](ctx, s.db, id, map[string]any{
		"status": string(StatusInactive),
	}, "Job seeker not found")
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, seeker, events.TypeDeactivated, sess.Actor(""))
	return seeker, nil
}

// ResetPending 将求职者退回待审核，同时清空审核人和审核时间。
func (s *SeekerService) ResetPending(ctx context.Context, sess auth.Session, id uint) (*database.JobSeeker, error) {
	seeker, err := transition[database.JobSeeker](ctx, s.db, id, map[string]any{
		"status":      string(StatusPending),
		"approved_by": "",
		"approved_at": nil,
	}, "Job seeker not found")
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, seeker, events.TypeReset, sess.Actor(""))
	return seeker, nil
}

func (s *SeekerService) afterTransition(ctx context.Context, seeker *database.JobSeeker, typ events.Type, actor string) {
	metrics.ObserveTransition(events.EntityJobSeeker, seeker.Status)
	s.publish(ctx, events.Event{Type: typ, Entity: events.EntityJobSeeker, ID: seeker.ID, Status: seeker.Status, Actor: actor})
}

// ListPublic 返回已审核的求职者。
func (s *SeekerService) ListPublic(ctx context.Context, page pagination.Params) (pagination.Result[database.JobSeeker], error) {
	return s.list(ctx, page, statusScope(StatusApproved))
}

// ListAll 供后台使用：status 为四种状态之一时过滤，否则返回全部。
func (s *SeekerService) ListAll(ctx context.Context, status string, page pagination.Params) (pagination.Result[database.JobSeeker], error) {
	if st, ok := ParseStatus(status); ok {
		return s.list(ctx, page, statusScope(st))
	}
	return s.list(ctx, page)
}

// ListPending 返回待审核求职者，包括未写入状态的旧记录。
func (s *SeekerService) ListPending(ctx context.Context) ([]database.JobSeeker, error) {
	res, err := s.list(ctx, pagination.Params{Page: -1}, func(db *gorm.DB) *gorm.DB {
		return db.Where("(status = ? OR status IS NULL OR status = '')", string(StatusPending))
	})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (s *SeekerService) list(ctx context.Context, page pagination.Params, scopes ...func(*gorm.DB) *gorm.DB) (pagination.Result[database.JobSeeker], error) {
	res, err := pagination.Find[database.JobSeeker](ctx, s.db, page, scopes...)
	if err != nil {
		return res, errcode.Upstream(fmt.Errorf("list job seekers: %w", err), "Failed to fetch job seekers")
	}
	return res, nil
}

func statusScope(status Status) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", string(status))
	}
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseExperience(v any) (*float64, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &x, nil
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, err
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("unsupported experience type %T", v)
	}
}
