package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/pagination"
	"jobboard/internal/validation"
)

// Service 保存访客留言并供后台分页查看。
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Submission 是留言表单内容。
type Submission struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

func (s *Service) Submit(ctx context.Context, in Submission) (*database.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	msg := database.ContactMessage{
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, errcode.Upstream(fmt.Errorf("create contact message: %w", err), "Failed to save message")
	}
	return &msg, nil
}

// List 按时间倒序返回留言。
func (s *Service) List(ctx context.Context, page pagination.Params) (pagination.Result[database.ContactMessage], error) {
	res, err := pagination.Find[database.ContactMessage](ctx, s.db, page)
	if err != nil {
		return res, errcode.Upstream(fmt.Errorf("list contact messages: %w", err), "Failed to fetch messages")
	}
	return res, nil
}
