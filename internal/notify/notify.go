package notify

import (
	"context"
	"fmt"
	"html"
)

// Kind 区分通知对象。
type Kind string

const (
	KindJob       Kind = "job"
	KindJobSeeker Kind = "job_seeker"
)

// Notice 是一次审核通过通知。
// 职位通知中 Name 为发布人、Title 为职位名称；求职者通知只使用 Name。
type Notice struct {
	Kind  Kind
	Email string
	Name  string
	Title string
}

// Notifier 发送审核通过通知。返回的错误只用于记录日志，调用方不会据此回滚状态。
type Notifier interface {
	NotifyApproved(ctx context.Context, notice Notice) error
}

// Disabled 不发送任何通知。
type Disabled struct{}

func (Disabled) NotifyApproved(context.Context, Notice) error { return nil }

// Message 是渲染后的邮件内容。
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Compose 渲染审核通过邮件。
func Compose(n Notice) (Message, error) {
	switch n.Kind {
	case KindJob:
		return Message{
			Subject: "Your job posting has been approved",
			Text:    fmt.Sprintf("Hi %s, your job \"%s\" has been approved.", n.Name, n.Title),
			HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your job <strong>%s</strong> has been approved.</p>",
				html.EscapeString(n.Name), html.EscapeString(n.Title)),
		}, nil
	case KindJobSeeker:
		return Message{
			Subject: "Your job seeker registration has been approved",
			Text:    fmt.Sprintf("Hi %s, your job seeker registration has been approved.", n.Name),
			HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your job seeker registration has been approved. You will now be visible to employers.</p>",
				html.EscapeString(n.Name)),
		}, nil
	default:
		return Message{}, fmt.Errorf("unknown notice kind %q", n.Kind)
	}
}
