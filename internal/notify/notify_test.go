package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/config"
	"jobboard/internal/tasks"
)

func TestComposeJob(t *testing.T) {
	msg, err := Compose(Notice{Kind: KindJob, Name: "Asha", Title: "Driver"})
	require.NoError(t, err)
	assert.Equal(t, "Your job posting has been approved", msg.Subject)
	assert.Equal(t, `Hi Asha, your job "Driver" has been approved.`, msg.Text)
	assert.Contains(t, msg.HTML, "<strong>Driver</strong>")
}

func TestComposeJobSeekerEscapesHTML(t *testing.T) {
	msg, err := Compose(Notice{Kind: KindJobSeeker, Name: "<b>Ravi</b>"})
	require.NoError(t, err)
	assert.Equal(t, "Your job seeker registration has been approved", msg.Subject)
	assert.Contains(t, msg.HTML, "&lt;b&gt;Ravi&lt;/b&gt;")
	assert.Contains(t, msg.HTML, "You will now be visible to employers.")
}

func TestComposeUnknownKind(t *testing.T) {
	_, err := Compose(Notice{Kind: "other"})
	assert.Error(t, err)
}

func TestMailerRejectsEmptyRecipient(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "localhost", Port: 25, From: "noreply@example.com"})
	err := m.NotifyApproved(context.Background(), Notice{Kind: KindJob})
	assert.Error(t, err)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "1"}, nil
}

func TestQueueNotifierEnqueuesPayload(t *testing.T) {
	q := &fakeEnqueuer{}
	n := NewQueueNotifier(q)

	notice := Notice{Kind: KindJobSeeker, Email: "a@example.com", Name: "A"}
	require.NoError(t, n.NotifyApproved(context.Background(), notice))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.TypeApprovalEmail, q.tasks[0].Type())

	var payload tasks.ApprovalEmailPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &payload))
	assert.Equal(t, notice, FromPayload(payload))
}

func TestQueueNotifierReportsEnqueueError(t *testing.T) {
	n := NewQueueNotifier(&fakeEnqueuer{err: errors.New("redis down")})
	assert.Error(t, n.NotifyApproved(context.Background(), Notice{Kind: KindJob, Email: "x@example.com"}))
}
