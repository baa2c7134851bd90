package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/notify"
	"jobboard/internal/tasks"
)

type stubNotifier struct {
	got []notify.Notice
	err error
}

func (s *stubNotifier) NotifyApproved(_ context.Context, n notify.Notice) error {
	s.got = append(s.got, n)
	return s.err
}

type stubExpirer struct {
	n   int64
	err error
}

func (s stubExpirer) ExpireStale(context.Context) (int64, error) { return s.n, s.err }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func approvalTask(t *testing.T, p tasks.ApprovalEmailPayload) *asynq.Task {
	t.Helper()
	task, err := tasks.NewApprovalEmailTask(p)
	require.NoError(t, err)
	return task
}

func TestApprovalEmailHandlerDelivers(t *testing.T) {
	n := &stubNotifier{}
	h := NewApprovalEmailHandler(n, quietLogger())

	err := h.ProcessTask(context.Background(), approvalTask(t, tasks.ApprovalEmailPayload{
		Kind: string(notify.KindJob), Email: "hr@example.com", Name: "Acme", Title: "Cook",
	}))
	require.NoError(t, err)
	require.Len(t, n.got, 1)
	assert.Equal(t, notify.Notice{Kind: notify.KindJob, Email: "hr@example.com", Name: "Acme", Title: "Cook"}, n.got[0])
}

func TestApprovalEmailHandlerSkipsRetryOnFailure(t *testing.T) {
	n := &stubNotifier{err: errors.New("smtp down")}
	h := NewApprovalEmailHandler(n, quietLogger())

	err := h.ProcessTask(context.Background(), approvalTask(t, tasks.ApprovalEmailPayload{
		Kind: string(notify.KindJobSeeker), Email: "a@example.com", Name: "Asha",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestApprovalEmailHandlerIgnoresMissingRecipient(t *testing.T) {
	n := &stubNotifier{}
	h := NewApprovalEmailHandler(n, quietLogger())

	require.NoError(t, h.ProcessTask(context.Background(), approvalTask(t, tasks.ApprovalEmailPayload{Kind: "job"})))
	assert.Empty(t, n.got)
}

func TestApprovalEmailHandlerRejectsBadPayload(t *testing.T) {
	h := NewApprovalEmailHandler(&stubNotifier{}, quietLogger())

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeApprovalEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestExpirySweepHandler(t *testing.T) {
	h := NewExpirySweepHandler(stubExpirer{n: 3}, quietLogger())
	require.NoError(t, h.ProcessTask(context.Background(), tasks.NewExpirySweepTask()))

	failing := NewExpirySweepHandler(stubExpirer{err: errors.New("db gone")}, quietLogger())
	assert.Error(t, failing.ProcessTask(context.Background(), tasks.NewExpirySweepTask()))
}
