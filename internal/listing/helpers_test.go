package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/database/dbtest"
	"jobboard/internal/events"
	"jobboard/internal/notify"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

var adminSession = auth.Session{AdminID: 1, Username: "root"}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	notices []notify.Notice
	err     error
	panic   bool
}

func (n *recordingNotifier) NotifyApproved(_ context.Context, notice notify.Notice) error {
	if n.panic {
		panic("smtp exploded")
	}
	n.notices = append(n.notices, notice)
	return n.err
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("redis unavailable")
}

func syncRunner(fn func()) { fn() }

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	notifier *recordingNotifier
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		db:       dbtest.New(t),
		clock:    &fakeClock{now: testNow},
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
	}
}

func (f *fixture) options(extra ...Option) []Option {
	return append([]Option{
		WithClock(f.clock.Now),
		WithNotifier(f.notifier),
		WithEvents(f.events),
		WithSweepRunner(syncRunner),
	}, extra...)
}

func (f *fixture) insertJob(t *testing.T, job database.Job) database.Job {
	t.Helper()
	if job.Title == "" {
		job.Title = "Title"
	}
	if job.Description == "" {
		job.Description = "Description"
	}
	if job.Company == "" {
		job.Company = "Company"
	}
	if job.PostedBy == "" {
		job.PostedBy = "poster"
	}
	if job.AadharNumber == "" {
		job.AadharNumber = "0000"
	}
	if job.AadharFileURL == "" {
		job.AadharFileURL = "https://files.example/aadhaar.pdf"
	}
	if job.Status == "" {
		job.Status = string(StatusPending)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = testNow
	}
	require.NoError(t, f.db.Create(&job).Error)
	return job
}

func (f *fixture) reloadJob(t *testing.T, id uint) database.Job {
	t.Helper()
	var job database.Job
	require.NoError(t, f.db.First(&job, id).Error)
	return job
}

func ptrTime(t time.Time) *time.Time { return &t }

func validJobSubmission() JobSubmission {
	return JobSubmission{
		Title:         "Electrician",
		Description:   "Wiring work in Kozhikode",
		Company:       "Sparks Ltd",
		AadharNumber:  "1111-2222-3333",
		AadharFileURL: "https://files.example/aadhaar/1.pdf",
		PostedBy:      "Meera",
	}
}

func validSeekerSubmission() SeekerSubmission {
	return SeekerSubmission{
		Name:                 "Ravi",
		DateOfBirth:          "1995-04-12",
		Gender:               "Male",
		ContactNumber:        "9876543210",
		Email:                "ravi@example.com",
		Qualification:        "B.Tech",
		PreferredJobType:     "Full time",
		Location:             "Kochi",
		District:             "Ernakulam",
		JobTitle:             "Developer",
		PreferredCategory:    "Tech",
		PreferredSubcategory: "Backend",
	}
}
