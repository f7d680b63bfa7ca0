package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-app/backend/pkg/queue"
)

type fakeJobs struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
}

func (f *fakeJobs) Dequeue(ctx context.Context) (*queue.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	job := f.pending[0]
	f.pending = f.pending[1:]
	return job, nil
}

func (f *fakeJobs) Retry(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.Attempt++
	f.retried = append(f.retried, job)
	return nil
}

func (f *fakeJobs) retriedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.retried)
}

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeDeleter) DeleteAvatar(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeDeleter) deletedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.deleted...)
}

func avatarJob(t *testing.T, url string) *queue.Job {
	t.Helper()
	body, err := json.Marshal(queue.AvatarDeletePayload{UserID: "user-aisha", URL: url})
	require.NoError(t, err)
	return &queue.Job{ID: "job-" + url, Type: queue.JobTypeAvatarDelete, Payload: body}
}

func TestProcess(t *testing.T) {
	del := &fakeDeleter{}
	p := NewAvatarCleaner(del, &fakeJobs{}, nil)
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, avatarJob(t, "https://x/avatars/a.png")))
	assert.Equal(t, []string{"https://x/avatars/a.png"}, del.deletedURLs())

	require.NoError(t, p.Process(ctx, avatarJob(t, "")))
	assert.Len(t, del.deletedURLs(), 1)

	err := p.Process(ctx, &queue.Job{Type: "email"})
	require.Error(t, err)
	err = p.Process(ctx, &queue.Job{Type: queue.JobTypeAvatarDelete, Payload: json.RawMessage(`"x"`)})
	require.Error(t, err)
}

func TestRunDrainsAndRetries(t *testing.T) {
	del := &fakeDeleter{}
	jobs := &fakeJobs{pending: []*queue.Job{avatarJob(t, "a"), avatarJob(t, "b")}}
	p := NewAvatarCleaner(del, jobs, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(del.deletedURLs()) == 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, jobs.retriedCount())

	failing := &fakeDeleter{err: errors.New("s3 down")}
	jobs = &fakeJobs{pending: []*queue.Job{avatarJob(t, "c")}}
	p = NewAvatarCleaner(failing, jobs, nil)
	p.backoff = time.Millisecond
	ctx, cancel = context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return jobs.retriedCount() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
