package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/huddle-app/backend/pkg/queue"
)

// Jobs is the queue the cleaner consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// AvatarDeleter removes a stored avatar object.
type AvatarDeleter interface {
	DeleteAvatar(ctx context.Context, url string) error
}

// AvatarCleaner processes avatar delete jobs: removes replaced avatars from S3.
type AvatarCleaner struct {
	avatars AvatarDeleter
	queue   Jobs
	logger  *zap.Logger
	backoff time.Duration
}

// NewAvatarCleaner creates an avatar cleanup processor.
func NewAvatarCleaner(avatars AvatarDeleter, q Jobs, logger *zap.Logger) *AvatarCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvatarCleaner{avatars: avatars, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one avatar delete job.
func (p *AvatarCleaner) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAvatarDelete {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AvatarDeletePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.URL == "" {
		return nil
	}
	if err := p.avatars.DeleteAvatar(ctx, payload.URL); err != nil {
		return fmt.Errorf("delete avatar: %w", err)
	}
	p.logger.Info("avatar removed", zap.String("user_id", payload.UserID), zap.String("job_id", job.ID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *AvatarCleaner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("avatar worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *AvatarCleaner) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
