package purge

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgrieger/inkwell/internal/repository"
)

// Purger hard-deletes users and posts whose soft-delete marker is older
// than the retention window. It runs on a fixed interval until its
// context is canceled.
type Purger struct {
	users     repository.UserRepository
	posts     repository.PostRepository
	interval  time.Duration
	retention time.Duration
	log       *logrus.Entry
}

func New(users repository.UserRepository, posts repository.PostRepository, interval, retention time.Duration) *Purger {
	return &Purger{
		users:     users,
		posts:     posts,
		interval:  interval,
		retention: retention,
		log:       logrus.WithField("component", "purge"),
	}
}

// Run blocks until ctx is canceled
func (p *Purger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.log.WithError(err).Error("purge pass failed")
			}
		}
	}
}

// RunOnce performs a single purge pass
func (p *Purger) RunOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-p.retention)

	postCount, err := p.posts.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	userCount, err := p.users.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if userCount > 0 || postCount > 0 {
		p.log.WithFields(logrus.Fields{
			"users": userCount,
			"posts": postCount,
		}).Info("purged stale soft-deleted rows")
	}
	return nil
}
