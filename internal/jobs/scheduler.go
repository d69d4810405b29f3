package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler enqueues periodic notification tasks onto a redis stream; a
// worker consumes them out of process. The API server itself never sends
// email or computes digests inline.
type Scheduler struct {
	cron   *cron.Cron
	queue  *redis.Client
	stream string
	digest string
	log    zerolog.Logger
}

func NewScheduler(queue *redis.Client, stream, digestSchedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		queue:  queue,
		stream: stream,
		digest: digestSchedule,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.digest, s.enqueueUnreadDigest); err != nil {
		return err
	}
	// hourly reminder about mentors waiting for approval
	if _, err := s.cron.AddFunc("0 0 * * * *", s.enqueuePendingMentors); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueUnreadDigest() {
	if err := s.enqueueTask(map[string]any{
		"type": "unread_digest",
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue unread digest failed")
	}
}

func (s *Scheduler) enqueuePendingMentors() {
	if err := s.enqueueTask(map[string]any{
		"type":  "mentor_approvals",
		"scope": "pending",
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue mentor approvals failed")
	}
}

func (s *Scheduler) enqueueTask(payload map[string]any) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.stream,
		Values: payload,
	}).Result()
	return err
}
