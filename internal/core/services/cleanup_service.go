package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

var ErrCleanupNotConfigured = errors.New("cleanup: nothing to run")

// OutboxReplayer retries writes the sync engine could not deliver.
type OutboxReplayer interface {
	ReplayOutbox(ctx context.Context) (syncengine.ReplayResult, error)
	Stats() syncengine.Stats
}

// CleanupService runs the periodic housekeeping: replaying the outbox while
// the database is reachable again and pruning old timeline events.
type CleanupService struct {
	logger       *logger.Logger
	timelineRepo ports.TimelineRepository
	replayer     OutboxReplayer
	retention    time.Duration
}

func NewCleanupService(logger *logger.Logger) *CleanupService {
	return &CleanupService{logger: logger}
}

func (s *CleanupService) SetTimelineRepo(repo ports.TimelineRepository, retention time.Duration) {
	s.timelineRepo = repo
	s.retention = retention
}

func (s *CleanupService) SetReplayer(r OutboxReplayer) {
	s.replayer = r
}

// ReplayOutbox is a no-op while the outbox is empty.
func (s *CleanupService) ReplayOutbox(ctx context.Context) (syncengine.ReplayResult, error) {
	if s.replayer == nil {
		return syncengine.ReplayResult{}, ErrCleanupNotConfigured
	}
	if s.replayer.Stats().OutboxDepth == 0 {
		return syncengine.ReplayResult{}, nil
	}
	res, err := s.replayer.ReplayOutbox(ctx)
	if err != nil {
		return res, fmt.Errorf("replay outbox: %w", err)
	}
	if res.Failed > 0 {
		s.logCleanupEvent(ctx, domain.EventStatusFailed, "Outbox replay left writes queued", domain.JSONB{
			"replayed": res.Replayed,
			"failed":   res.Failed,
			"skipped":  res.Skipped,
		})
	}
	return res, nil
}

// PruneTimeline deletes events older than the retention window.
func (s *CleanupService) PruneTimeline(ctx context.Context) (int64, error) {
	if s.timelineRepo == nil || s.retention <= 0 {
		return 0, ErrCleanupNotConfigured
	}
	n, err := s.timelineRepo.CleanupOld(ctx, s.retention)
	if err != nil {
		return 0, fmt.Errorf("prune timeline: %w", err)
	}
	if n > 0 {
		s.logger.Infow("timeline_pruned", "removed", n, "retention", s.retention.String())
	}
	return n, nil
}

// Run replays on replayEvery and prunes on pruneEvery until ctx is done. A
// zero interval disables that job.
func (s *CleanupService) Run(ctx context.Context, replayEvery, pruneEvery time.Duration) {
	var replayC, pruneC <-chan time.Time
	if replayEvery > 0 {
		t := time.NewTicker(replayEvery)
		defer t.Stop()
		replayC = t.C
	}
	if pruneEvery > 0 {
		t := time.NewTicker(pruneEvery)
		defer t.Stop()
		pruneC = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-replayC:
			if _, err := s.ReplayOutbox(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warnw("outbox_replay_failed", "error", err)
			}
		case <-pruneC:
			if _, err := s.PruneTimeline(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warnw("timeline_prune_failed", "error", err)
			}
		}
	}
}

func (s *CleanupService) logCleanupEvent(ctx context.Context, status domain.EventStatus, msg string, meta domain.JSONB) {
	if s.timelineRepo == nil {
		return
	}
	event := &domain.TimelineEvent{
		Type:         "OUTBOX_REPLAY",
		Status:       status,
		Message:      msg,
		Meta:         meta,
		ResourceType: "sync",
	}
	if err := s.timelineRepo.Create(ctx, event); err != nil {
		s.logger.Errorw("cleanup_timeline_event_failed", "error", err)
	}
}
