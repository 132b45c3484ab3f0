package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spincycle/backend/internal/core/services"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/transport/http/dto"
)

// SyncEngine is the part of the sync engine the HTTP layer drives.
type SyncEngine interface {
	Stats() syncengine.Stats
	Flush(ctx context.Context) error
	ReplayOutbox(ctx context.Context) (syncengine.ReplayResult, error)
	LoadAll(ctx context.Context) (int, error)
	Subscribe(fn syncengine.Listener) func()
}

const defaultJobTimeout = 2 * time.Minute

type SyncHandler struct {
	engine SyncEngine
	jobs   *services.JobService
	// baseCtx parents every job; the request context dies with the handler.
	baseCtx    context.Context
	logger     *logger.Logger
	jobTimeout time.Duration
}

func NewSyncHandler(baseCtx context.Context, engine SyncEngine, jobs *services.JobService, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, jobs: jobs, baseCtx: baseCtx, logger: logger, jobTimeout: defaultJobTimeout}
}

func (h *SyncHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.engine.Stats())
}

func (h *SyncHandler) Flush(c *fiber.Ctx) error {
	job := h.jobs.Start(h.baseCtx, domain.JobTypeFlush, h.jobTimeout, func(ctx context.Context, report func(int, string)) (domain.JSONB, error) {
		before := h.engine.Stats()
		report(10, "Waiting for pending writes")
		if err := h.engine.Flush(ctx); err != nil {
			return nil, err
		}
		after := h.engine.Stats()
		return domain.JSONB{
			"flushed":      before.Pending + before.InFlight,
			"outbox_depth": after.OutboxDepth,
		}, nil
	})
	h.logger.Infow("sync_flush_started", "job_id", job.ID)
	return c.Status(fiber.StatusAccepted).JSON(dto.JobAccepted{
		Message: "flush started",
		JobID:   job.ID,
	})
}

func (h *SyncHandler) Replay(c *fiber.Ctx) error {
	job := h.jobs.Start(h.baseCtx, domain.JobTypeOutboxReplay, h.jobTimeout, func(ctx context.Context, report func(int, string)) (domain.JSONB, error) {
		report(10, "Replaying outbox")
		res, err := h.engine.ReplayOutbox(ctx)
		if err != nil {
			return nil, err
		}
		return domain.JSONB{
			"replayed": res.Replayed,
			"failed":   res.Failed,
			"skipped":  res.Skipped,
		}, nil
	})
	h.logger.Infow("sync_replay_started", "job_id", job.ID)
	return c.Status(fiber.StatusAccepted).JSON(dto.JobAccepted{
		Message: "outbox replay started",
		JobID:   job.ID,
	})
}

func (h *SyncHandler) Reload(c *fiber.Ctx) error {
	job := h.jobs.Start(h.baseCtx, domain.JobTypeReloadAll, h.jobTimeout, func(ctx context.Context, report func(int, string)) (domain.JSONB, error) {
		report(10, "Loading customers")
		n, err := h.engine.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		return domain.JSONB{"loaded": n}, nil
	})
	h.logger.Infow("sync_reload_started", "job_id", job.ID)
	return c.Status(fiber.StatusAccepted).JSON(dto.JobAccepted{
		Message: "reload started",
		JobID:   job.ID,
	})
}

func (h *SyncHandler) GetJob(c *fiber.Ctx) error {
	id := c.Params("id")
	job, err := h.jobs.GetJob(id)
	if err != nil {
		return writeError(c, h.logger, "sync_job_get_failed", err, "job_id", id)
	}
	return c.JSON(job)
}
