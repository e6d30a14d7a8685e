package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/config"
	"github.com/lexidrill/examgen-backend/internal/generation"
	"github.com/lexidrill/examgen-backend/internal/service"
)

const (
	// GenerationPollTimeout bounds each BLPop so shutdown is noticed quickly.
	GenerationPollTimeout = 1 * time.Second

	// GenerationConcurrency caps the number of pipelines running at once.
	// Each run makes many oracle calls; more parallelism mostly trades
	// latency for rate-limit pressure.
	GenerationConcurrency = 2
)

// GenerationWorker consumes accepted generation jobs from Redis and drives
// the pipeline for each. The pipeline never returns an error; terminal
// outcomes land in the tracker record, so the worker only has to release
// the acceptance lock afterwards.
type GenerationWorker struct {
	pipeline *generation.Pipeline
	genSvc   *service.GenerationService
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewGenerationWorker creates a new GenerationWorker.
func NewGenerationWorker(
	pipeline *generation.Pipeline,
	genSvc *service.GenerationService,
	rdb *redis.Client,
	log zerolog.Logger,
) *GenerationWorker {
	return &GenerationWorker{
		pipeline: pipeline,
		genSvc:   genSvc,
		rdb:      rdb,
		log:      log.With().Str("component", "generation_worker").Logger(),
	}
}

// Start consumes the queue until ctx is cancelled. In-flight pipelines are
// allowed to finish before Start returns.
func (w *GenerationWorker) Start(ctx context.Context) {
	w.log.Info().Int("concurrency", GenerationConcurrency).Msg("GenerationWorker started")

	var wg sync.WaitGroup
	sem := make(chan struct{}, GenerationConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Waiting for in-flight generations...")
			wg.Wait()
			return

		default:
			item, err := w.rdb.BLPop(ctx, GenerationPollTimeout, config.WorkerKey.GenerateExamsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job service.GenerationJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			sem <- struct{}{}
			wg.Add(1)
			go func(job service.GenerationJob) {
				defer wg.Done()
				defer func() { <-sem }()
				w.process(job)
			}(job)
		}
	}
}

// process runs one pipeline to its terminal state. It deliberately uses a
// background context: a server shutdown must not abort a half-generated
// exam that is about to persist.
func (w *GenerationWorker) process(job service.GenerationJob) {
	ctx := context.Background()
	started := time.Now()

	result := w.pipeline.Run(ctx, generation.Request{
		ExamID:      job.ExamID,
		RequesterID: job.RequesterID,
		Spec:        job.Spec,
	})

	w.genSvc.ReleaseLock(ctx, job.ExamID, job.RequesterID)

	evt := w.log.Info()
	if !result.Success {
		evt = w.log.Warn().Str("error", result.Message)
	}
	evt.
		Str("exam_id", job.ExamID.String()).
		Bool("success", result.Success).
		Int("oracle_calls", result.Usage.Calls).
		Int("total_tokens", result.Usage.TotalTokens()).
		Dur("elapsed", time.Since(started)).
		Msg("Generation job finished")
}
